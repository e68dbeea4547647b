// Package param описывает именованные параметры алгоритмов и ошибки их проверки.
package param

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrNotSet — обязательный параметр не задан.
	ErrNotSet = errors.New("параметр не задан")
	// ErrIncorrectValue — значение параметра вне допустимой области.
	ErrIncorrectValue = errors.New("некорректное значение параметра")
)

// Error — ошибка конкретного параметра.
type Error struct {
	Name   string
	Reason string
	Kind   error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

// NotSet возвращает ошибку незаданного параметра.
func NotSet(name string) error {
	return &Error{Name: name, Kind: ErrNotSet}
}

// Incorrect возвращает ошибку недопустимого значения.
func Incorrect(name string, format string, args ...any) error {
	return &Error{Name: name, Kind: ErrIncorrectValue, Reason: fmt.Sprintf(format, args...)}
}

// Positive проверяет обязательный параметр "> 0"; нулевое значение считается незаданным.
func Positive[T int | int64 | uint | uint64 | float64](name string, v T) error {
	if v == 0 {
		return NotSet(name)
	}
	if v < 0 {
		return Incorrect(name, "должно быть > 0 (получено %v)", v)
	}
	return nil
}

// Value — допустимые типы значений параметров.
type Value interface {
	~int | ~int64 | ~uint | ~uint64 | ~float64 | ~string | ~bool
}

// Parameter — именованная ячейка конфигурации, которая помнит, была ли она задана.
// Реализует flag.Value.
type Parameter[T Value] struct {
	Name        string
	Description string

	value T
	set   bool
}

// New создаёт незаданный параметр.
func New[T Value](name, description string) *Parameter[T] {
	return &Parameter[T]{Name: name, Description: description}
}

// WithDefault создаёт параметр с начальным значением, которое считается заданным.
func WithDefault[T Value](name, description string, v T) *Parameter[T] {
	return &Parameter[T]{Name: name, Description: description, value: v, set: true}
}

func (p *Parameter[T]) IsSet() bool { return p.set }

func (p *Parameter[T]) SetValue(v T) {
	p.value = v
	p.set = true
}

// Get возвращает значение или ErrNotSet.
func (p *Parameter[T]) Get() (T, error) {
	if !p.set {
		var zero T
		return zero, NotSet(p.Name)
	}
	return p.value, nil
}

// Or возвращает значение или def, если параметр не задан.
func (p *Parameter[T]) Or(def T) T {
	if !p.set {
		return def
	}
	return p.value
}

func (p *Parameter[T]) String() string {
	if p == nil || !p.set {
		return ""
	}
	return fmt.Sprint(p.value)
}

// Set разбирает строковое значение (для пакета flag).
func (p *Parameter[T]) Set(s string) error {
	var v any
	var err error
	switch any(p.value).(type) {
	case time.Duration:
		v, err = time.ParseDuration(s)
	case int:
		var n int64
		n, err = strconv.ParseInt(s, 10, 0)
		v = int(n)
	case int64:
		v, err = strconv.ParseInt(s, 10, 64)
	case uint:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 0)
		v = uint(n)
	case uint64:
		v, err = strconv.ParseUint(s, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(s, 64)
	case string:
		v = s
	case bool:
		v, err = strconv.ParseBool(s)
	default:
		return Incorrect(p.Name, "неподдерживаемый тип %T", p.value)
	}
	if err != nil {
		return Incorrect(p.Name, "не удалось разобрать %q: %v", s, err)
	}
	tv, ok := v.(T)
	if !ok {
		return Incorrect(p.Name, "неподдерживаемый тип %T", p.value)
	}
	p.SetValue(tv)
	return nil
}

// IsBoolFlag позволяет писать -flag без значения для булевых параметров.
func (p *Parameter[T]) IsBoolFlag() bool {
	_, ok := any(p.value).(bool)
	return ok
}
