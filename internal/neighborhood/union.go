package neighborhood

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
)

// Объединения фиксированной арности: ход хранится в типизированном поле
// варианта, выбор компоненты — switch по Kind, без приведения типов.

// Part — компонента объединения: имя, окрестность и относительный вес.
// Нулевой вес отключает компоненту.
type Part[S any, M Move[M], T cost.Number] struct {
	Name     string
	Explorer Explorer[S, M, T]
	Weight   float64
}

// Variant2 — ход объединения двух окрестностей. Kind 0 — поле A, 1 — поле B.
type Variant2[M1 Move[M1], M2 Move[M2]] struct {
	Kind int
	A    M1
	B    M2
}

func (v Variant2[M1, M2]) Equal(o Variant2[M1, M2]) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == 0 {
		return v.A.Equal(o.A)
	}
	return v.B.Equal(o.B)
}

func (v Variant2[M1, M2]) Less(o Variant2[M1, M2]) bool {
	if v.Kind != o.Kind {
		return v.Kind < o.Kind
	}
	if v.Kind == 0 {
		return v.A.Less(o.A)
	}
	return v.B.Less(o.B)
}

func (v Variant2[M1, M2]) String() string {
	if v.Kind == 0 {
		return fmt.Sprintf("#0:%s", v.A)
	}
	return fmt.Sprintf("#1:%s", v.B)
}

// Variant3 — ход объединения трёх окрестностей. Kind 0 — A, 1 — B, 2 — C.
type Variant3[M1 Move[M1], M2 Move[M2], M3 Move[M3]] struct {
	Kind int
	A    M1
	B    M2
	C    M3
}

func (v Variant3[M1, M2, M3]) Equal(o Variant3[M1, M2, M3]) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case 0:
		return v.A.Equal(o.A)
	case 1:
		return v.B.Equal(o.B)
	}
	return v.C.Equal(o.C)
}

func (v Variant3[M1, M2, M3]) Less(o Variant3[M1, M2, M3]) bool {
	if v.Kind != o.Kind {
		return v.Kind < o.Kind
	}
	switch v.Kind {
	case 0:
		return v.A.Less(o.A)
	case 1:
		return v.B.Less(o.B)
	}
	return v.C.Less(o.C)
}

func (v Variant3[M1, M2, M3]) String() string {
	switch v.Kind {
	case 0:
		return fmt.Sprintf("#0:%s", v.A)
	case 1:
		return fmt.Sprintf("#1:%s", v.B)
	}
	return fmt.Sprintf("#2:%s", v.C)
}

// weighting — имена и веса компонент. Число весов равно числу компонент
// по построению. Вероятность выбрать компоненту i равна w[i] / sum(w);
// веса влияют только на случайную выборку, перебор идёт по всем активным компонентам.
type weighting struct {
	names   []string
	weights []float64
}

func newWeighting(names []string, weights []float64) (weighting, error) {
	total := 0.0
	for i, name := range names {
		w := weights[i]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return weighting{}, fmt.Errorf("neighborhood: вес окрестности %q должен быть >= 0 и конечным (получено %v)", name, w)
		}
		for _, prev := range names[:i] {
			if prev == name {
				return weighting{}, fmt.Errorf("neighborhood: окрестность %q уже добавлена", name)
			}
		}
		total += w
	}
	if total == 0 {
		return weighting{}, errors.New("neighborhood: объединение без активных компонент")
	}
	return weighting{names: names, weights: weights}, nil
}

func (w weighting) active(kind int) bool { return w.weights[kind] > 0 }

// Len — число активных компонент.
func (w weighting) Len() int {
	n := 0
	for _, v := range w.weights {
		if v > 0 {
			n++
		}
	}
	return n
}

// Names — имена активных компонент в порядке Kind.
func (w weighting) Names() []string {
	var out []string
	for i, v := range w.weights {
		if v > 0 {
			out = append(out, w.names[i])
		}
	}
	return out
}

// Probabilities — нормированные веса по Kind; у отключённых компонент 0.
func (w weighting) Probabilities() []float64 {
	total := 0.0
	for _, v := range w.weights {
		total += v
	}
	out := make([]float64, len(w.weights))
	for i, v := range w.weights {
		out[i] = v / total
	}
	return out
}

// KindName возвращает имя компоненты по номеру.
func (w weighting) KindName(kind int) string {
	if kind < 0 || kind >= len(w.names) {
		return ""
	}
	return w.names[kind]
}

// without обнуляет вес компоненты name. Номера компонент не меняются.
func (w weighting) without(name string) (weighting, error) {
	for i, n := range w.names {
		if n != name {
			continue
		}
		weights := append([]float64(nil), w.weights...)
		weights[i] = 0
		return newWeighting(w.names, weights)
	}
	return weighting{}, fmt.Errorf("neighborhood: окрестность %q не найдена", name)
}

// pick выбирает активную компоненту, не отмеченную в skip, пропорционально весам.
func (w weighting) pick(rng *rand.Rand, skip []bool) (int, bool) {
	total := 0.0
	for i, v := range w.weights {
		if !skip[i] {
			total += v
		}
	}
	if total == 0 {
		return 0, false
	}
	r := rng.Float64() * total
	acc := 0.0
	last := -1
	for i, v := range w.weights {
		if skip[i] || v <= 0 {
			continue
		}
		acc += v
		last = i
		if r < acc {
			return i, true
		}
	}
	return last, true
}

// random делает одну попытку выборки в компоненте. false — компонента пуста;
// прочие ошибки возвращаются.
func random[S any, M Move[M], T cost.Number](ex Explorer[S, M, T], rng *rand.Rand, st S, dst *M) (bool, error) {
	mv, err := ex.RandomMove(rng, st)
	if errors.Is(err, ErrEmptyNeighborhood) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	*dst = mv
	return true, nil
}

// first начинает перебор компоненты. false — компонента отключена или пуста;
// ошибка, в том числе ErrNotEnumerable, возвращается вызывающему.
func first[S any, M Move[M], T cost.Number](ex Explorer[S, M, T], st S, name string, active bool, dst *M) (bool, error) {
	if !active {
		return false, nil
	}
	mv, err := ex.FirstMove(st)
	if errors.Is(err, ErrEmptyNeighborhood) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("neighborhood %q: %w", name, err)
	}
	*dst = mv
	return true, nil
}

// Union2 — взвешенное объединение двух окрестностей с разными типами ходов.
type Union2[S any, M1 Move[M1], M2 Move[M2], T cost.Number] struct {
	weighting
	ex1 Explorer[S, M1, T]
	ex2 Explorer[S, M2, T]
}

var _ Explorer[struct{}, Variant2[noMove, noMove], int] = (*Union2[struct{}, noMove, noMove, int])(nil)

// noMove нужен только для проверки соответствия интерфейсу.
type noMove struct{}

func (noMove) Equal(noMove) bool { return true }
func (noMove) Less(noMove) bool  { return false }
func (noMove) String() string    { return "-" }

func NewUnion2[S any, M1 Move[M1], M2 Move[M2], T cost.Number](p1 Part[S, M1, T], p2 Part[S, M2, T]) (*Union2[S, M1, M2, T], error) {
	if p1.Explorer == nil || p2.Explorer == nil {
		return nil, errors.New("neighborhood: окрестность не инициализирована (nil)")
	}
	w, err := newWeighting([]string{p1.Name, p2.Name}, []float64{p1.Weight, p2.Weight})
	if err != nil {
		return nil, err
	}
	return &Union2[S, M1, M2, T]{weighting: w, ex1: p1.Explorer, ex2: p2.Explorer}, nil
}

// Without возвращает копию объединения с отключённой компонентой name.
func (u *Union2[S, M1, M2, T]) Without(name string) (*Union2[S, M1, M2, T], error) {
	w, err := u.without(name)
	if err != nil {
		return nil, err
	}
	out := *u
	out.weighting = w
	return &out, nil
}

// RandomMove выбирает компоненту по весам и делегирует ей выборку.
// Пустая компонента исключается до конца вызова, веса остальных перенормируются.
func (u *Union2[S, M1, M2, T]) RandomMove(rng *rand.Rand, st S) (Variant2[M1, M2], error) {
	var (
		v    Variant2[M1, M2]
		skip [2]bool
	)
	for {
		k, ok := u.pick(rng, skip[:])
		if !ok {
			return Variant2[M1, M2]{}, ErrEmptyNeighborhood
		}
		var err error
		if k == 0 {
			ok, err = random(u.ex1, rng, st, &v.A)
		} else {
			ok, err = random(u.ex2, rng, st, &v.B)
		}
		if err != nil {
			return Variant2[M1, M2]{}, err
		}
		if ok {
			v.Kind = k
			return v, nil
		}
		skip[k] = true
	}
}

// FirstMove начинает перебор с первой непустой компоненты. Все активные
// компоненты проверяются заранее, поэтому ошибка перебора любой из них
// возвращается здесь, а не теряется в NextMove.
func (u *Union2[S, M1, M2, T]) FirstMove(st S) (Variant2[M1, M2], error) {
	var v Variant2[M1, M2]
	ok1, err := first(u.ex1, st, u.names[0], u.active(0), &v.A)
	if err != nil {
		return Variant2[M1, M2]{}, err
	}
	ok2, err := first(u.ex2, st, u.names[1], u.active(1), &v.B)
	if err != nil {
		return Variant2[M1, M2]{}, err
	}
	switch {
	case ok1:
		v.Kind = 0
	case ok2:
		v.Kind = 1
	default:
		return Variant2[M1, M2]{}, ErrEmptyNeighborhood
	}
	return v, nil
}

// NextMove продолжает перебор внутри компоненты, затем переходит к следующей.
func (u *Union2[S, M1, M2, T]) NextMove(st S, v *Variant2[M1, M2]) bool {
	if v.Kind == 0 {
		if u.ex1.NextMove(st, &v.A) {
			return true
		}
		if ok, _ := first(u.ex2, st, u.names[1], u.active(1), &v.B); ok {
			v.Kind = 1
			return true
		}
		return false
	}
	return u.ex2.NextMove(st, &v.B)
}

func (u *Union2[S, M1, M2, T]) FeasibleMove(st S, v Variant2[M1, M2]) bool {
	if v.Kind == 0 {
		return u.active(0) && u.ex1.FeasibleMove(st, v.A)
	}
	return u.active(1) && u.ex2.FeasibleMove(st, v.B)
}

func (u *Union2[S, M1, M2, T]) MakeMove(st S, v Variant2[M1, M2]) {
	if v.Kind == 0 {
		u.ex1.MakeMove(st, v.A)
		return
	}
	u.ex2.MakeMove(st, v.B)
}

func (u *Union2[S, M1, M2, T]) DeltaCost(st S, v Variant2[M1, M2]) cost.Structure[T] {
	if v.Kind == 0 {
		return u.ex1.DeltaCost(st, v.A)
	}
	return u.ex2.DeltaCost(st, v.B)
}

// Union3 — взвешенное объединение трёх окрестностей.
type Union3[S any, M1 Move[M1], M2 Move[M2], M3 Move[M3], T cost.Number] struct {
	weighting
	ex1 Explorer[S, M1, T]
	ex2 Explorer[S, M2, T]
	ex3 Explorer[S, M3, T]
}

var _ Explorer[struct{}, Variant3[noMove, noMove, noMove], int] = (*Union3[struct{}, noMove, noMove, noMove, int])(nil)

func NewUnion3[S any, M1 Move[M1], M2 Move[M2], M3 Move[M3], T cost.Number](p1 Part[S, M1, T], p2 Part[S, M2, T], p3 Part[S, M3, T]) (*Union3[S, M1, M2, M3, T], error) {
	if p1.Explorer == nil || p2.Explorer == nil || p3.Explorer == nil {
		return nil, errors.New("neighborhood: окрестность не инициализирована (nil)")
	}
	w, err := newWeighting([]string{p1.Name, p2.Name, p3.Name}, []float64{p1.Weight, p2.Weight, p3.Weight})
	if err != nil {
		return nil, err
	}
	return &Union3[S, M1, M2, M3, T]{weighting: w, ex1: p1.Explorer, ex2: p2.Explorer, ex3: p3.Explorer}, nil
}

// Without возвращает копию объединения с отключённой компонентой name.
func (u *Union3[S, M1, M2, M3, T]) Without(name string) (*Union3[S, M1, M2, M3, T], error) {
	w, err := u.without(name)
	if err != nil {
		return nil, err
	}
	out := *u
	out.weighting = w
	return &out, nil
}

func (u *Union3[S, M1, M2, M3, T]) RandomMove(rng *rand.Rand, st S) (Variant3[M1, M2, M3], error) {
	var (
		v    Variant3[M1, M2, M3]
		skip [3]bool
	)
	for {
		k, ok := u.pick(rng, skip[:])
		if !ok {
			return Variant3[M1, M2, M3]{}, ErrEmptyNeighborhood
		}
		var err error
		switch k {
		case 0:
			ok, err = random(u.ex1, rng, st, &v.A)
		case 1:
			ok, err = random(u.ex2, rng, st, &v.B)
		default:
			ok, err = random(u.ex3, rng, st, &v.C)
		}
		if err != nil {
			return Variant3[M1, M2, M3]{}, err
		}
		if ok {
			v.Kind = k
			return v, nil
		}
		skip[k] = true
	}
}

func (u *Union3[S, M1, M2, M3, T]) FirstMove(st S) (Variant3[M1, M2, M3], error) {
	var v Variant3[M1, M2, M3]
	ok1, err := first(u.ex1, st, u.names[0], u.active(0), &v.A)
	if err != nil {
		return Variant3[M1, M2, M3]{}, err
	}
	ok2, err := first(u.ex2, st, u.names[1], u.active(1), &v.B)
	if err != nil {
		return Variant3[M1, M2, M3]{}, err
	}
	ok3, err := first(u.ex3, st, u.names[2], u.active(2), &v.C)
	if err != nil {
		return Variant3[M1, M2, M3]{}, err
	}
	switch {
	case ok1:
		v.Kind = 0
	case ok2:
		v.Kind = 1
	case ok3:
		v.Kind = 2
	default:
		return Variant3[M1, M2, M3]{}, ErrEmptyNeighborhood
	}
	return v, nil
}

func (u *Union3[S, M1, M2, M3, T]) NextMove(st S, v *Variant3[M1, M2, M3]) bool {
	switch v.Kind {
	case 0:
		if u.ex1.NextMove(st, &v.A) {
			return true
		}
		if ok, _ := first(u.ex2, st, u.names[1], u.active(1), &v.B); ok {
			v.Kind = 1
			return true
		}
	case 1:
		if u.ex2.NextMove(st, &v.B) {
			return true
		}
	default:
		return u.ex3.NextMove(st, &v.C)
	}
	if ok, _ := first(u.ex3, st, u.names[2], u.active(2), &v.C); ok {
		v.Kind = 2
		return true
	}
	return false
}

func (u *Union3[S, M1, M2, M3, T]) FeasibleMove(st S, v Variant3[M1, M2, M3]) bool {
	switch v.Kind {
	case 0:
		return u.active(0) && u.ex1.FeasibleMove(st, v.A)
	case 1:
		return u.active(1) && u.ex2.FeasibleMove(st, v.B)
	}
	return u.active(2) && u.ex3.FeasibleMove(st, v.C)
}

func (u *Union3[S, M1, M2, M3, T]) MakeMove(st S, v Variant3[M1, M2, M3]) {
	switch v.Kind {
	case 0:
		u.ex1.MakeMove(st, v.A)
	case 1:
		u.ex2.MakeMove(st, v.B)
	default:
		u.ex3.MakeMove(st, v.C)
	}
}

func (u *Union3[S, M1, M2, M3, T]) DeltaCost(st S, v Variant3[M1, M2, M3]) cost.Structure[T] {
	switch v.Kind {
	case 0:
		return u.ex1.DeltaCost(st, v.A)
	case 1:
		return u.ex2.DeltaCost(st, v.B)
	}
	return u.ex3.DeltaCost(st, v.C)
}
