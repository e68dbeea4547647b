// Package tracing настраивает OpenTelemetry для CLI: spans солверов и раннеров
// выгружаются в JSON через stdout-экспортёр.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown выгружает накопленные spans и закрывает вывод.
type Shutdown func(ctx context.Context) error

// Setup устанавливает глобальный TracerProvider, пишущий spans в w.
func Setup(service string, w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("tracing: экспортёр: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// Open включает трассировку по значению флага: "" — выключена,
// "-" — stderr, иначе путь к файлу.
func Open(service, dest string) (Shutdown, error) {
	if dest == "" {
		return func(context.Context) error { return nil }, nil
	}
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if dest != "-" {
		f, err := os.Create(dest)
		if err != nil {
			return nil, fmt.Errorf("tracing: %w", err)
		}
		w, closeFn = f, f.Close
	}
	tp, err := Setup(service, w)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	}, nil
}
