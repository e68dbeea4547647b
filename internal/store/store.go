// Package store сохраняет итоги прогонов.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run — итог одного прогона солвера.
type Run struct {
	ID        uuid.UUID
	Instance  string
	Algorithm string
	Seed      int64

	Total      int
	Violations int
	Hard       int
	Soft       int
	Makespan   int
	// Permutation — лучшая найденная последовательность работ.
	Permutation []int

	Iterations      uint64
	IterationOfBest uint64
	Evaluations     uint64
	Duration        time.Duration
	CreatedAt       time.Time
}

// Store — хранилище итогов. Init вызывается один раз до остальных методов.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id uuid.UUID) (Run, bool, error)
	// ListRuns возвращает прогоны экземпляра в порядке сохранения; пустое имя — все прогоны.
	ListRuns(ctx context.Context, instance string) ([]Run, error)
}
