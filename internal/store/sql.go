package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sqlStore — общая реализация поверх database/sql. Запросы пишутся с '?',
// rebind переводит их в синтаксис параметров конкретной СУБД.
type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
}

const createRuns = `
CREATE TABLE IF NOT EXISTS runs (
	seq               %s,
	id                TEXT NOT NULL UNIQUE,
	instance          TEXT NOT NULL,
	algorithm         TEXT NOT NULL,
	seed              BIGINT NOT NULL,
	total             BIGINT NOT NULL,
	violations        BIGINT NOT NULL,
	hard              BIGINT NOT NULL,
	soft              BIGINT NOT NULL,
	makespan          BIGINT NOT NULL,
	permutation       TEXT NOT NULL,
	iterations        BIGINT NOT NULL,
	iteration_of_best BIGINT NOT NULL,
	evaluations       BIGINT NOT NULL,
	duration_ns       BIGINT NOT NULL,
	created_at        BIGINT NOT NULL
)`

const runColumns = `id, instance, algorithm, seed, total, violations, hard, soft, makespan,
	permutation, iterations, iteration_of_best, evaluations, duration_ns, created_at`

func (s *sqlStore) createTables(ctx context.Context, seqColumn string) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createRuns, seqColumn)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS runs_instance ON runs (instance)`)
	return err
}

func (s *sqlStore) SaveRun(ctx context.Context, run Run) error {
	if s.db == nil {
		return errNotInitialized
	}
	perm, err := json.Marshal(run.Permutation)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			total = excluded.total,
			violations = excluded.violations,
			hard = excluded.hard,
			soft = excluded.soft,
			makespan = excluded.makespan,
			permutation = excluded.permutation,
			iterations = excluded.iterations,
			iteration_of_best = excluded.iteration_of_best,
			evaluations = excluded.evaluations,
			duration_ns = excluded.duration_ns
	`),
		run.ID.String(), run.Instance, run.Algorithm, run.Seed,
		run.Total, run.Violations, run.Hard, run.Soft, run.Makespan, string(perm),
		int64(run.Iterations), int64(run.IterationOfBest), int64(run.Evaluations),
		int64(run.Duration), run.CreatedAt.UnixNano(),
	)
	return err
}

func (s *sqlStore) GetRun(ctx context.Context, id uuid.UUID) (Run, bool, error) {
	if s.db == nil {
		return Run{}, false, errNotInitialized
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *sqlStore) ListRuns(ctx context.Context, instance string) ([]Run, error) {
	if s.db == nil {
		return nil, errNotInitialized
	}
	q := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if instance != "" {
		q += ` WHERE instance = ?`
		args = append(args, instance)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q+` ORDER BY seq`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                        Run
		id, perm                   string
		iters, iterBest, evals, ns int64
		created                    int64
	)
	err := sc.Scan(&id, &run.Instance, &run.Algorithm, &run.Seed,
		&run.Total, &run.Violations, &run.Hard, &run.Soft, &run.Makespan, &perm,
		&iters, &iterBest, &evals, &ns, &created)
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(perm), &run.Permutation); err != nil {
		return Run{}, fmt.Errorf("run %s: permutation: %w", id, err)
	}
	run.Iterations, run.IterationOfBest, run.Evaluations = uint64(iters), uint64(iterBest), uint64(evals)
	run.Duration = time.Duration(ns)
	run.CreatedAt = time.Unix(0, created).UTC()
	return run, nil
}

// dollarParams заменяет '?' на $1, $2, ... для PostgreSQL.
func dollarParams(q string) string {
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func sameParams(q string) string { return q }
