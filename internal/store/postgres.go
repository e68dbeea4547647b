package store

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
	sqlStore
	dsn string
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{dsn: dsn, sqlStore: sqlStore{rebind: dollarParams}}
}

func (p *Postgres) Init(ctx context.Context) error {
	if p.dsn == "" {
		return errors.New("postgres dsn is required")
	}
	if p.db != nil {
		return nil
	}
	db, err := sql.Open("pgx", p.dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	p.db = db
	if err := p.createTables(ctx, "BIGSERIAL PRIMARY KEY"); err != nil {
		_ = db.Close()
		p.db = nil
		return err
	}
	return nil
}
