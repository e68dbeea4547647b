package store

import "fmt"

// NewStore выбирает хранилище по kind; dsn — путь к файлу SQLite или строка подключения PostgreSQL.
func NewStore(kind, dsn string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(dsn)
	case "postgres":
		return NewPostgres(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
