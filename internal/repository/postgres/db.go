package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Pool sizes the connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool suits the API server.
func DefaultPool() Pool {
	return Pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 30 * time.Minute}
}

// PoolForWorkers sizes the pool for n concurrent arena matches. Each match
// writes from one goroutine, so two connections per worker leave room for
// the final SetFinished transaction while turns are flushed.
func PoolForWorkers(n int) Pool {
	n = max(n, 1)
	return Pool{MaxOpen: 2 * n, MaxIdle: n, MaxLifetime: 30 * time.Minute}
}

// Connect opens a connection pool to the PostgreSQL database and checks it
// answers within five seconds.
func Connect(databaseURL string, pool Pool) (*sql.DB, error) {
	connector, err := pq.NewConnector(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}
