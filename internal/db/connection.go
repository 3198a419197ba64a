package db

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx pool together with the department lookup cache.
type Store struct {
	Pool     *pgxpool.Pool
	connInfo string

	mu      sync.RWMutex
	deptIDs map[string]int
}

// Open connects to PostgreSQL with a 10-second timeout and verifies the
// connection with a ping.
func Open(ctx context.Context, connString string) (*Store, error) {
	parsed, err := url.Parse(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	// Ensure sslmode is set if not already present
	q := parsed.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "prefer")
		parsed.RawQuery = q.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, parsed.String())
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{
		Pool:     pool,
		connInfo: displayURL(parsed),
		deptIDs:  make(map[string]int),
	}, nil
}

func displayURL(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s@%s:%s%s", u.User.Username(), u.Hostname(), port, u.Path)
}

// Close closes the pool.
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// Ping checks if the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// ConnInfo returns a display-safe connection string (no password).
func (s *Store) ConnInfo() string {
	return s.connInfo
}
