package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// HistoryCap is the maximum number of transaction records kept per wallet.
const HistoryCap = 50

// Store wraps Queries with connection management and helpers.
type Store struct {
	*Queries
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	// WAL keeps the tracker and the async API logger from blocking each
	// other's writes.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{
		Queries: New(conn),
		conn:    conn,
	}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// RecordSwap inserts a history record and prunes the wallet's history down to
// HistoryCap in the same pass.
func (s *Store) RecordSwap(ctx context.Context, arg InsertSwapParams) (Swap, error) {
	rec, err := s.InsertSwap(ctx, arg)
	if err != nil {
		return Swap{}, err
	}
	if err := s.PruneSwaps(ctx, arg.Wallet, HistoryCap); err != nil {
		return rec, fmt.Errorf("pruning history: %w", err)
	}
	return rec, nil
}
