// Package db is the optional trade archive: resolved trades are copied
// out of the in-memory ledger for later analysis. The simulation never
// reads it back on the hot path; durability stays best-effort.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"moment-machine/internal/model"
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Migrate(dir string) error {
	driver, err := postgres.WithInstance(s.DB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func (s *Store) Close() error { return s.DB.Close() }

// ── Archived trades ──────────────────────────────────

// InsertResolved archives one resolved trade. Re-inserting the same
// trade id is a no-op so resolution retries stay harmless.
func (s *Store) InsertResolved(ctx context.Context, t model.Trade) error {
	if !t.Resolved() || t.PnL == nil {
		return fmt.Errorf("trade %s is not resolved", t.ID)
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO archived_trades
		   (id, bot_id, market, action, stake, odds, event_id, event_label, status, pnl, comment, created_at, resolved_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (id) DO NOTHING`,
		t.ID, t.BotID, t.Market, t.Action, t.Stake, t.Odds,
		t.EventID, t.EventLabel, t.Status, *t.PnL, t.Comment, t.CreatedAt, t.ResolvedAt,
	)
	return err
}

func (s *Store) ListArchived(ctx context.Context, limit int) ([]model.Trade, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, bot_id, market, action, stake, odds, event_id, event_label, status, pnl, comment, created_at, resolved_at
		 FROM archived_trades ORDER BY resolved_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var pnl float64
		if err := rows.Scan(&t.ID, &t.BotID, &t.Market, &t.Action, &t.Stake, &t.Odds,
			&t.EventID, &t.EventLabel, &t.Status, &pnl, &t.Comment, &t.CreatedAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		t.PnL = &pnl
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountArchived(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM archived_trades`).Scan(&n)
	return n, err
}
