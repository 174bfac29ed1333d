package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// PricePoint is one recorded price.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Signal is one executed trade.
type Signal struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Price     float64   `json:"price"`
}

// State is the running trading state of one symbol.
type State struct {
	InitialPrice float64 `json:"initial_price"`
	TotalTrades  int     `json:"total_trades"`
	TotalProfit  float64 `json:"total_profit"`
}

// Reader is the data the handlers serve.
type Reader interface {
	Prices(ctx context.Context, coin string) ([]PricePoint, error)
	Signals(ctx context.Context, coin string) ([]Signal, error)
	State(ctx context.Context, coin string) (State, error)
}

// Repository reads the bots' tables.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// Prices returns the price history of coin, oldest first.
func (r *Repository) Prices(ctx context.Context, coin string) ([]PricePoint, error) {
	query := `
		SELECT timestamp, price::float8
		FROM price_history
		WHERE coin = $1
		ORDER BY timestamp ASC`

	rows, err := r.db.Pool.Query(ctx, query, coin)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	points := []PricePoint{}
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Signals returns the trades of coin, oldest first.
func (r *Repository) Signals(ctx context.Context, coin string) ([]Signal, error) {
	query := `
		SELECT timestamp, action, price::float8
		FROM trades
		WHERE coin = $1
		ORDER BY timestamp ASC`

	rows, err := r.db.Pool.Query(ctx, query, coin)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	signals := []Signal{}
	for rows.Next() {
		var s Signal
		if err := rows.Scan(&s.Timestamp, &s.Action, &s.Price); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// State returns the trading state of coin. A symbol that never traded has
// the zero state.
func (r *Repository) State(ctx context.Context, coin string) (State, error) {
	query := `
		SELECT initial_price::float8, total_trades, total_profit::float8
		FROM trading_state
		WHERE symbol = $1`

	var s State
	err := r.db.Pool.QueryRow(ctx, query, coin).Scan(&s.InitialPrice, &s.TotalTrades, &s.TotalProfit)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("query state: %w", err)
	}
	return s, nil
}
