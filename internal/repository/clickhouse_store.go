package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	pkgch "OppRadar/pkg/clickhouse"
	applogger "OppRadar/pkg/logger"
)

// recentWindow is the fixed lookback served by Recent and Stats.
const recentWindow = 24 * time.Hour

// CHOpportunityStore implements OpportunityStore backed by ClickHouse.
// Filterable fields are columns; the full opportunity travels alongside as
// JSON so reads round-trip without a wide schema.
type CHOpportunityStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHOpportunityStore creates the store over an existing client.
func NewCHOpportunityStore(ch *pkgch.Client, table string) *CHOpportunityStore {
	if table == "" {
		table = "oppradar.opportunities"
	}
	return &CHOpportunityStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHOpportunityStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init ensures the table exists (idempotent).
func (s *CHOpportunityStore) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts DateTime,
            symbol String,
            exchange String,
            signal String,
            strength String,
            total Float64,
            confidence Float64,
            price Float64,
            volume24h Float64,
            payload String
        ) ENGINE=MergeTree ORDER BY (symbol, ts) TTL ts + INTERVAL 7 DAY
    `, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("init opportunities table: %w", err)
	}
	return nil
}

func (s *CHOpportunityStore) Store(ctx context.Context, opp *models.TradingOpportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("marshal opportunity: %w", err)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, symbol, exchange, signal, strength, total, confidence, price, volume24h, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table,
	)
	_, err = s.db.ExecContext(ctx, q,
		opp.Timestamp,
		opp.Symbol,
		opp.Exchange,
		string(opp.Signal),
		string(opp.Score.Strength),
		opp.Score.Total,
		opp.Score.Confidence,
		opp.Price,
		opp.Volume24h,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

// Recent returns opportunities from the 24h window, newest first, with
// optional server-side filters.
func (s *CHOpportunityStore) Recent(ctx context.Context, f domrepo.OpportunityFilter) ([]*models.TradingOpportunity, error) {
	start := time.Now()
	if f.Limit <= 0 {
		f.Limit = 50
	}

	since := time.Now().Add(-recentWindow)
	if f.Since.After(since) {
		since = f.Since
	}
	conds := []string{"ts >= ?"}
	args := []interface{}{since}
	if f.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Signal != "" {
		conds = append(conds, "signal = ?")
		args = append(args, string(f.Signal))
	}
	if f.MinScore > 0 {
		conds = append(conds, "total >= ?")
		args = append(args, f.MinScore)
	}
	if f.MinConfidence > 0 {
		conds = append(conds, "confidence >= ?")
		args = append(args, f.MinConfidence)
	}
	args = append(args, f.Limit)

	q := fmt.Sprintf(
		"SELECT payload FROM %s WHERE %s ORDER BY ts DESC LIMIT ?",
		s.table, strings.Join(conds, " AND "),
	)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("recent opportunities: %w", err)
	}
	defer rows.Close()

	out := make([]*models.TradingOpportunity, 0, f.Limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		var opp models.TradingOpportunity
		if err := json.Unmarshal([]byte(payload), &opp); err != nil {
			if s.l != nil {
				s.l.Warn("skipping malformed opportunity row", applogger.Error(err))
			}
			continue
		}
		out = append(out, &opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse recent ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Stats aggregates the 24h window by signal and by strength.
func (s *CHOpportunityStore) Stats(ctx context.Context) (*models.OpportunityStats, error) {
	since := time.Now().Add(-recentWindow)
	st := &models.OpportunityStats{
		BySignal:   make(map[string]int64),
		ByStrength: make(map[string]int64),
		Window:     "24h",
	}

	q := fmt.Sprintf("SELECT signal, strength, count() FROM %s WHERE ts >= ? GROUP BY signal, strength", s.table)
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("opportunity stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var signal, strength string
		var count uint64
		if err := rows.Scan(&signal, &strength, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.Total += int64(count)
		st.BySignal[signal] += int64(count)
		st.ByStrength[strength] += int64(count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return st, nil
}

func (s *CHOpportunityStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHOpportunityStore) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

var _ domrepo.OpportunityStore = (*CHOpportunityStore)(nil)
