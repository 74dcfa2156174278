package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"YieldSentinel/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database and runs migrations.
// dbPath may be ":memory:" for an ephemeral database.
func NewSQLiteStore(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer anyway, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	// WAL lets the API read while a scan cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, log: log.Named("store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info("sqlite store opened", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS earnings (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			ts     INTEGER NOT NULL,
			source TEXT    NOT NULL,
			amount TEXT    NOT NULL,
			note   TEXT    NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_earnings_ts ON earnings(ts)`,

		`CREATE TABLE IF NOT EXISTS decisions (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at      INTEGER NOT NULL,
			strategy        TEXT    NOT NULL,
			action          TEXT    NOT NULL,
			payload_json    TEXT    NOT NULL,
			status          TEXT    NOT NULL DEFAULT 'pending',
			estimated_value TEXT    NOT NULL DEFAULT '0',
			note            TEXT    NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_status ON decisions(status)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS balances (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			day    TEXT NOT NULL,
			token  TEXT NOT NULL,
			amount TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_balances_day_token ON balances(day, token)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertEarning(ctx context.Context, e model.Earning) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertEarning(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEarning(ctx context.Context, db execer, e model.Earning) (int64, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := db.ExecContext(ctx, `INSERT INTO earnings (ts, source, amount, note) VALUES (?,?,?,?)`,
		ts.Unix(), e.Source, e.Amount.String(), e.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("insert earning: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) ListEarnings(ctx context.Context, since time.Time) ([]model.Earning, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, source, amount, note FROM earnings WHERE ts >= ? ORDER BY ts ASC, id ASC`,
		since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query earnings: %w", err)
	}
	defer rows.Close()

	var out []model.Earning
	for rows.Next() {
		var (
			e  model.Earning
			ts int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Source, &e.Amount, &e.Note); err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertDailyBalance(ctx context.Context, token, day string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO balances (day, token, amount) VALUES (?,?,?)
		ON CONFLICT(day, token) DO UPDATE SET amount = excluded.amount`,
		day, token, amount.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert balance %s@%s: %w", token, day, err)
	}
	return nil
}

// GetPreviousBalance returns the snapshot of the calendar day right before day.
// A gap of more than one day yields found == false.
func (s *SQLiteStore) GetPreviousBalance(ctx context.Context, token, day string) (decimal.Decimal, bool, error) {
	prev, err := model.PreviousDay(day)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse day %q: %w", day, err)
	}

	var amount decimal.Decimal
	err = s.db.QueryRowContext(ctx, `SELECT amount FROM balances WHERE day = ? AND token = ?`, prev, token).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("query balance %s@%s: %w", token, prev, err)
	}
	return amount, true, nil
}

func (s *SQLiteStore) ListBalances(ctx context.Context, token, sinceDay string) ([]model.DailyBalance, error) {
	query := `SELECT id, day, token, amount FROM balances WHERE day >= ?`
	args := []any{sinceDay}
	if token != "" {
		query += ` AND token = ?`
		args = append(args, token)
	}
	query += ` ORDER BY day ASC, token ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	var out []model.DailyBalance
	for rows.Next() {
		var b model.DailyBalance
		if err := rows.Scan(&b.ID, &b.Day, &b.Token, &b.Amount); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertDecision(ctx context.Context, p model.Proposal) (int64, error) {
	payload, err := encodePayload(p.Payload)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `INSERT INTO decisions
		(created_at, strategy, action, payload_json, status, estimated_value, note)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), p.Strategy, p.Action, payload, string(model.StatusPending),
		p.EstimatedValue.String(), p.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("insert decision: %w", err)
	}
	return res.LastInsertId()
}

const decisionColumns = `id, created_at, strategy, action, payload_json, status, estimated_value, note`

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (model.Decision, error) {
	var (
		d       model.Decision
		created int64
		payload string
		status  string
	)
	if err := row.Scan(&d.ID, &created, &d.Strategy, &d.Action, &payload, &status, &d.EstimatedValue, &d.Note); err != nil {
		return d, err
	}
	d.CreatedAt = time.Unix(created, 0).UTC()
	d.Status = model.DecisionStatus(status)
	if err := json.Unmarshal([]byte(payload), &d.Payload); err != nil {
		return d, fmt.Errorf("decode payload of decision %d: %w", d.ID, err)
	}
	return d, nil
}

func (s *SQLiteStore) GetDecision(ctx context.Context, id int64) (model.Decision, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Decision{}, false, nil
	}
	if err != nil {
		return model.Decision{}, false, fmt.Errorf("query decision %d: %w", id, err)
	}
	return d, true, nil
}

func (s *SQLiteStore) ListDecisions(ctx context.Context, status model.DecisionStatus) ([]model.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDecisionStatus moves a pending decision to a terminal status.
// It reports false when the decision is missing or no longer pending.
func (s *SQLiteStore) UpdateDecisionStatus(ctx context.Context, id int64, status model.DecisionStatus) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("invalid target status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return transition(ctx, s.db, id, status)
}

func transition(ctx context.Context, db execer, id int64, status model.DecisionStatus) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE decisions SET status = ? WHERE id = ? AND status = ?`,
		string(status), id, string(model.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("update decision %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update decision %d: %w", id, err)
	}
	return n == 1, nil
}

// ApproveDecision marks a pending decision approved and books the marker
// earning in the same transaction, so a lost race never leaves a stray marker.
func (s *SQLiteStore) ApproveDecision(ctx context.Context, id int64, marker model.Earning) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ok, err := transition(ctx, tx, id, model.StatusApproved)
	if err != nil || !ok {
		return false, err
	}
	if _, err := insertEarning(ctx, tx, marker); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit approval of decision %d: %w", id, err)
	}
	return true, nil
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key, def string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !value.Valid) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("query setting %s: %w", key, err)
	}
	return value.String, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Totals(ctx context.Context, now time.Time) (Totals, error) {
	t := Totals{AllTime: decimal.Zero, Last7Days: decimal.Zero}
	weekAgo := now.Add(-7 * 24 * time.Hour).Unix()

	rows, err := s.db.QueryContext(ctx, `SELECT ts, amount FROM earnings`)
	if err != nil {
		return t, fmt.Errorf("query earnings totals: %w", err)
	}
	for rows.Next() {
		var (
			ts     int64
			amount decimal.Decimal
		)
		if err := rows.Scan(&ts, &amount); err != nil {
			rows.Close()
			return t, fmt.Errorf("scan earning amount: %w", err)
		}
		t.AllTime = t.AllTime.Add(amount)
		if ts >= weekAgo {
			t.Last7Days = t.Last7Days.Add(amount)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return t, fmt.Errorf("iterate earnings: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE status = ?`,
		string(model.StatusPending)).Scan(&t.Pending)
	if err != nil {
		return t, fmt.Errorf("count pending decisions: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info("closing sqlite store")
	return s.db.Close()
}

func encodePayload(payload map[string]any) (string, error) {
	if payload == nil {
		return "{}", nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}
