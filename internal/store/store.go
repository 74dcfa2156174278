package store

import (
	"context"
	"time"

	"YieldSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// Totals is the headline summary shown by the control surfaces.
type Totals struct {
	AllTime   decimal.Decimal `json:"all_time"`
	Last7Days decimal.Decimal `json:"last_7_days"`
	Pending   int64           `json:"pending"`
}

// Store persists earnings, daily balance snapshots, decisions and settings.
// Every method is a single atomic operation and safe for concurrent use.
type Store interface {
	InsertEarning(ctx context.Context, e model.Earning) (int64, error)
	ListEarnings(ctx context.Context, since time.Time) ([]model.Earning, error)

	UpsertDailyBalance(ctx context.Context, token, day string, amount decimal.Decimal) error
	GetPreviousBalance(ctx context.Context, token, day string) (decimal.Decimal, bool, error)
	ListBalances(ctx context.Context, token, sinceDay string) ([]model.DailyBalance, error)

	InsertDecision(ctx context.Context, p model.Proposal) (int64, error)
	GetDecision(ctx context.Context, id int64) (model.Decision, bool, error)
	ListDecisions(ctx context.Context, status model.DecisionStatus) ([]model.Decision, error)
	UpdateDecisionStatus(ctx context.Context, id int64, status model.DecisionStatus) (bool, error)
	ApproveDecision(ctx context.Context, id int64, marker model.Earning) (bool, error)

	GetSetting(ctx context.Context, key, def string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Totals(ctx context.Context, now time.Time) (Totals, error)
	Close() error
}
