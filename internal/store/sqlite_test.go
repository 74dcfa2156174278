package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"YieldSentinel/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestUpsertDailyBalance_OneRowPerDayToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, amt := range []string{"1.0", "1.5", "0.9", "2.25"} {
		require.NoError(t, s.UpsertDailyBalance(ctx, "ETH", "2026-10-19", dec(amt)))
	}
	require.NoError(t, s.UpsertDailyBalance(ctx, "stETH", "2026-10-19", dec("3")))

	rows, err := s.ListBalances(ctx, "ETH", "2026-01-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-19", rows[0].Day)
	assert.True(t, rows[0].Amount.Equal(dec("2.25")), "got %s", rows[0].Amount)

	all, err := s.ListBalances(ctx, "", "2026-01-01")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetPreviousBalance_ExactPriorDayOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertDailyBalance(ctx, "ETH", "2026-10-16", dec("10")))

	_, found, err := s.GetPreviousBalance(ctx, "ETH", "2026-10-19")
	require.NoError(t, err)
	assert.False(t, found, "older snapshot must not count as previous day")

	require.NoError(t, s.UpsertDailyBalance(ctx, "ETH", "2026-10-18", dec("10.5")))
	amt, found, err := s.GetPreviousBalance(ctx, "ETH", "2026-10-19")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, amt.Equal(dec("10.5")))

	_, found, err = s.GetPreviousBalance(ctx, "rETH", "2026-10-19")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetPreviousBalance_MonthBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertDailyBalance(ctx, "ETH", "2026-02-28", dec("4")))
	amt, found, err := s.GetPreviousBalance(ctx, "ETH", "2026-03-01")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, amt.Equal(dec("4")))

	_, _, err = s.GetPreviousBalance(ctx, "ETH", "not-a-day")
	assert.Error(t, err)
}

func TestDecisionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InsertDecision(ctx, model.Proposal{
		Strategy:       "stETH Yield Delta",
		Action:         "review_yield",
		Payload:        map[string]any{"token": "stETH", "delta": "0.01"},
		EstimatedValue: dec("0.01"),
		Note:           "check it",
	})
	require.NoError(t, err)

	d, found, err := s.GetDecision(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.StatusPending, d.Status)
	assert.Equal(t, "stETH", d.Payload["token"])
	assert.True(t, d.EstimatedValue.Equal(dec("0.01")))

	ok, err := s.UpdateDecisionStatus(ctx, id, model.StatusRejected)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateDecisionStatus(ctx, id, model.StatusApproved)
	require.NoError(t, err)
	assert.False(t, ok, "terminal decisions never transition again")

	ok, err = s.UpdateDecisionStatus(ctx, 9999, model.StatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpdateDecisionStatus(ctx, id, model.StatusPending)
	assert.Error(t, err)
}

func TestApproveDecision_SingleMarkerUnderRace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InsertDecision(ctx, model.Proposal{Strategy: "ETH Balance Delta", Action: "review_yield"})
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ApproveDecision(ctx, id, model.Earning{Source: "ETH Balance Delta", Amount: model.MarkerAmount})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	earnings, err := s.ListEarnings(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestListDecisions_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.InsertDecision(ctx, model.Proposal{Strategy: "a", Action: "x"})
	require.NoError(t, err)
	second, err := s.InsertDecision(ctx, model.Proposal{Strategy: "b", Action: "y"})
	require.NoError(t, err)
	_, err = s.UpdateDecisionStatus(ctx, first, model.StatusApproved)
	require.NoError(t, err)

	all, err := s.ListDecisions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID, "newest first")

	pending, err := s.ListDecisions(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].ID)
	assert.NotNil(t, pending[0].Payload)
}

func TestSettings_DefaultAndLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v, err := s.GetSetting(ctx, "AUTO_APPROVE_ENABLED", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	require.NoError(t, s.SetSetting(ctx, "AUTO_APPROVE_ENABLED", "true"))
	require.NoError(t, s.SetSetting(ctx, "AUTO_APPROVE_ENABLED", "false"))
	require.NoError(t, s.SetSetting(ctx, "AUTO_APPROVE_ENABLED", "true"))

	v, err = s.GetSetting(ctx, "AUTO_APPROVE_ENABLED", "false")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	_, err := s.InsertEarning(ctx, model.Earning{Timestamp: now.AddDate(0, 0, -30), Source: "ETH yield", Amount: dec("1.0")})
	require.NoError(t, err)
	_, err = s.InsertEarning(ctx, model.Earning{Timestamp: now.AddDate(0, 0, -1), Source: "ETH yield", Amount: dec("0.25")})
	require.NoError(t, err)
	_, err = s.InsertEarning(ctx, model.Earning{Timestamp: now, Source: "stETH yield", Amount: dec("0.05")})
	require.NoError(t, err)
	_, err = s.InsertDecision(ctx, model.Proposal{Strategy: "a", Action: "x"})
	require.NoError(t, err)

	totals, err := s.Totals(ctx, now)
	require.NoError(t, err)
	assert.True(t, totals.AllTime.Equal(dec("1.3")), "all time %s", totals.AllTime)
	assert.True(t, totals.Last7Days.Equal(dec("0.3")), "7d %s", totals.Last7Days)
	assert.Equal(t, int64(1), totals.Pending)

	recent, err := s.ListEarnings(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "ETH yield", recent[0].Source)
	assert.Equal(t, "stETH yield", recent[1].Source)
}
