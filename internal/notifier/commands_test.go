package notifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"YieldSentinel/internal/decision"
	"YieldSentinel/internal/model"
	"YieldSentinel/internal/scheduler"
	"YieldSentinel/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScanner struct {
	nudged int
}

func (f *fakeScanner) Nudge() bool {
	f.nudged++
	return f.nudged == 1
}

func (f *fakeScanner) Status() scheduler.Status {
	return scheduler.Status{State: scheduler.StateIdle, Schedule: "@every 5m", Cycles: 3}
}

func newTestCommands(t *testing.T) (*Commands, store.Store, *fakeScanner) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	scanner := &fakeScanner{}
	return &Commands{Reviewer: decision.NewEngine(st, zap.NewNop()), Scanner: scanner, Totals: st}, st, scanner
}

func queue(t *testing.T, st store.Store, value string) int64 {
	t.Helper()
	id, err := st.InsertDecision(context.Background(), model.Proposal{
		Strategy:       "eth_delta",
		Action:         "review_yield",
		Payload:        map[string]any{"token": "ETH"},
		EstimatedValue: decimal.RequireFromString(value),
	})
	require.NoError(t, err)
	return id
}

func TestHandleCommandReview(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCommands(t)
	first := queue(t, st, "2")
	second := queue(t, st, "3")

	reply := c.HandleCommand(ctx, "/pending")
	assert.Contains(t, reply, "2 pending decision(s)")
	assert.Contains(t, reply, "#2 eth_delta/review_yield")

	assert.Contains(t, c.HandleCommand(ctx, "/approve 1"), "approved")
	assert.Contains(t, c.HandleCommand(ctx, "/approve 1"), "already reviewed")
	assert.Contains(t, c.HandleCommand(ctx, "/reject@sentinel_bot #2"), "rejected")
	assert.Contains(t, c.HandleCommand(ctx, "/reject 99"), "missing or already reviewed")
	assert.Contains(t, c.HandleCommand(ctx, "/approve x"), "not a decision number")
	assert.Contains(t, c.HandleCommand(ctx, "/approve"), "Usage")

	d, _, err := st.GetDecision(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, d.Status)
	d, _, err = st.GetDecision(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, d.Status)

	assert.Equal(t, "✅ No pending decisions.", c.HandleCommand(ctx, "/pending"))
}

func TestHandleCommandScanAndStatus(t *testing.T) {
	ctx := context.Background()
	c, _, scanner := newTestCommands(t)

	assert.Equal(t, "🔄 Scan requested.", c.HandleCommand(ctx, "/scan"))
	assert.Equal(t, "🔄 A scan is already queued.", c.HandleCommand(ctx, "/scan"))
	assert.Equal(t, 2, scanner.nudged)

	reply := c.HandleCommand(ctx, "/status")
	assert.Contains(t, reply, "idle")
	assert.Contains(t, reply, "Cycles: 3")
}

func TestHandleCommandTotals(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCommands(t)
	_, err := st.InsertEarning(ctx, model.Earning{Timestamp: time.Now(), Source: "ETH yield", Amount: decimal.RequireFromString("0.5")})
	require.NoError(t, err)
	queue(t, st, "1")

	reply := c.HandleCommand(ctx, "/totals")
	assert.Contains(t, reply, "All time: 0.50000000")
	assert.Contains(t, reply, "Pending decisions: 1")
}

func TestHandleCommandHelp(t *testing.T) {
	c, _, _ := newTestCommands(t)
	for _, text := range []string{"", "/help", "/start", "hello"} {
		assert.True(t, strings.HasPrefix(c.HandleCommand(context.Background(), text), "Available commands"), text)
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		approve bool
		id      int64
		ok      bool
	}{
		{"APPROVE::12", true, 12, true},
		{"REJECT::3", false, 3, true},
		{"APPROVE::", false, 0, false},
		{"APPROVE::-1", false, 0, false},
		{"DELETE::1", false, 0, false},
		{"garbage", false, 0, false},
	}
	for _, tt := range tests {
		approve, id, ok := parseCallback(tt.data)
		assert.Equal(t, tt.ok, ok, tt.data)
		assert.Equal(t, tt.approve, approve, tt.data)
		assert.Equal(t, tt.id, id, tt.data)
	}
	assert.Equal(t, "APPROVE::7", callbackData(callbackApprove, 7))
}
