package report

import (
	"testing"
	"time"

	"YieldSentinel/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func earning(source, amount string, ts time.Time) model.Earning {
	return model.Earning{Source: source, Amount: decimal.RequireFromString(amount), Timestamp: ts}
}

func TestBySource(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	got := BySource([]model.Earning{
		earning("ETH yield", "1.0", now),
		earning("ETH yield", "2.0", now),
		earning("stETH yield", "0.5", now),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "ETH yield", got[0].Source)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("3.0")))
	assert.Equal(t, "stETH yield", got[1].Source)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("0.5")))
}

func TestBySourceTiesByName(t *testing.T) {
	now := time.Now()
	got := BySource([]model.Earning{
		earning("rETH yield", "1", now),
		earning("ETH yield", "1", now),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "ETH yield", got[0].Source)
	assert.Equal(t, "rETH yield", got[1].Source)
}

func TestByDay(t *testing.T) {
	// 23:30 in UTC-5 is the next UTC day.
	est := time.FixedZone("EST", -5*3600)
	got := ByDay([]model.Earning{
		earning("ETH yield", "0.3", time.Date(2026, 5, 11, 1, 0, 0, 0, time.UTC)),
		earning("ETH yield", "0.1", time.Date(2026, 5, 9, 10, 0, 0, 0, time.UTC)),
		earning("ETH yield", "0.2", time.Date(2026, 5, 10, 23, 30, 0, 0, est)),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "2026-05-09", got[0].Day)
	assert.Equal(t, "2026-05-11", got[1].Day)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("0.5")))
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil)
	assert.True(t, empty.Total.IsZero())
	assert.Empty(t, empty.BySource)
	assert.Empty(t, empty.ByDay)

	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	s := Summarize([]model.Earning{
		earning("ETH yield", "0.1", now),
		earning("ETH yield", "0.2", now),
	})
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, "0.3", s.Total.String())
}
