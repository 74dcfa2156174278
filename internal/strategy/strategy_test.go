package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"YieldSentinel/internal/collector"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const wallet = "0x1111111111111111111111111111111111111111"

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    store.Store
	settings *settings.Service
	source   *collector.MockSource
	reader   *collector.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	src := &collector.MockSource{}
	return &fixture{store: st, settings: settings.New(st), source: src, reader: collector.NewCollector(src)}
}

func (f *fixture) ethStrategy(t *testing.T) *TokenDelta {
	t.Helper()
	s, err := ForToken("ETH", f.reader, f.store, f.settings)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestScanWithoutWalletIsNoop(t *testing.T) {
	f := newFixture(t)
	s := f.ethStrategy(t)

	earnings, proposals, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, earnings)
	assert.Empty(t, proposals)
	assert.Zero(t, f.source.Calls)
}

func TestScanDelta(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		current  string
		want     string
	}{
		{"increase", "10.0", "10.5", "0.5"},
		{"decrease", "10.0", "9.9", ""},
		{"unchanged", "10.0", "10.0", ""},
		{"no previous", "", "10.5", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			require.NoError(t, f.settings.SetWalletAddress(ctx, wallet))
			if tt.previous != "" {
				require.NoError(t, f.store.UpsertDailyBalance(ctx, "ETH", "2026-02-28", d(tt.previous)))
			}
			f.source.SetNative(d(tt.current))

			earnings, proposals, err := f.ethStrategy(t).Scan(ctx)
			require.NoError(t, err)
			assert.Empty(t, proposals)

			if tt.want == "" {
				assert.Empty(t, earnings)
			} else {
				require.Len(t, earnings, 1)
				assert.True(t, earnings[0].Amount.Equal(d(tt.want)), "got %s", earnings[0].Amount)
				assert.Equal(t, "ETH yield", earnings[0].Source)
				assert.Equal(t, "Balance delta vs yesterday: +0.50000000 ETH", earnings[0].Note)
				assert.Equal(t, fixedNow, earnings[0].Timestamp)
			}

			rows, err := f.store.ListBalances(ctx, "ETH", "2026-03-01")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.True(t, rows[0].Amount.Equal(d(tt.current)))
		})
	}
}

func TestScanOlderSnapshotIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.settings.SetWalletAddress(ctx, wallet))
	require.NoError(t, f.store.UpsertDailyBalance(ctx, "ETH", "2026-02-27", d("1")))
	f.source.SetNative(d("5"))

	earnings, _, err := f.ethStrategy(t).Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, earnings)
}

func TestScanProposalThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.settings.SetWalletAddress(ctx, wallet))
	require.NoError(t, f.settings.SetProposalMinDelta(ctx, "0.5"))
	require.NoError(t, f.store.UpsertDailyBalance(ctx, "ETH", "2026-02-28", d("10")))
	s := f.ethStrategy(t)

	f.source.SetNative(d("10.4"))
	earnings, proposals, err := s.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
	assert.Empty(t, proposals)

	f.source.SetNative(d("10.75"))
	earnings, proposals, err = s.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
	require.Len(t, proposals, 1)
	p := proposals[0]
	assert.Equal(t, "eth_delta", p.Strategy)
	assert.Equal(t, ReviewAction, p.Action)
	assert.True(t, p.EstimatedValue.Equal(d("0.75")))
	assert.Equal(t, "ETH", p.Payload["token"])
	assert.Equal(t, "2026-03-01", p.Payload["day"])
	assert.Equal(t, "0.75", p.Payload["delta"])
}

func TestScanSourceError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.settings.SetWalletAddress(ctx, wallet))
	f.source.SetErr(collector.ErrTransport)

	_, _, err := f.ethStrategy(t).Scan(ctx)
	assert.True(t, errors.Is(err, collector.ErrTransport))

	rows, err := f.store.ListBalances(ctx, "ETH", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestScanERC20KeyedByDisplaySymbol(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.settings.SetWalletAddress(ctx, wallet))
	steth := Tokens["stETH"]
	f.source.Symbols = map[string]string{}
	f.source.Symbols[strings.ToLower(steth.Contract)] = "STETH-ONCHAIN"
	f.source.SetToken(steth.Contract, d("2"))
	require.NoError(t, f.store.UpsertDailyBalance(ctx, "stETH", "2026-02-28", d("1.5")))

	s, err := ForToken("stETH", f.reader, f.store, f.settings)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }

	earnings, _, err := s.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	assert.Equal(t, "stETH yield", earnings[0].Source)
	assert.True(t, earnings[0].Amount.Equal(d("0.5")))
}

func TestForTokenUnsupported(t *testing.T) {
	f := newFixture(t)
	_, err := ForToken("DOGE", f.reader, f.store, f.settings)
	assert.ErrorIs(t, err, ErrUnsupportedToken)
}
