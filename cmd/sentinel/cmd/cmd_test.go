package cmd

import (
	"context"
	"testing"

	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
)

func newTestSettings(t *testing.T) *settings.Service {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return settings.New(st)
}

func TestParseSwitch(t *testing.T) {
	cases := map[string]bool{"on": true, "off": false, "true": true, "0": false}
	for in, want := range cases {
		got, err := parseSwitch(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseSwitch("maybe")
	assert.Error(t, err)
}

func TestSeedWallet(t *testing.T) {
	ctx := context.Background()
	svc := newTestSettings(t)

	require.NoError(t, seedWallet(ctx, svc, ""))
	addr, err := svc.WalletAddress(ctx)
	require.NoError(t, err)
	assert.Empty(t, addr)

	require.NoError(t, seedWallet(ctx, svc, walletA))
	addr, err = svc.WalletAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, walletA, addr)

	// A stored address wins over the configured one.
	require.NoError(t, seedWallet(ctx, svc, walletB))
	addr, err = svc.WalletAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, walletA, addr)
}

func TestSeedWalletRejectsInvalidAddress(t *testing.T) {
	err := seedWallet(context.Background(), newTestSettings(t), "not-an-address")
	assert.ErrorIs(t, err, settings.ErrInvalidAddress)
}
