// Package strategy turns balance samples into earnings and proposals.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedToken is returned when a strategy is requested for a token
// missing from the token table.
var ErrUnsupportedToken = errors.New("unsupported token")

// ReviewAction is the proposal action raised for large balance increases.
const ReviewAction = "review_yield"

// Strategy inspects one source of yield per scan.
type Strategy interface {
	Name() string
	Scan(ctx context.Context) ([]model.Earning, []model.Proposal, error)
}

// BalanceReader is the subset of the collector the strategies use.
type BalanceReader interface {
	Balance(ctx context.Context, token model.Token, owner string) (string, decimal.Decimal, error)
}

// TokenDelta books the positive day-over-day change of one token balance as
// earnings.
type TokenDelta struct {
	name     string
	token    model.Token
	balances BalanceReader
	store    store.Store
	settings *settings.Service
	now      func() time.Time
}

// NewTokenDelta builds the delta detector for token.
func NewTokenDelta(name string, token model.Token, balances BalanceReader, st store.Store, svc *settings.Service) *TokenDelta {
	return &TokenDelta{
		name:     name,
		token:    token,
		balances: balances,
		store:    st,
		settings: svc,
		now:      time.Now,
	}
}

func (s *TokenDelta) Name() string { return s.name }

// Token returns the token the strategy watches.
func (s *TokenDelta) Token() model.Token { return s.token }

func (s *TokenDelta) Scan(ctx context.Context) ([]model.Earning, []model.Proposal, error) {
	owner, err := s.settings.WalletAddress(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read wallet address: %w", err)
	}
	if owner == "" {
		return nil, nil, nil
	}

	_, current, err := s.balances.Balance(ctx, s.token, owner)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	today := model.DayOf(now)
	symbol := s.token.Symbol
	if err := s.store.UpsertDailyBalance(ctx, symbol, today, current); err != nil {
		return nil, nil, fmt.Errorf("store %s snapshot: %w", symbol, err)
	}

	previous, found, err := s.store.GetPreviousBalance(ctx, symbol, today)
	if err != nil {
		return nil, nil, fmt.Errorf("load previous %s snapshot: %w", symbol, err)
	}
	if !found {
		return nil, nil, nil
	}
	delta := current.Sub(previous)
	if !delta.IsPositive() {
		return nil, nil, nil
	}

	earnings := []model.Earning{{
		Timestamp: now,
		Source:    model.YieldSource(symbol),
		Amount:    delta,
		Note:      fmt.Sprintf("Balance delta vs yesterday: +%s %s", delta.StringFixed(8), symbol),
	}}

	minDelta, ok, err := s.settings.ProposalMinDelta(ctx)
	if err != nil {
		return earnings, nil, fmt.Errorf("read proposal threshold: %w", err)
	}
	if !ok || delta.LessThan(minDelta) {
		return earnings, nil, nil
	}
	proposals := []model.Proposal{{
		Strategy: s.name,
		Action:   ReviewAction,
		Payload: map[string]any{
			"token":    symbol,
			"day":      today,
			"previous": previous.String(),
			"current":  current.String(),
			"delta":    delta.String(),
		},
		EstimatedValue: delta,
		Note:           fmt.Sprintf("%s grew by %s since yesterday", symbol, delta.StringFixed(8)),
	}}
	return earnings, proposals, nil
}
