package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"YieldSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// MockSource returns controllable fixed balances for development and testing.
// Token balances are keyed by lower-cased contract address.
type MockSource struct {
	mu      sync.Mutex
	Native  decimal.Decimal
	Tokens  map[string]decimal.Decimal
	Symbols map[string]string
	Err     error
	Calls   int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) NativeBalance(_ context.Context, owner string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	if _, err := ParseAddress(owner); err != nil {
		return decimal.Zero, err
	}
	return m.Native, nil
}

func (m *MockSource) TokenBalance(_ context.Context, contract, owner string) (string, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return "", decimal.Zero, m.Err
	}
	if _, err := ParseAddress(owner); err != nil {
		return "", decimal.Zero, err
	}
	key := strings.ToLower(contract)
	return m.Symbols[key], m.Tokens[key], nil
}

// SetNative changes the native balance between scans.
func (m *MockSource) SetNative(v decimal.Decimal) {
	m.mu.Lock()
	m.Native = v
	m.mu.Unlock()
}

// SetToken changes a token balance between scans.
func (m *MockSource) SetToken(contract string, v decimal.Decimal) {
	m.mu.Lock()
	if m.Tokens == nil {
		m.Tokens = make(map[string]decimal.Decimal)
	}
	m.Tokens[strings.ToLower(contract)] = v
	m.mu.Unlock()
}

// SetErr makes every following call fail with err (nil clears it).
func (m *MockSource) SetErr(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}

// Collector resolves a token descriptor to the matching BalanceSource call.
type Collector struct {
	Source BalanceSource
}

// NewCollector creates a new Collector.
func NewCollector(source BalanceSource) *Collector {
	return &Collector{Source: source}
}

// Balance returns the on-chain symbol and balance of token held by owner.
func (c *Collector) Balance(ctx context.Context, token model.Token, owner string) (string, decimal.Decimal, error) {
	switch token.Kind {
	case model.KindNative:
		bal, err := c.Source.NativeBalance(ctx, owner)
		if err != nil {
			return "", decimal.Zero, fmt.Errorf("fetch %s balance: %w", token.Symbol, err)
		}
		return token.Symbol, bal, nil
	case model.KindERC20:
		symbol, bal, err := c.Source.TokenBalance(ctx, token.Contract, owner)
		if err != nil {
			return "", decimal.Zero, fmt.Errorf("fetch %s balance: %w", token.Symbol, err)
		}
		if symbol == "" {
			symbol = token.Symbol
		}
		return symbol, bal, nil
	default:
		return "", decimal.Zero, fmt.Errorf("token %s: unknown kind %q", token.Symbol, token.Kind)
	}
}
