package strategy

import (
	"context"
	"fmt"
	"strings"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"
)

// Meta describes one registry entry.
type Meta struct {
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	SettingKey string      `json:"setting_key"`
	Token      model.Token `json:"token"`
}

// Tokens is the built-in token table.
var Tokens = map[string]model.Token{
	"ETH":   {Symbol: "ETH", Kind: model.KindNative, Decimals: 18},
	"stETH": {Symbol: "stETH", Kind: model.KindERC20, Contract: "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84", Decimals: 18},
	"rETH":  {Symbol: "rETH", Kind: model.KindERC20, Contract: "0xae78736Cd615f374D3085123A210448E74Fc6393", Decimals: 18},
}

var builtin = []struct {
	key, label, symbol string
}{
	{"eth_delta", "ETH Balance Delta", "ETH"},
	{"steth_delta", "stETH Yield Delta", "stETH"},
	{"reth_delta", "rETH Yield Delta", "rETH"},
}

// Entry pairs a strategy with its metadata and current state.
type Entry struct {
	Meta
	Enabled bool `json:"enabled"`
}

// Registry holds the strategy instances, built once, in a fixed order.
type Registry struct {
	metas      []Meta
	strategies map[string]Strategy
	settings   *settings.Service
}

// NewRegistry builds one TokenDelta per built-in token followed by one per
// extra configured token.
func NewRegistry(balances BalanceReader, st store.Store, svc *settings.Service, extra []model.Token) (*Registry, error) {
	r := &Registry{
		strategies: make(map[string]Strategy),
		settings:   svc,
	}
	for _, b := range builtin {
		token, ok := Tokens[b.symbol]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedToken, b.symbol)
		}
		r.add(Meta{Key: b.key, Label: b.label, SettingKey: settingKey(b.key), Token: token}, balances, st)
	}
	for _, t := range extra {
		if err := validateToken(t); err != nil {
			return nil, err
		}
		key := strings.ToLower(t.Symbol) + "_delta"
		if _, dup := r.strategies[key]; dup {
			return nil, fmt.Errorf("duplicate strategy %q", key)
		}
		r.add(Meta{Key: key, Label: t.Symbol + " Balance Delta", SettingKey: settingKey(key), Token: t}, balances, st)
	}
	return r, nil
}

// ForToken builds a standalone strategy for a symbol of the built-in table.
func ForToken(symbol string, balances BalanceReader, st store.Store, svc *settings.Service) (*TokenDelta, error) {
	token, ok := Tokens[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedToken, symbol)
	}
	return NewTokenDelta(strings.ToLower(symbol)+"_delta", token, balances, st, svc), nil
}

func (r *Registry) add(m Meta, balances BalanceReader, st store.Store) {
	r.metas = append(r.metas, m)
	r.strategies[m.Key] = NewTokenDelta(m.Key, m.Token, balances, st, r.settings)
}

// Enabled returns the strategies whose flag is on, in registry order.
// A missing flag counts as enabled.
func (r *Registry) Enabled(ctx context.Context) ([]Strategy, error) {
	out := make([]Strategy, 0, len(r.metas))
	for _, m := range r.metas {
		on, err := r.settings.Flag(ctx, m.SettingKey, true)
		if err != nil {
			return nil, err
		}
		if on {
			out = append(out, r.strategies[m.Key])
		}
	}
	return out, nil
}

// Catalog lists every strategy with its label and current state.
func (r *Registry) Catalog(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(r.metas))
	for _, m := range r.metas {
		on, err := r.settings.Flag(ctx, m.SettingKey, true)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Meta: m, Enabled: on})
	}
	return out, nil
}

// Lookup returns the metadata of key.
func (r *Registry) Lookup(key string) (Meta, bool) {
	for _, m := range r.metas {
		if m.Key == key {
			return m, true
		}
	}
	return Meta{}, false
}

// SetEnabled toggles the persisted flag of key.
func (r *Registry) SetEnabled(ctx context.Context, key string, on bool) error {
	m, ok := r.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: strategy %q", ErrUnsupportedToken, key)
	}
	return r.settings.SetFlag(ctx, m.SettingKey, on)
}

func settingKey(key string) string {
	return "STRAT_" + strings.ToUpper(key)
}

func validateToken(t model.Token) error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrUnsupportedToken)
	}
	switch t.Kind {
	case model.KindNative:
		return nil
	case model.KindERC20:
		if t.Contract == "" {
			return fmt.Errorf("%w: %s has no contract", ErrUnsupportedToken, t.Symbol)
		}
		return nil
	}
	return fmt.Errorf("%w: %s has kind %q", ErrUnsupportedToken, t.Symbol, t.Kind)
}
