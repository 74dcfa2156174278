// Package settings is the typed view over the persisted key-value settings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"YieldSentinel/internal/collector"
	"YieldSentinel/internal/store"

	"github.com/shopspring/decimal"
)

// Setting keys.
const (
	KeyWalletAddress        = "WALLET_ADDRESS"
	KeyAutoApproveEnabled   = "AUTO_APPROVE_ENABLED"
	KeyAutoApproveThreshold = "AUTO_APPROVE_THRESHOLD"
	KeyProposalMinDelta     = "PROPOSAL_MIN_DELTA"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrInvalidDecimal = errors.New("invalid decimal value")
)

// DefaultAutoApproveCap applies when the stored cap is missing or unparseable.
var DefaultAutoApproveCap = decimal.NewFromInt(1)

// AutoApprove is the auto-approval policy read at the start of each cycle.
type AutoApprove struct {
	Enabled bool            `json:"enabled"`
	Cap     decimal.Decimal `json:"cap"`
}

// Allows reports whether a proposal with the given estimated value is
// approved without review.
func (a AutoApprove) Allows(value decimal.Decimal) bool {
	return a.Enabled && !value.IsNegative() && value.LessThanOrEqual(a.Cap)
}

// Service reads and writes settings through the store.
type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

// Get returns the raw value of key, or def when unset.
func (s *Service) Get(ctx context.Context, key, def string) (string, error) {
	return s.store.GetSetting(ctx, key, def)
}

// Set writes a raw value.
func (s *Service) Set(ctx context.Context, key, value string) error {
	return s.store.SetSetting(ctx, key, value)
}

// WalletAddress returns the watched address, "" when none is configured.
func (s *Service) WalletAddress(ctx context.Context) (string, error) {
	v, err := s.store.GetSetting(ctx, KeyWalletAddress, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// SetWalletAddress validates and stores the watched address. An empty value
// clears it.
func (s *Service) SetWalletAddress(ctx context.Context, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr != "" {
		if _, err := collector.ParseAddress(addr); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
		}
	}
	return s.store.SetSetting(ctx, KeyWalletAddress, addr)
}

// AutoApprove returns the current policy.
func (s *Service) AutoApprove(ctx context.Context) (AutoApprove, error) {
	enabled, err := s.Flag(ctx, KeyAutoApproveEnabled, false)
	if err != nil {
		return AutoApprove{}, err
	}
	raw, err := s.store.GetSetting(ctx, KeyAutoApproveThreshold, DefaultAutoApproveCap.String())
	if err != nil {
		return AutoApprove{}, err
	}
	limit, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		limit = DefaultAutoApproveCap
	}
	return AutoApprove{Enabled: enabled, Cap: limit}, nil
}

// SetAutoApprove stores the flag and, when non-empty, the cap.
func (s *Service) SetAutoApprove(ctx context.Context, enabled bool, limit string) error {
	if limit = strings.TrimSpace(limit); limit != "" {
		d, err := decimal.NewFromString(limit)
		if err != nil || d.IsNegative() {
			return fmt.Errorf("%w: %q", ErrInvalidDecimal, limit)
		}
		if err := s.store.SetSetting(ctx, KeyAutoApproveThreshold, d.String()); err != nil {
			return err
		}
	}
	return s.store.SetSetting(ctx, KeyAutoApproveEnabled, formatBool(enabled))
}

// Flag reads a boolean setting. Only a case-insensitive "true" is true.
func (s *Service) Flag(ctx context.Context, key string, def bool) (bool, error) {
	v, err := s.store.GetSetting(ctx, key, formatBool(def))
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(v), "true"), nil
}

// SetFlag writes a boolean setting.
func (s *Service) SetFlag(ctx context.Context, key string, v bool) error {
	return s.store.SetSetting(ctx, key, formatBool(v))
}

// ProposalMinDelta returns the delta at which strategies raise a review
// proposal. ok is false when the feature is off.
func (s *Service) ProposalMinDelta(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, err := s.store.GetSetting(ctx, KeyProposalMinDelta, "")
	if err != nil {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false, nil
	}
	return d, true, nil
}

// SetProposalMinDelta stores the threshold; "" or "0" disables proposals.
func (s *Service) SetProposalMinDelta(ctx context.Context, v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return fmt.Errorf("%w: %q", ErrInvalidDecimal, v)
		}
		v = d.String()
	}
	return s.store.SetSetting(ctx, KeyProposalMinDelta, v)
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
