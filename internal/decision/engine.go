// Package decision moves proposals through review.
package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/store"

	"go.uber.org/zap"
)

// Engine approves and rejects decisions. Transitions are conditional on the
// decision still being pending, so concurrent callers race safely.
type Engine struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewEngine(st store.Store, log *zap.Logger) *Engine {
	return &Engine{store: st, log: log.Named("decision"), now: time.Now}
}

// Approve marks a pending decision approved and books the marker earning.
// It returns false when the decision is missing or already reviewed.
func (e *Engine) Approve(ctx context.Context, id int64) (bool, error) {
	d, found, err := e.store.GetDecision(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load decision %d: %w", id, err)
	}
	if !found || d.Status != model.StatusPending {
		return false, nil
	}

	marker := model.Earning{
		Timestamp: e.now().UTC(),
		Source:    d.Strategy,
		Amount:    model.MarkerAmount,
		Note:      "Approved action marker: " + payloadJSON(d.Payload),
	}
	ok, err := e.store.ApproveDecision(ctx, id, marker)
	if err != nil {
		return false, fmt.Errorf("approve decision %d: %w", id, err)
	}
	if ok {
		e.log.Info("decision approved", zap.Int64("decision_id", id), zap.String("strategy", d.Strategy))
	}
	return ok, nil
}

// Reject marks a pending decision rejected. No earning is recorded.
func (e *Engine) Reject(ctx context.Context, id int64) (bool, error) {
	ok, err := e.store.UpdateDecisionStatus(ctx, id, model.StatusRejected)
	if err != nil {
		return false, fmt.Errorf("reject decision %d: %w", id, err)
	}
	if ok {
		e.log.Info("decision rejected", zap.Int64("decision_id", id))
	}
	return ok, nil
}

// AutoApprove books the marker for a proposal approved by policy. No
// decision row is involved.
func (e *Engine) AutoApprove(ctx context.Context, p model.Proposal) error {
	marker := model.Earning{
		Timestamp: e.now().UTC(),
		Source:    p.Strategy,
		Amount:    model.MarkerAmount,
		Note:      "Auto-approved marker: " + payloadJSON(p.Payload),
	}
	if _, err := e.store.InsertEarning(ctx, marker); err != nil {
		return fmt.Errorf("auto-approve %s/%s: %w", p.Strategy, p.Action, err)
	}
	e.log.Info("proposal auto-approved",
		zap.String("strategy", p.Strategy),
		zap.String("action", p.Action),
		zap.String("estimated_value", p.EstimatedValue.String()))
	return nil
}

// Pending lists decisions awaiting review, newest first.
func (e *Engine) Pending(ctx context.Context) ([]model.Decision, error) {
	return e.store.ListDecisions(ctx, model.StatusPending)
}

func payloadJSON(payload map[string]any) string {
	if payload == nil {
		return "{}"
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}
