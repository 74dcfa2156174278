package scheduler

import (
	"context"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/settings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StrategyResult is the outcome of one strategy within a cycle.
type StrategyResult struct {
	Strategy     string          `json:"strategy"`
	Earnings     int             `json:"earnings"`
	Earned       decimal.Decimal `json:"earned"`
	Queued       []int64         `json:"queued,omitempty"`
	AutoApproved int             `json:"auto_approved"`
	Error        string          `json:"error,omitempty"`
}

// CycleReport summarizes one scan cycle.
type CycleReport struct {
	Started  time.Time        `json:"started"`
	Duration time.Duration    `json:"duration"`
	Results  []StrategyResult `json:"results"`
	Error    string           `json:"error,omitempty"`
}

// Failed counts strategies that reported an error.
func (r CycleReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != "" {
			n++
		}
	}
	return n
}

// Earned is the total booked by strategies in the cycle.
func (r CycleReport) Earned() decimal.Decimal {
	sum := decimal.Zero
	for _, res := range r.Results {
		sum = sum.Add(res.Earned)
	}
	return sum
}

// Pending counts decisions queued for review in the cycle.
func (r CycleReport) Pending() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Queued)
	}
	return n
}

func (s *Scheduler) runCycle(ctx context.Context) (report CycleReport) {
	report = CycleReport{Started: s.now().UTC()}
	defer func() { report.Duration = s.now().Sub(report.Started) }()

	policy, err := s.settings.AutoApprove(ctx)
	if err != nil {
		s.log.Warn("read auto-approve policy, approving nothing automatically", zap.Error(err))
		policy = settings.AutoApprove{}
	}

	strategies, err := s.strategies.Enabled(ctx)
	if err != nil {
		s.log.Error("load strategies", zap.Error(err))
		report.Error = err.Error()
		return report
	}

	for _, st := range strategies {
		report.Results = append(report.Results, s.runStrategy(ctx, st.Name(), st.Scan, policy))
	}

	s.log.Info("cycle finished",
		zap.Int("strategies", len(report.Results)),
		zap.Int("failed", report.Failed()),
		zap.String("earned", report.Earned().String()),
		zap.Duration("duration", s.now().Sub(report.Started)))
	return report
}

type scanFunc func(ctx context.Context) ([]model.Earning, []model.Proposal, error)

func (s *Scheduler) runStrategy(ctx context.Context, name string, scan scanFunc, policy settings.AutoApprove) StrategyResult {
	res := StrategyResult{Strategy: name, Earned: decimal.Zero}
	log := s.log.With(zap.String("strategy", name))

	earnings, proposals, err := scan(ctx)
	if err != nil {
		log.Warn("strategy scan failed", zap.Error(err))
		res.Error = err.Error()
	}

	for _, e := range earnings {
		if _, err := s.store.InsertEarning(ctx, e); err != nil {
			log.Error("insert earning", zap.Error(err))
			res.Error = err.Error()
			continue
		}
		res.Earnings++
		res.Earned = res.Earned.Add(e.Amount)
	}

	for _, p := range proposals {
		if policy.Allows(p.EstimatedValue) {
			if err := s.approver.AutoApprove(ctx, p); err != nil {
				log.Error("auto-approve proposal", zap.Error(err))
				res.Error = err.Error()
				continue
			}
			res.AutoApproved++
			continue
		}
		id, err := s.store.InsertDecision(ctx, p)
		if err != nil {
			log.Error("queue decision", zap.Error(err))
			res.Error = err.Error()
			continue
		}
		res.Queued = append(res.Queued, id)
		log.Info("decision queued", zap.Int64("decision_id", id), zap.String("action", p.Action))
	}
	return res
}
