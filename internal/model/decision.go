package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecisionStatus is the lifecycle state of a Decision.
type DecisionStatus string

const (
	StatusPending  DecisionStatus = "pending"
	StatusApproved DecisionStatus = "approved"
	StatusRejected DecisionStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s DecisionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s DecisionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Proposal is a strategy-originated action awaiting human or automatic approval.
type Proposal struct {
	Strategy       string          `json:"strategy"`
	Action         string          `json:"action"`
	Payload        map[string]any  `json:"payload"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Note           string          `json:"note"`
}

// Decision is a persisted Proposal with its review status.
type Decision struct {
	ID             int64           `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Strategy       string          `json:"strategy"`
	Action         string          `json:"action"`
	Payload        map[string]any  `json:"payload"`
	Status         DecisionStatus  `json:"status"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Note           string          `json:"note"`
}
