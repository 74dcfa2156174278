package api

import (
	"strconv"
	"strings"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/report"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/strategy"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultWindowDays = 7
	maxWindowDays     = 3650
)

func (s *Server) totals(c *gin.Context) {
	t, err := s.deps.Store.Totals(c.Request.Context(), s.now())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, t)
}

// windowDays reads ?days=, defaulting to a week.
func windowDays(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("days", strconv.Itoa(defaultWindowDays))
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > maxWindowDays {
		return 0, ErrBind
	}
	return days, nil
}

func (s *Server) earnings(c *gin.Context) {
	days, err := windowDays(c)
	if err != nil {
		Error(c, err)
		return
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	list, err := s.deps.Store.ListEarnings(c.Request.Context(), since)
	if err != nil {
		Error(c, err)
		return
	}
	if list == nil {
		list = []model.Earning{}
	}
	Success(c, gin.H{
		"days":     days,
		"since":    since,
		"earnings": list,
		"summary":  report.Summarize(list),
	})
}

func (s *Server) balances(c *gin.Context) {
	days, err := windowDays(c)
	if err != nil {
		Error(c, err)
		return
	}
	sinceDay := model.DayOf(s.now().AddDate(0, 0, -days))
	list, err := s.deps.Store.ListBalances(c.Request.Context(), c.Query("token"), sinceDay)
	if err != nil {
		Error(c, err)
		return
	}
	if list == nil {
		list = []model.DailyBalance{}
	}
	Success(c, list)
}

func (s *Server) listDecisions(c *gin.Context) {
	status := model.DecisionStatus(strings.ToLower(c.Query("status")))
	if status != "" && !status.Valid() {
		Error(c, ErrInvalidStatus)
		return
	}
	list, err := s.deps.Store.ListDecisions(c.Request.Context(), status)
	if err != nil {
		Error(c, err)
		return
	}
	if list == nil {
		list = []model.Decision{}
	}
	Success(c, list)
}

func decisionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Error(c, ErrBind)
		return 0, false
	}
	return id, true
}

func (s *Server) getDecision(c *gin.Context) {
	id, ok := decisionID(c)
	if !ok {
		return
	}
	d, found, err := s.deps.Store.GetDecision(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	if !found {
		Error(c, ErrDecisionNotFound)
		return
	}
	Success(c, d)
}

func (s *Server) approve(c *gin.Context) {
	s.review(c, true)
}

func (s *Server) reject(c *gin.Context) {
	s.review(c, false)
}

func (s *Server) review(c *gin.Context, approve bool) {
	id, ok := decisionID(c)
	if !ok {
		return
	}
	var (
		done bool
		err  error
	)
	if approve {
		done, err = s.deps.Decisions.Approve(c.Request.Context(), id)
	} else {
		done, err = s.deps.Decisions.Reject(c.Request.Context(), id)
	}
	if err != nil {
		Error(c, err)
		return
	}
	if !done {
		Error(c, ErrDecisionNotPending)
		return
	}
	status := model.StatusRejected
	if approve {
		status = model.StatusApproved
	}
	Success(c, gin.H{"id": id, "status": status})
}

type settingsView struct {
	WalletAddress    string               `json:"wallet_address"`
	AutoApprove      settings.AutoApprove `json:"auto_approve"`
	ProposalMinDelta *decimal.Decimal     `json:"proposal_min_delta"`
	Strategies       []strategy.Entry     `json:"strategies"`
}

func (s *Server) getSettings(c *gin.Context) {
	ctx := c.Request.Context()
	wallet, err := s.deps.Settings.WalletAddress(ctx)
	if err != nil {
		Error(c, err)
		return
	}
	policy, err := s.deps.Settings.AutoApprove(ctx)
	if err != nil {
		Error(c, err)
		return
	}
	view := settingsView{WalletAddress: wallet, AutoApprove: policy}
	if d, on, err := s.deps.Settings.ProposalMinDelta(ctx); err != nil {
		Error(c, err)
		return
	} else if on {
		view.ProposalMinDelta = &d
	}
	catalog, err := s.deps.Strategies.Catalog(ctx)
	if err != nil {
		Error(c, err)
		return
	}
	view.Strategies = catalog
	Success(c, view)
}

func (s *Server) putWallet(c *gin.Context) {
	var req struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, ErrBind)
		return
	}
	if err := s.deps.Settings.SetWalletAddress(c.Request.Context(), req.Address); err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"wallet_address": strings.TrimSpace(req.Address)})
}

func (s *Server) putAutoApprove(c *gin.Context) {
	var req struct {
		Enabled *bool  `json:"enabled" binding:"required"`
		Cap     string `json:"cap"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, ErrBind)
		return
	}
	ctx := c.Request.Context()
	if err := s.deps.Settings.SetAutoApprove(ctx, *req.Enabled, req.Cap); err != nil {
		Error(c, err)
		return
	}
	policy, err := s.deps.Settings.AutoApprove(ctx)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, policy)
}

func (s *Server) putProposalThreshold(c *gin.Context) {
	var req struct {
		MinDelta string `json:"min_delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, ErrBind)
		return
	}
	if err := s.deps.Settings.SetProposalMinDelta(c.Request.Context(), req.MinDelta); err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"min_delta": strings.TrimSpace(req.MinDelta)})
}

func (s *Server) listStrategies(c *gin.Context) {
	catalog, err := s.deps.Strategies.Catalog(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, catalog)
}

func (s *Server) putStrategy(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, ErrBind)
		return
	}
	key := c.Param("key")
	if _, ok := s.deps.Strategies.Lookup(key); !ok {
		Error(c, ErrUnknownStrategy)
		return
	}
	if err := s.deps.Strategies.SetEnabled(c.Request.Context(), key, *req.Enabled); err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"key": key, "enabled": *req.Enabled})
}

func (s *Server) schedulerStatus(c *gin.Context) {
	Success(c, s.deps.Scheduler.Status())
}

func (s *Server) schedulerStart(c *gin.Context) {
	if !s.deps.Scheduler.Start(s.base) {
		Error(c, ErrSchedulerRunning)
		return
	}
	Success(c, s.deps.Scheduler.Status())
}

func (s *Server) schedulerStop(c *gin.Context) {
	if !s.deps.Scheduler.Stop() {
		Error(c, ErrSchedulerStopped)
		return
	}
	Success(c, s.deps.Scheduler.Status())
}

func (s *Server) schedulerScan(c *gin.Context) {
	queued := s.deps.Scheduler.Nudge()
	Success(c, gin.H{"queued": queued, "requested_at": s.now().UTC().Format(time.RFC3339)})
}
