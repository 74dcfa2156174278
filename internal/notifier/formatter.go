package notifier

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/scheduler"
	"YieldSentinel/internal/store"
)

// FormatCycleReport formats a finished scan cycle into a Telegram message.
func FormatCycleReport(r scheduler.CycleReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔎 <b>YieldSentinel scan</b> | %s UTC\n\n", r.Started.UTC().Format("2006-01-02 15:04")))
	if r.Error != "" {
		b.WriteString(fmt.Sprintf("❌ Cycle failed: %s\n", html.EscapeString(r.Error)))
		return b.String()
	}
	if len(r.Results) == 0 {
		b.WriteString("No strategies enabled.\n")
		return b.String()
	}

	for _, res := range r.Results {
		switch {
		case res.Error != "":
			b.WriteString(fmt.Sprintf("⚠️ %s: %s\n", res.Strategy, html.EscapeString(res.Error)))
		case res.Earnings > 0:
			b.WriteString(fmt.Sprintf("💰 %s: +%s\n", res.Strategy, res.Earned.StringFixed(8)))
		default:
			b.WriteString(fmt.Sprintf("• %s: no change\n", res.Strategy))
		}
		if n := len(res.Queued); n > 0 {
			b.WriteString(fmt.Sprintf("   %d decision(s) awaiting review\n", n))
		}
		if res.AutoApproved > 0 {
			b.WriteString(fmt.Sprintf("   %d proposal(s) auto-approved\n", res.AutoApproved))
		}
	}
	b.WriteString(fmt.Sprintf("\nEarned this cycle: %s | took %s\n", r.Earned().StringFixed(8), r.Duration.Round(time.Millisecond)))
	return b.String()
}

// FormatTotals formats the headline totals.
func FormatTotals(t store.Totals) string {
	var b strings.Builder
	b.WriteString("📦 <b>Earnings</b>\n\n")
	b.WriteString(fmt.Sprintf("All time: %s\n", t.AllTime.StringFixed(8)))
	b.WriteString(fmt.Sprintf("Last 7 days: %s\n", t.Last7Days.StringFixed(8)))
	b.WriteString(fmt.Sprintf("Pending decisions: %d\n", t.Pending))
	return b.String()
}

// FormatDecision formats one decision for review.
func FormatDecision(d model.Decision) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📝 <b>Decision #%d</b> [%s]\n", d.ID, d.Status))
	b.WriteString(fmt.Sprintf("Strategy: %s\nAction: %s\n", d.Strategy, d.Action))
	b.WriteString(fmt.Sprintf("Estimated value: %s\n", d.EstimatedValue.StringFixed(8)))
	if len(d.Payload) > 0 {
		payload, _ := json.Marshal(d.Payload)
		b.WriteString(fmt.Sprintf("Payload: <code>%s</code>\n", html.EscapeString(string(payload))))
	}
	if d.Note != "" {
		b.WriteString(html.EscapeString(d.Note) + "\n")
	}
	return b.String()
}

// FormatPending lists pending decisions, at most limit of them.
func FormatPending(decisions []model.Decision, limit int) string {
	if len(decisions) == 0 {
		return "✅ No pending decisions."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>%d pending decision(s)</b>\n\n", len(decisions)))
	for i, d := range decisions {
		if i == limit {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(decisions)-limit))
			break
		}
		b.WriteString(fmt.Sprintf("#%d %s/%s ≈ %s\n", d.ID, d.Strategy, d.Action, d.EstimatedValue.StringFixed(8)))
	}
	b.WriteString("\nReply /approve N or /reject N.")
	return b.String()
}

// FormatStatus formats the scheduler status.
func FormatStatus(s scheduler.Status) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏱ <b>Scheduler</b>: %s\n", s.State))
	b.WriteString(fmt.Sprintf("Schedule: %s\nCycles: %d\n", s.Schedule, s.Cycles))
	if s.NextRun != nil {
		b.WriteString(fmt.Sprintf("Next run: %s UTC\n", s.NextRun.UTC().Format("2006-01-02 15:04:05")))
	}
	if s.Last != nil {
		b.WriteString(fmt.Sprintf("Last run: %s UTC (%d failed)\n", s.Last.Started.UTC().Format("2006-01-02 15:04:05"), s.Last.Failed()))
	}
	return b.String()
}

const helpText = `Available commands:
/pending - list decisions awaiting review
/approve N - approve decision N
/reject N - reject decision N
/scan - run a scan now
/status - scheduler state
/totals - earnings totals`
