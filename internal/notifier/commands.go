package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/scheduler"
	"YieldSentinel/internal/store"
)

const pendingListLimit = 10

// Reviewer approves and rejects decisions.
type Reviewer interface {
	Approve(ctx context.Context, id int64) (bool, error)
	Reject(ctx context.Context, id int64) (bool, error)
	Pending(ctx context.Context) ([]model.Decision, error)
}

// Scanner is the part of the scheduler the bot drives.
type Scanner interface {
	Nudge() bool
	Status() scheduler.Status
}

// TotalsReader reads the headline totals.
type TotalsReader interface {
	Totals(ctx context.Context, now time.Time) (store.Totals, error)
}

// Commands answers chat commands.
type Commands struct {
	Reviewer Reviewer
	Scanner  Scanner
	Totals   TotalsReader
}

// HandleCommand processes a user command and returns a reply.
func (c *Commands) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return helpText
	}
	command := fields[0]
	// Group chats address commands as /cmd@botname.
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	args := fields[1:]

	switch command {
	case "/pending":
		list, err := c.Reviewer.Pending(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Failed to load decisions: %v", err)
		}
		return FormatPending(list, pendingListLimit)
	case "/approve":
		return c.review(ctx, args, true)
	case "/reject":
		return c.review(ctx, args, false)
	case "/scan":
		if c.Scanner.Nudge() {
			return "🔄 Scan requested."
		}
		return "🔄 A scan is already queued."
	case "/status":
		return FormatStatus(c.Scanner.Status())
	case "/totals":
		t, err := c.Totals.Totals(ctx, time.Now())
		if err != nil {
			return fmt.Sprintf("❌ Failed to load totals: %v", err)
		}
		return FormatTotals(t)
	default:
		return helpText
	}
}

func (c *Commands) review(ctx context.Context, args []string, approve bool) string {
	if len(args) != 1 {
		return "Usage: /approve N or /reject N"
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Sprintf("⚠️ %q is not a decision number.", args[0])
	}
	return c.Review(ctx, id, approve)
}

// Review applies one approve/reject and describes the outcome.
func (c *Commands) Review(ctx context.Context, id int64, approve bool) string {
	var (
		ok   bool
		err  error
		verb = "rejected"
	)
	if approve {
		verb = "approved"
		ok, err = c.Reviewer.Approve(ctx, id)
	} else {
		ok, err = c.Reviewer.Reject(ctx, id)
	}
	switch {
	case err != nil:
		return fmt.Sprintf("❌ Decision #%d: %v", id, err)
	case !ok:
		return fmt.Sprintf("⚠️ Decision #%d is missing or already reviewed.", id)
	case approve:
		return fmt.Sprintf("✅ Decision #%d %s.", id, verb)
	default:
		return fmt.Sprintf("🚫 Decision #%d %s.", id, verb)
	}
}

// Callback data for the inline review buttons.
const (
	callbackApprove = "APPROVE"
	callbackReject  = "REJECT"
)

func callbackData(verb string, id int64) string {
	return verb + "::" + strconv.FormatInt(id, 10)
}

// parseCallback splits "VERB::id". ok is false for anything else.
func parseCallback(data string) (approve bool, id int64, ok bool) {
	verb, rest, found := strings.Cut(data, "::")
	if !found {
		return false, 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return false, 0, false
	}
	switch verb {
	case callbackApprove:
		return true, id, true
	case callbackReject:
		return false, id, true
	}
	return false, 0, false
}
