package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"YieldSentinel/internal/model"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"
	"YieldSentinel/internal/strategy"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule is used when no schedule is configured.
const DefaultSchedule = "@every 5m"

// State is the externally visible scheduler state.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateStopped  State = "stopped"
)

// StrategySource yields the strategies to run in a cycle.
type StrategySource interface {
	Enabled(ctx context.Context) ([]strategy.Strategy, error)
}

// Approver books auto-approved proposals.
type Approver interface {
	AutoApprove(ctx context.Context, p model.Proposal) error
}

// Observer is told about every finished cycle. ObserveCycle runs on the scan
// loop and must not block on I/O.
type Observer interface {
	ObserveCycle(ctx context.Context, r CycleReport)
}

// Options tune the loop.
type Options struct {
	// Schedule is a cron expression (seconds optional) or descriptor such as "@every 5m".
	Schedule string
	// RunOnStart runs a cycle as soon as the loop starts instead of waiting
	// for the first tick.
	RunOnStart bool
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	State    State        `json:"state"`
	Running  bool         `json:"running"`
	Schedule string       `json:"schedule"`
	Cycles   int64        `json:"cycles"`
	NextRun  *time.Time   `json:"next_run,omitempty"`
	Last     *CycleReport `json:"last,omitempty"`
}

// Scheduler runs scan cycles on a schedule or when nudged.
type Scheduler struct {
	store      store.Store
	settings   *settings.Service
	strategies StrategySource
	approver   Approver
	log        *zap.Logger

	spec       string
	schedule   cron.Schedule
	runOnStart bool
	now        func() time.Time

	// nudge holds at most one pending wake-up; extra nudges collapse into it.
	nudge chan struct{}
	// runMu serializes cycles between the loop and RunOnce callers.
	runMu sync.Mutex

	mu        sync.Mutex
	state     State
	stop      chan struct{}
	done      chan struct{}
	cycles    int64
	next      time.Time
	last      *CycleReport
	observers []Observer
}

// ParseSchedule parses a cron expression with optional seconds field, or a
// descriptor like "@hourly" or "@every 90s".
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return sched, nil
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(opts Options, st store.Store, svc *settings.Service, strategies StrategySource, approver Approver, log *zap.Logger) (*Scheduler, error) {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	sched, err := ParseSchedule(opts.Schedule)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		store:      st,
		settings:   svc,
		strategies: strategies,
		approver:   approver,
		log:        log.Named("scheduler"),
		spec:       opts.Schedule,
		schedule:   sched,
		runOnStart: opts.RunOnStart,
		now:        time.Now,
		nudge:      make(chan struct{}, 1),
		state:      StateStopped,
	}, nil
}

// AddObserver registers o for cycle reports. Call before Start.
func (s *Scheduler) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Start launches the background loop. It returns false if already running.
// Start after Stop is allowed.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return false
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	s.state = StateIdle
	s.mu.Unlock()

	go s.loop(ctx, stop, done)
	s.log.Info("scheduler started", zap.String("schedule", s.spec))
	return true
}

// Stop asks the loop to exit. An in-flight cycle is allowed to finish.
// It returns false if the loop was not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return false
	}
	close(s.stop)
	s.stop = nil
	s.log.Info("scheduler stop requested")
	return true
}

// Wait blocks until the most recently started loop has exited.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Nudge requests an immediate cycle. It never blocks; it returns false when
// a nudge was already pending.
func (s *Scheduler) Nudge() bool {
	select {
	case s.nudge <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns the current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:    s.state,
		Running:  s.stop != nil,
		Schedule: s.spec,
		Cycles:   s.cycles,
		Last:     s.last,
	}
	if st.Running && !s.next.IsZero() {
		next := s.next
		st.NextRun = &next
	}
	return st
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer s.exited(stop)

	first := true
	for {
		if !first || s.runOnStart {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			// The cycle never observes stop or ctx cancellation.
			s.RunOnce(context.WithoutCancel(ctx))
		}
		first = false

		next := s.schedule.Next(s.now())
		s.mu.Lock()
		s.next = next
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-s.nudge:
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
		timer.Stop()
	}
}

func (s *Scheduler) exited(stop <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A newer loop may already own the state.
	if s.stop == nil || s.stop == stop {
		s.stop = nil
		s.state = StateStopped
		s.next = time.Time{}
	}
	s.log.Info("scheduler stopped")
}

// RunOnce runs one full cycle synchronously and returns its report.
func (s *Scheduler) RunOnce(ctx context.Context) CycleReport {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	// This cycle satisfies any nudge queued before it began.
	select {
	case <-s.nudge:
	default:
	}

	s.setState(StateScanning)
	report := s.runCycle(ctx)

	s.mu.Lock()
	s.cycles++
	s.last = &report
	if s.state == StateScanning {
		if s.stop != nil {
			s.state = StateIdle
		} else {
			s.state = StateStopped
		}
	}
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.ObserveCycle(ctx, report)
	}
	return report
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
