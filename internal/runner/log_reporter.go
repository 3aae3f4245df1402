package runner

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

const defaultProgressInterval = 5 * time.Second

// ruleProgress tracks one rule between its start event and its done event.
type ruleProgress struct {
	startedAt    time.Time
	lastLoggedAt time.Time
	recorded     int64
}

// LogReporter turns engine events into one start line and one summary line
// per rule. Audit writes are logged at most once per ProgressInterval while a
// rule with many findings is being recorded.
type LogReporter struct {
	Logger           *slog.Logger
	ProgressInterval time.Duration

	mu    sync.Mutex
	rules map[string]*ruleProgress
}

func (r *LogReporter) Report(e engine.Event) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := e.At
	if now.IsZero() {
		now = time.Now()
	}

	switch {
	case e.Err != nil:
		p := r.finish(e.Rule)
		logger.Error("rule failed", "rule", e.Rule, "duration", p.elapsed(now), "err", e.Err)
	case e.Done:
		p := r.finish(e.Rule)
		logger.Info("rule complete",
			"rule", e.Rule,
			"issues_found", e.Current,
			"recorded", p.recorded,
			"write_failures", e.Current-p.recorded,
			"duration", p.elapsed(now),
		)
	case e.Stage == engine.StageAudit:
		if r.recordWrite(e.Rule, now) {
			logger.Info("recording findings", "rule", e.Rule, "current", e.Current, "total", e.Total)
		}
	default:
		r.start(e.Rule, now)
		logger.Info("rule started", "rule", e.Rule)
	}
}

func (r *LogReporter) start(rule string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rules == nil {
		r.rules = make(map[string]*ruleProgress)
	}
	r.rules[rule] = &ruleProgress{startedAt: now, lastLoggedAt: now}
}

// recordWrite counts a successful audit write and reports whether enough
// time has passed since the last progress line to log another.
func (r *LogReporter) recordWrite(rule string, now time.Time) bool {
	interval := r.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rules == nil {
		r.rules = make(map[string]*ruleProgress)
	}
	p, ok := r.rules[rule]
	if !ok {
		p = &ruleProgress{startedAt: now, lastLoggedAt: now}
		r.rules[rule] = p
	}
	p.recorded++
	if now.Sub(p.lastLoggedAt) < interval {
		return false
	}
	p.lastLoggedAt = now
	return true
}

// finish drops the rule's state so the next run starts from zero.
func (r *LogReporter) finish(rule string) ruleProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rules[rule]
	if !ok {
		return ruleProgress{}
	}
	delete(r.rules, rule)
	return *p
}

func (p ruleProgress) elapsed(now time.Time) time.Duration {
	if p.startedAt.IsZero() {
		return 0
	}
	return now.Sub(p.startedAt)
}
