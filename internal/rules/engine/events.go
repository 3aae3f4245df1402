package engine

import "time"

const (
	StageExecute = "execute"
	StageAudit   = "audit"
)

// Event is a progress notification emitted while a run executes.
type Event struct {
	Rule    string
	Stage   string
	Current int64
	Total   int64
	Message string
	Err     error
	Done    bool
	At      time.Time
}

type Reporter interface {
	Report(Event)
}

type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }
