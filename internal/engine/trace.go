package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/bayesq/internal/predicate"
)

// Tracer observes intermediate results. It is informational only and never
// changes a return value.
//
// Implementations must be safe for concurrent use when the Engine is
// shared across goroutines.
type Tracer interface {
	// PredicateEvaluated reports the size of one predicate's row set.
	PredicateEvaluated(p predicate.Predicate, matched int, cached bool)

	// ConditionIntersected reports step n of a conditional: the condition's
	// own row count and the size of the running intersection after it.
	ConditionIntersected(step int, p predicate.Predicate, matched, remaining int)

	// ShortCircuited reports that the running intersection became empty at
	// step, so the next skipped conditions were not evaluated.
	ShortCircuited(step, skipped int)
}

// NopTracer discards all events.
type NopTracer struct{}

func (NopTracer) PredicateEvaluated(predicate.Predicate, int, bool) {}

func (NopTracer) ConditionIntersected(int, predicate.Predicate, int, int) {}

func (NopTracer) ShortCircuited(int, int) {}

// SlogTracer writes events to an injected slog.Logger at debug level.
type SlogTracer struct {
	Logger *slog.Logger
}

// NewSlogTracer creates a SlogTracer. A nil logger uses slog.Default().
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracer{Logger: logger}
}

func (t *SlogTracer) PredicateEvaluated(p predicate.Predicate, matched int, cached bool) {
	t.Logger.Debug("predicate evaluated",
		"predicate", p.String(),
		"matched", matched,
		"cached", cached,
	)
}

func (t *SlogTracer) ConditionIntersected(step int, p predicate.Predicate, matched, remaining int) {
	t.Logger.Debug("condition intersected",
		"step", step,
		"predicate", p.String(),
		"matched", matched,
		"remaining", remaining,
	)
}

func (t *SlogTracer) ShortCircuited(step, skipped int) {
	t.Logger.Debug("conditioning set empty, skipping remaining conditions",
		"step", step,
		"skipped", skipped,
	)
}

// Trace event types recorded by Recorder.
const (
	EventPredicate    = "predicate"
	EventIntersect    = "intersect"
	EventShortCircuit = "short_circuit"
)

// TraceEvent is one recorded tracer callback.
type TraceEvent struct {
	Type      string `json:"type"`
	Step      int    `json:"step,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Matched   int    `json:"matched"`
	Remaining int    `json:"remaining,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

// Recorder collects events in call order. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PredicateEvaluated(p predicate.Predicate, matched int, cached bool) {
	r.add(TraceEvent{Type: EventPredicate, Predicate: p.String(), Matched: matched, Cached: cached})
}

func (r *Recorder) ConditionIntersected(step int, p predicate.Predicate, matched, remaining int) {
	r.add(TraceEvent{Type: EventIntersect, Step: step, Predicate: p.String(), Matched: matched, Remaining: remaining})
}

func (r *Recorder) ShortCircuited(step, skipped int) {
	r.add(TraceEvent{Type: EventShortCircuit, Step: step, Skipped: skipped})
}

func (r *Recorder) add(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Tee fans every event out to each tracer in order. Nil tracers are skipped.
func Tee(tracers ...Tracer) Tracer {
	var live multiTracer
	for _, t := range tracers {
		if t != nil {
			live = append(live, t)
		}
	}
	switch len(live) {
	case 0:
		return NopTracer{}
	case 1:
		return live[0]
	default:
		return live
	}
}

type multiTracer []Tracer

func (m multiTracer) PredicateEvaluated(p predicate.Predicate, matched int, cached bool) {
	for _, t := range m {
		t.PredicateEvaluated(p, matched, cached)
	}
}

func (m multiTracer) ConditionIntersected(step int, p predicate.Predicate, matched, remaining int) {
	for _, t := range m {
		t.ConditionIntersected(step, p, matched, remaining)
	}
}

func (m multiTracer) ShortCircuited(step, skipped int) {
	for _, t := range m {
		t.ShortCircuited(step, skipped)
	}
}
