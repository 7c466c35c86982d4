// Package eventlog records timestamped experiment events append-only.
package eventlog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/oddsearch/internal/model"
)

// Event type constants shared by the trial and experiment machines.
const (
	TypeTrial      = "trial"
	TypeExperiment = "experiment"
	TypeInput      = "input"
	TypeScore      = "score"
)

// ValueKind identifies which payload variant a Record carries.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueScalar
	ValueVec
	ValueTag
)

// String returns the string representation of ValueKind.
func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueScalar:
		return "scalar"
	case ValueVec:
		return "vec"
	case ValueTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Record is one appended event. Exactly one of Scalar, Vec, or Tag is
// meaningful, selected by Kind.
type Record struct {
	Type   string
	Name   string
	At     time.Time
	Kind   ValueKind
	Scalar float64
	Vec    model.Point
	Tag    string
}

// Sink receives records in append order. Delivery guarantees beyond ordering
// and completeness are the sink's concern.
type Sink interface {
	Emit(Record) error
}

// Log is an append-only event record for one experiment run. It is
// constructor-injected into the state machines; appends are safe for
// concurrent use.
type Log struct {
	runID string
	now   func() time.Time

	mu      sync.Mutex
	records []Record
	sinks   []Sink
}

// New returns a Log with a fresh run ID and wall-clock timestamps.
func New() *Log {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Log using the provided clock, for deterministic
// timestamps in tests and simulations.
func NewWithClock(now func() time.Time) *Log {
	return &Log{runID: uuid.NewString(), now: now}
}

// RunID returns the identifier assigned to this run.
func (l *Log) RunID() string {
	return l.runID
}

// AddSink registers a sink notified on every subsequent append.
func (l *Log) AddSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Append records an event with no value.
func (l *Log) Append(typ, name string) {
	l.append(Record{Type: typ, Name: name, Kind: ValueNone})
}

// AppendScalar records an event carrying a scalar value.
func (l *Log) AppendScalar(typ, name string, v float64) {
	l.append(Record{Type: typ, Name: name, Kind: ValueScalar, Scalar: v})
}

// AppendVec records an event carrying a 2D position.
func (l *Log) AppendVec(typ, name string, p model.Point) {
	l.append(Record{Type: typ, Name: name, Kind: ValueVec, Vec: p})
}

// AppendTag records an event carrying a string tag.
func (l *Log) AppendTag(typ, name, tag string) {
	l.append(Record{Type: typ, Name: name, Kind: ValueTag, Tag: tag})
}

func (l *Log) append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r.At = l.now()
	l.records = append(l.records, r)
	for _, s := range l.sinks {
		if err := s.Emit(r); err != nil {
			// Sink failures must not disturb the run; the in-memory
			// record remains authoritative.
			_ = err
		}
	}
}

// Records returns a snapshot copy of all appended records.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of appended records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
