// Package usage accumulates per-invocation token and cost accounting for
// LLM calls. A Recorder is safe for concurrent use and can be serialized
// for session reports.
package usage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record captures a single completed LLM invocation.
type Record struct {
	ID           uuid.UUID     `json:"id"`
	Vendor       string        `json:"vendor"`
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Cost         float64       `json:"cost"`
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Totals aggregates token consumption and cost across recorded invocations.
type Totals struct {
	Requests     int           `json:"requests"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	TotalTokens  int           `json:"total_tokens"`
	Cost         float64       `json:"cost"`
	Duration     time.Duration `json:"duration"`
}

// Recorder accumulates invocation records for one session.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends an invocation record. A zero ID or Timestamp is filled in.
func (r *Recorder) Add(rec Record) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of all recorded invocations in insertion order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Totals returns the aggregate consumption across all recorded invocations.
func (r *Recorder) Totals() Totals {
	return totalsOf(r.Records())
}

func totalsOf(recs []Record) Totals {
	var t Totals
	for _, rec := range recs {
		t.Requests++
		t.InputTokens += rec.InputTokens
		t.OutputTokens += rec.OutputTokens
		t.TotalTokens += rec.InputTokens + rec.OutputTokens
		t.Cost += rec.Cost
		t.Duration += rec.Duration
	}
	return t
}

// report is the serialized shape of a Recorder.
type report struct {
	Records []Record `json:"records"`
	Totals  Totals   `json:"totals"`
}

// JSON serializes the records and their totals to indented JSON bytes.
func (r *Recorder) JSON() ([]byte, error) {
	recs := r.Records()
	return json.MarshalIndent(report{
		Records: recs,
		Totals:  totalsOf(recs),
	}, "", "  ")
}
