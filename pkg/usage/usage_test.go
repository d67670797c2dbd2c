package usage

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRecorderAdd(t *testing.T) {
	r := NewRecorder()

	r.Add(Record{
		Vendor:       "claude",
		Model:        "claude-sonnet-4-5",
		InputTokens:  100,
		OutputTokens: 50,
		Cost:         0.001,
		Duration:     200 * time.Millisecond,
	})

	recs := r.Records()
	if len(recs) != 1 {
		t.Fatalf("Records() length = %d, want 1", len(recs))
	}

	rec := recs[0]
	if rec.ID == uuid.Nil {
		t.Error("ID should be filled in when zero")
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp should be filled in when zero")
	}
	if rec.Vendor != "claude" {
		t.Errorf("Vendor = %q, want %q", rec.Vendor, "claude")
	}
	if rec.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q, want %q", rec.Model, "claude-sonnet-4-5")
	}
}

func TestRecorderAdd_KeepsExplicitID(t *testing.T) {
	r := NewRecorder()
	id := uuid.New()
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r.Add(Record{ID: id, Timestamp: when, Vendor: "gemini", Model: "gemini-2.5-pro"})

	rec := r.Records()[0]
	if rec.ID != id {
		t.Errorf("ID = %v, want %v", rec.ID, id)
	}
	if !rec.Timestamp.Equal(when) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, when)
	}
}

func TestRecorderTotals(t *testing.T) {
	r := NewRecorder()

	r.Add(Record{Vendor: "claude", Model: "m", InputTokens: 100, OutputTokens: 50, Cost: 0.5, Duration: time.Second})
	r.Add(Record{Vendor: "gemini", Model: "m", InputTokens: 200, OutputTokens: 80, Cost: 0.25, Duration: 2 * time.Second})

	totals := r.Totals()
	if totals.Requests != 2 {
		t.Errorf("Requests = %d, want 2", totals.Requests)
	}
	if totals.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300", totals.InputTokens)
	}
	if totals.OutputTokens != 130 {
		t.Errorf("OutputTokens = %d, want 130", totals.OutputTokens)
	}
	if totals.TotalTokens != 430 {
		t.Errorf("TotalTokens = %d, want 430", totals.TotalTokens)
	}
	if totals.Cost != 0.75 {
		t.Errorf("Cost = %f, want 0.75", totals.Cost)
	}
	if totals.Duration != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", totals.Duration)
	}
}

func TestRecorderTotals_Empty(t *testing.T) {
	r := NewRecorder()
	if totals := r.Totals(); totals != (Totals{}) {
		t.Errorf("Totals() = %+v, want zero value", totals)
	}
}

func TestRecorderJSON(t *testing.T) {
	r := NewRecorder()
	r.Add(Record{Vendor: "chatgpt", Model: "gpt-5", InputTokens: 10, OutputTokens: 5})

	data, err := r.JSON()
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}

	recs, ok := decoded["records"].([]interface{})
	if !ok {
		t.Fatal("records field missing or wrong type")
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 record in JSON, got %d", len(recs))
	}

	totals, ok := decoded["totals"].(map[string]interface{})
	if !ok {
		t.Fatal("totals field missing or wrong type")
	}
	if totals["total_tokens"].(float64) != 15 {
		t.Errorf("total_tokens = %v, want 15", totals["total_tokens"])
	}
}

func TestRecordsCopySafety(t *testing.T) {
	r := NewRecorder()
	r.Add(Record{Vendor: "original"})

	recs := r.Records()
	recs[0].Vendor = "modified"

	// Verify original is unchanged.
	if got := r.Records()[0].Vendor; got != "original" {
		t.Error("Records should return a copy, not a reference to internal data")
	}
}

func TestRecorderConcurrentAccess(t *testing.T) {
	r := NewRecorder()

	const goroutines = 50
	const opsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines * 2) // writers and readers

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				r.Add(Record{Vendor: "claude", Model: "m", InputTokens: 1, OutputTokens: 1})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				r.Totals()
				r.Records()
			}
		}()
	}

	wg.Wait()

	totals := r.Totals()
	if totals.Requests != goroutines*opsPerGoroutine {
		t.Errorf("Requests = %d, want %d", totals.Requests, goroutines*opsPerGoroutine)
	}
	if totals.TotalTokens != goroutines*opsPerGoroutine*2 {
		t.Errorf("TotalTokens = %d, want %d", totals.TotalTokens, goroutines*opsPerGoroutine*2)
	}
}
