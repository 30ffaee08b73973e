package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is the terminal state of a processing job.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Record describes one finished job. Records are the only job state the
// daemon keeps; they feed the status API and the websocket event stream and
// are never persisted.
type Record struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Output    string    `json:"output,omitempty"`
	Kind      string    `json:"kind"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`   // skip reason or failure message
	Strategy  string    `json:"strategy,omitempty"` // escaping strategy for video commits
	DurationS float64   `json:"durationSeconds,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives every finished record. The websocket hub implements it.
type Notifier interface {
	NotifyJob(Record)
}

// Recorder keeps a bounded in-memory history of recent job records and fans
// them out to an optional notifier.
type Recorder struct {
	mu       sync.RWMutex
	records  []Record // newest first
	capacity int
	notifier Notifier
	logger   *zap.Logger
}

// NewRecorder creates a recorder holding up to capacity records. notifier
// may be nil.
func NewRecorder(capacity int, notifier Notifier, logger *zap.Logger) *Recorder {
	if capacity <= 0 {
		capacity = 100
	}
	return &Recorder{
		capacity: capacity,
		notifier: notifier,
		logger:   logger,
	}
}

// Add stamps the record with an ID and timestamp, stores it, and notifies.
// The stamped record is returned.
func (r *Recorder) Add(rec Record) Record {
	rec.ID = uuid.New().String()
	rec.Timestamp = time.Now().UTC()

	r.mu.Lock()
	r.records = append([]Record{rec}, r.records...)
	if len(r.records) > r.capacity {
		r.records = r.records[:r.capacity]
	}
	r.mu.Unlock()

	if r.notifier != nil {
		r.notifier.NotifyJob(rec)
	}
	return rec
}

// Recent returns up to limit records, newest first. limit <= 0 returns all
// retained records.
func (r *Recorder) Recent(limit int) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, n)
	copy(out, r.records[:n])
	return out
}
