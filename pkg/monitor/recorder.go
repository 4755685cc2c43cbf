package monitor

import (
	"sync"
	"time"
)

// TickRecorder records the times of the last N ticks.
type TickRecorder struct {
	MaxRecordCount int
	// Interval is the expected time between two ticks.
	Interval  time.Duration
	TickTimes []time.Time
	mu        *sync.Mutex
}

// NewTickRecorder returns a new TickRecorder.
func NewTickRecorder(maxRecordCount int, interval time.Duration) *TickRecorder {
	return &TickRecorder{
		MaxRecordCount: maxRecordCount,
		Interval:       interval,
		TickTimes:      make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecordNow adds a new record with the current time.
func (r *TickRecorder) AddRecordNow() {
	r.AddRecord(time.Now())
}

// AddRecord adds a new record.
func (r *TickRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Round to strip monotonic clock reading.
	// This will prevent time.Since from returning values that are not accurate (especially when the system is in sleep mode).
	t = t.Round(0)

	if len(r.TickTimes) >= r.MaxRecordCount {
		r.TickTimes = r.TickTimes[1:]
	}
	r.TickTimes = append(r.TickTimes, t)
}

// SetInterval changes the expected tick interval and clears the records,
// since records taken with the old interval would read as gaps.
func (r *TickRecorder) SetInterval(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Interval = interval
	r.TickTimes = make([]time.Time, 0)
}

// GetRecordsIn returns the number of continuous records in the last duration.
func (r *TickRecorder) GetRecordsIn(last time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The slack allowed between two adjacent records.
	gap := r.Interval + r.Interval/2

	// The last record must be within the last duration.
	if len(r.TickTimes) > 0 && time.Since(r.TickTimes[len(r.TickTimes)-1]) >= gap {
		return 0
	}

	// Find continuous records from the end of the list.
	count := 0
	for i := len(r.TickTimes) - 1; i >= 0; i-- {
		record := r.TickTimes[i]
		if time.Since(record) > last {
			break
		}

		theRecordAfter := record
		if i+1 < len(r.TickTimes) {
			theRecordAfter = r.TickTimes[i+1]
		}

		if theRecordAfter.Sub(record) >= gap {
			break
		}
		count++
	}

	return count
}

// GetLastRecord returns the last record.
func (r *TickRecorder) GetLastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.TickTimes) == 0 {
		return time.Time{}
	}

	return r.TickTimes[len(r.TickTimes)-1]
}

// MissedTicks reports whether fewer ticks than expected happened within the
// last window. It returns false until a full window has been recorded.
func (r *TickRecorder) MissedTicks(window time.Duration) bool {
	r.mu.Lock()
	interval := r.Interval
	var first time.Time
	if len(r.TickTimes) > 0 {
		first = r.TickTimes[0]
	}
	r.mu.Unlock()

	if interval <= 0 || first.IsZero() || time.Since(first) < window {
		return false
	}

	expected := int(window / interval)
	return r.GetRecordsIn(window) < expected-1
}
