package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase names one stage of an analysis run
type Phase string

const (
	PhaseWalk      Phase = "walk"
	PhaseHash      Phase = "hash"
	PhaseClassify  Phase = "classify"
	PhaseStructure Phase = "structure"
	PhaseReport    Phase = "report"
	PhaseCompress  Phase = "compress"
)

// Reporter receives progress of an analysis run.
// Implementations must be safe for concurrent use; hashing reports from workers.
type Reporter interface {
	// Begin starts a phase; total is 0 when the item count is unknown
	Begin(phase Phase, total int)
	// Advance records one finished item of the current phase
	Advance(phase Phase, bytes int64)
	// Event reports a notable finding (duplicate group, candidate...)
	Event(phase Phase, message string)
	// Error reports a skipped item
	Error(phase Phase, path string, err error)
	// End finishes a phase
	End(phase Phase)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type  UpdateType
	Phase Phase

	Done  int
	Total int
	Bytes int64

	ItemsPerSecond float64

	Message string
	Path    string
	Error   error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateBegin UpdateType = iota
	UpdateAdvance
	UpdateEvent
	UpdateError
	UpdateEnd
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback Callback

	mu        sync.Mutex
	phase     Phase
	done      int
	total     int
	bytes     int64
	startTime time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{callback: callback}
}

// emit calls the callback outside the lock so callbacks may re-enter the reporter
func (r *CallbackReporter) emit(build func() Update) {
	r.mu.Lock()
	update := build()
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Begin starts a phase
func (r *CallbackReporter) Begin(phase Phase, total int) {
	r.emit(func() Update {
		r.phase = phase
		r.done = 0
		r.total = total
		r.bytes = 0
		r.startTime = time.Now()
		return Update{Type: UpdateBegin, Phase: phase, Total: total}
	})
}

// Advance records one finished item
func (r *CallbackReporter) Advance(phase Phase, bytes int64) {
	r.emit(func() Update {
		r.done++
		r.bytes += bytes

		var rate float64
		if elapsed := time.Since(r.startTime).Seconds(); elapsed > 0 {
			rate = float64(r.done) / elapsed
		}
		return Update{
			Type:           UpdateAdvance,
			Phase:          phase,
			Done:           r.done,
			Total:          r.total,
			Bytes:          r.bytes,
			ItemsPerSecond: rate,
		}
	})
}

// Event reports a notable finding
func (r *CallbackReporter) Event(phase Phase, message string) {
	r.emit(func() Update {
		return Update{Type: UpdateEvent, Phase: phase, Message: message, Done: r.done, Total: r.total}
	})
}

// Error reports a skipped item
func (r *CallbackReporter) Error(phase Phase, path string, err error) {
	r.emit(func() Update {
		return Update{Type: UpdateError, Phase: phase, Path: path, Error: err, Done: r.done, Total: r.total}
	})
}

// End finishes a phase
func (r *CallbackReporter) End(phase Phase) {
	r.emit(func() Update {
		return Update{Type: UpdateEnd, Phase: phase, Done: r.done, Total: r.total, Bytes: r.bytes}
	})
}

// NewConsoleReporter writes human-readable progress lines to w (normally stderr).
// Advance lines are throttled to every `every` items plus the final one.
func NewConsoleReporter(w io.Writer, every int) *CallbackReporter {
	if every <= 0 {
		every = 100
	}
	var mu sync.Mutex
	return NewCallbackReporter(func(u Update) {
		line := formatLine(u, every)
		if line == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, line)
	})
}

func formatLine(u Update, every int) string {
	switch u.Type {
	case UpdateBegin:
		if u.Total > 0 {
			return fmt.Sprintf("[%s] starting (%d items)", u.Phase, u.Total)
		}
		return fmt.Sprintf("[%s] starting", u.Phase)
	case UpdateAdvance:
		if u.Done%every != 0 && u.Done != u.Total {
			return ""
		}
		if u.Total > 0 {
			return fmt.Sprintf("[%s] %s %d/%d", u.Phase, FormatProgress(int64(u.Done), int64(u.Total), 20), u.Done, u.Total)
		}
		return fmt.Sprintf("[%s] %d items, %s", u.Phase, u.Done, humanize.IBytes(uint64(u.Bytes)))
	case UpdateEvent:
		return fmt.Sprintf("[%s] %s", u.Phase, u.Message)
	case UpdateError:
		return fmt.Sprintf("[%s] skipped %s: %v", u.Phase, u.Path, u.Error)
	case UpdateEnd:
		return fmt.Sprintf("[%s] done: %d items, %s", u.Phase, u.Done, humanize.IBytes(uint64(u.Bytes)))
	}
	return ""
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) Begin(Phase, int)           {}
func (NullReporter) Advance(Phase, int64)       {}
func (NullReporter) Event(Phase, string)        {}
func (NullReporter) Error(Phase, string, error) {}
func (NullReporter) End(Phase)                  {}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			bar[i] = '='
		case i == filled:
			bar[i] = '>'
		default:
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
