package pipeline

import "time"

// Window is the half-open time range [Start, End) of a stream processed as one unit.
type Window struct {
	Start time.Time
	End   time.Time
}

// PlanWindow returns the window that begins at the earliest pending message.
// The window spans size but never reaches past now. It reports false when
// the window would be empty, which happens when the message is stamped in the
// future; the stream is then treated as drained.
func PlanWindow(earliest, now time.Time, size time.Duration) (Window, bool) {
	end := earliest.Add(size)
	if now.Before(end) {
		end = now
	}
	if !end.After(earliest) {
		return Window{}, false
	}
	return Window{Start: earliest, End: end}, true
}
