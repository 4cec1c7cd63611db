// Package gcodelog contains the pure logic for correlating a command with the
// entries it produced in the printer's gcode response log.
//
// The log is an append-only buffer owned by the printer host. Correlation
// assumes entries are appended in strict timestamp order and that only one
// acquisition is in flight against the log at a time.
package gcodelog

// Entry is one line of the gcode response log.
type Entry struct {
	Time    float64 // host timestamp in seconds
	Message string
	Type    string // "command" or "response"
}

// Chronological returns entries ordered oldest-first.
// A most-recent-first read is reversed; chronological input is returned as is.
func Chronological(entries []Entry) []Entry {
	if len(entries) < 2 || entries[0].Time <= entries[len(entries)-1].Time {
		return entries
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// Baseline returns the timestamp of the newest entry, or 0 for an empty log.
func Baseline(entries []Entry) float64 {
	var newest float64
	for _, e := range entries {
		if e.Time > newest {
			newest = e.Time
		}
	}
	return newest
}

// After returns the entries emitted strictly after baseline, in emission order.
func After(entries []Entry, baseline float64) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Time > baseline {
			out = append(out, e)
		}
	}
	return out
}

// Messages extracts the message text of each entry.
func Messages(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}
