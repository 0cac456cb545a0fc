package tune

// Session is the caller-owned run history for one tuning session. It
// grows by exactly one RunRecord per SuggestNext call, whether or not
// the underlying invocation succeeds, and only Reset empties it.
//
// A Session is built for sequential single-caller use; concurrent
// SuggestNext calls against one Session race on the record sequence.
// History is unbounded: a long-running session accumulates records
// until the caller resets or discards it.
type Session struct {
	records []RunRecord
}

func NewSession() *Session {
	return &Session{}
}

// Records returns a snapshot copy of the run history in append order.
// Mutating the returned slice does not affect the session.
func (s *Session) Records() []RunRecord {
	snapshot := make([]RunRecord, len(s.records))
	copy(snapshot, s.records)
	return snapshot
}

// Len reports the number of recorded runs.
func (s *Session) Len() int {
	return len(s.records)
}

// Reset empties the history, starting a fresh tuning session.
func (s *Session) Reset() {
	s.records = nil
}

// append adds a record and returns its index for a later fill. The
// record is in place before any external call completes, so the
// history reflects attempted runs, not only successful ones.
func (s *Session) append(record RunRecord) int {
	s.records = append(s.records, record)
	return len(s.records) - 1
}

// fill patches the deferred NextInstruction field of an appended
// record. Called only after the suggestion call succeeds with a
// non-empty result; on failure the field stays empty.
func (s *Session) fill(index int, next string) {
	s.records[index].NextInstruction = next
}
