package session

// historyLimit caps the in-memory import history.
const historyLimit = 50

// recordImport appends one entry, evicting the oldest beyond the cap.
func (s *Session) recordImport(rec ImportRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append(s.history, rec)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
}

// ImportHistory returns a copy of the recent imports, oldest first.
func (s *Session) ImportHistory() []ImportRecord {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	out := make([]ImportRecord, len(s.history))
	copy(out, s.history)
	return out
}
