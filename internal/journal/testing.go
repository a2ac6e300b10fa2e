package journal

// SeedAttempt is a test helper that installs a completed record when using the
// in-memory journal.
func SeedAttempt(j Journal, attempt Attempt, outcome Outcome) {
	if mem, ok := j.(*inMemoryJournal); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		out := outcome
		mem.records[attempt.ID] = &Record{Attempt: attempt, Outcome: &out}
	}
}
