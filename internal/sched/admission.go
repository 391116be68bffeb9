package sched

// Admit selects which candidates are actually scheduled under the producer's
// sub-budget. It keeps the generator's defined ordering (weekday order for
// routines, soonest-first for expiry) and returns a prefix of at most budget
// candidates. Everything beyond the budget is silently dropped; that is the
// expected outcome of scarcity, not an error.
func Admit(cands []Candidate, budget int) []Candidate {
	if budget <= 0 {
		return nil
	}
	if len(cands) <= budget {
		return cands
	}
	return cands[:budget:budget]
}
