package condition

// Active tracks one applied condition on a participant.
//
// DurationRounds == nil means the condition does not expire via round
// advancement; it persists until explicitly removed. A non-nil duration is
// decremented by exactly 1 each time the owning participant's turn ends and
// the condition is removed the instant it reaches 0.
type Active struct {
	ConditionID    string `json:"condition_id"`
	DurationRounds *int   `json:"duration_in_rounds"`
}

// Set is the ordered list of conditions active on one participant.
//
// Invariant: at most one entry per ConditionID. Order is application order
// and is preserved through JSON round-trips.
//
// A Set is not safe for concurrent use; the combat engine serialises access.
type Set []Active

// Has reports whether the condition with id is currently active.
func (s Set) Has(id string) bool {
	for _, a := range s {
		if a.ConditionID == id {
			return true
		}
	}
	return false
}

// Add appends c unless a condition with the same ConditionID is already
// present, in which case the set is returned unchanged: duplicate application
// is a no-op with no duration refresh.
//
// Postcondition: the returned set satisfies Has(c.ConditionID); the second
// return value reports whether the set changed.
func (s Set) Add(c Active) (Set, bool) {
	if s.Has(c.ConditionID) {
		return s, false
	}
	return append(s, c), true
}

// Remove deletes the condition with the given ID, preserving the order of the
// remaining entries. Removing an absent ID is a no-op.
//
// Postcondition: the returned set does not contain id; the second return
// value reports whether the set changed.
func (s Set) Remove(id string) (Set, bool) {
	for i, a := range s {
		if a.ConditionID == id {
			return append(s[:i], s[i+1:]...), true
		}
	}
	return s, false
}

// Clone returns an independent copy of the set. Duration pointers are
// duplicated so a mutation through either copy never reaches the other.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for i, a := range s {
		if a.DurationRounds != nil {
			d := *a.DurationRounds
			a.DurationRounds = &d
		}
		out[i] = a
	}
	return out
}

// TickRound decrements every finite duration by 1 and drops conditions whose
// duration reaches 0, returning the surviving set and the expired ids.
// Indefinite conditions (nil duration) are untouched.
//
// Postcondition: no surviving condition has a duration <= 0.
func (s Set) TickRound() (Set, []string) {
	var expired []string
	out := s[:0]
	for _, a := range s {
		if a.DurationRounds == nil {
			out = append(out, a)
			continue
		}
		remaining := *a.DurationRounds - 1
		if remaining <= 0 {
			expired = append(expired, a.ConditionID)
			continue
		}
		a.DurationRounds = &remaining
		out = append(out, a)
	}
	return out, expired
}
