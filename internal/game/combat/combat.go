package combat

// Status is the lifecycle state of a combat aggregate.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Combat is the aggregate root for one encounter: identity, the full
// participant roster, and the turn-tracking state that together form the
// persisted snapshot.
//
// ActiveIndex is nil and CurrentRound is 1 until the encounter is started.
type Combat struct {
	ID         string
	CampaignID string
	Name       string
	Status     Status
	// CurrentRound starts at 1 and increments once per full pass through
	// the roster.
	CurrentRound int
	Participants []*Participant
	// ActiveIndex is the roster index of the participant whose turn it is,
	// or nil before the encounter starts.
	ActiveIndex *int
}

// Snapshot is the persisted JSON shape for a combat's mutable state, stored
// alongside CurrentRound and Status on the aggregate record.
type Snapshot struct {
	Participants           []*Participant `json:"participants"`
	ActiveParticipantIndex *int           `json:"active_participant_index"`
}

// Snapshot returns the current serializable state of the combat.
func (c *Combat) Snapshot() Snapshot {
	return Snapshot{
		Participants:           c.Participants,
		ActiveParticipantIndex: c.ActiveIndex,
	}
}

// Participant returns the roster entry with the given id, or nil.
func (c *Combat) Participant(id string) *Participant {
	for _, p := range c.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}
