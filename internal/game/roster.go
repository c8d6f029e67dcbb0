package game

import "github.com/aaronzipp/link-race/internal/models"

// Roster is the authoritative player table of a match. Entries are
// replaced wholesale by incoming snapshots; it is not safe for
// concurrent use and is owned by the coordinator.
type Roster struct {
	players []models.Player
	index   map[models.PlayerProfile]int
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{index: make(map[models.PlayerProfile]int)}
}

// Upsert inserts or replaces the snapshot for p.Profile. A snapshot
// older than the stored one (lower Seq) is dropped and false returned.
func (r *Roster) Upsert(p models.Player) bool {
	if i, ok := r.index[p.Profile]; ok {
		if r.players[i].Seq > p.Seq {
			return false
		}
		r.players[i] = p.Clone()
		return true
	}
	r.index[p.Profile] = len(r.players)
	r.players = append(r.players, p.Clone())
	return true
}

// Get returns a copy of the stored snapshot
func (r *Roster) Get(profile models.PlayerProfile) (models.Player, bool) {
	i, ok := r.index[profile]
	if !ok {
		return models.Player{}, false
	}
	return r.players[i].Clone(), true
}

// Contains reports whether profile has been seen
func (r *Roster) Contains(profile models.PlayerProfile) bool {
	_, ok := r.index[profile]
	return ok
}

// Players returns copies of every snapshot in arrival order
func (r *Roster) Players() []models.Player {
	out := make([]models.Player, len(r.players))
	for i, p := range r.players {
		out[i] = p.Clone()
	}
	return out
}

// Len is the number of known players
func (r *Roster) Len() int {
	return len(r.players)
}

// InState returns the profiles currently in state s
func (r *Roster) InState(s models.PlayerState) []models.PlayerProfile {
	var out []models.PlayerProfile
	for _, p := range r.players {
		if p.State == s {
			out = append(out, p.Profile)
		}
	}
	return out
}
