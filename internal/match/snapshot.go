package match

import (
	"context"

	"github.com/aaronzipp/link-race/internal/models"
)

// Snapshot is a read-only copy of the coordinator's state
type Snapshot struct {
	State       models.GameState
	IsHost      bool
	Local       models.Player
	Players     []models.Player
	VoteInfo    *models.VoteInfo
	RaceConfig  *models.RaceConfig
	BonusPoints int
	Results     *models.ResultsInfo // the host's results, else the local view
	HostResults bool
	Ready       []models.PlayerProfile
	Rounds      int
}

// Snapshot returns the current state. It is answered by the loop so it
// reflects every input queued before it.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	errc := make(chan error, 1)
	work := func() {
		s = c.snapshot()
		errc <- nil
	}
	select {
	case c.inbox <- work:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
	select {
	case <-errc:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
}

func (c *Coordinator) snapshot() Snapshot {
	s := Snapshot{
		State:   c.state,
		IsHost:  c.cfg.IsHost,
		Local:   c.local.Clone(),
		Players: c.roster.Players(),
		Rounds:  len(c.completed),
	}
	if c.preRace != nil {
		v := c.preRace.VoteInfo.Clone()
		s.VoteInfo = &v
	}
	if c.raceConfig != nil {
		rc := *c.raceConfig
		s.RaceConfig = &rc
	}
	if c.active != nil {
		s.BonusPoints = c.active.BonusPoints
	}
	switch {
	case c.results != nil:
		r := *c.results
		s.Results = &r
		s.HostResults = true
	case c.localResults != nil:
		r := *c.localResults
		s.Results = &r
	}
	for _, p := range s.Players {
		if c.ready[p.Profile] {
			s.Ready = append(s.Ready, p.Profile)
		}
	}
	return s
}
