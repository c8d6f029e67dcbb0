package game

import (
	"sort"
	"time"

	"github.com/aaronzipp/link-race/internal/models"
)

// PageAttributes describe a page relative to the race target
type PageAttributes struct {
	FoundPage  bool
	LinkOnPage bool
	Known      bool // false until the page's outbound links were looked up
}

// Race is one round: its page pair, participants and bonus pool
type Race struct {
	Config      models.RaceConfig
	Players     []models.Player
	BonusPoints int

	linkOnPage map[string]bool
}

// NewRace starts a round with a copy of the current players
func NewRace(config models.RaceConfig, players []models.Player) *Race {
	r := &Race{
		Config:     config,
		Players:    make([]models.Player, 0, len(players)),
		linkOnPage: make(map[string]bool),
	}
	for _, p := range players {
		r.Players = append(r.Players, p.Clone())
	}
	return r
}

// PlayerUpdated replaces the stored snapshot for the player. Players
// unknown at round start are added once they have a race history.
func (r *Race) PlayerUpdated(p models.Player) {
	for i := range r.Players {
		if r.Players[i].Profile == p.Profile {
			r.Players[i] = p.Clone()
			return
		}
	}
	if p.RaceHistory != nil {
		r.Players = append(r.Players, p.Clone())
	}
}

// Player returns the race's snapshot of profile
func (r *Race) Player(profile models.PlayerProfile) (models.Player, bool) {
	for _, p := range r.Players {
		if p.Profile == profile {
			return p.Clone(), true
		}
	}
	return models.Player{}, false
}

// participants are players that took part in the match when the round
// ran; connecting players are spectators.
func (r *Race) participants() []models.Player {
	out := make([]models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.State != models.PlayerConnecting {
			out = append(out, p)
		}
	}
	return out
}

// ShouldEnd reports whether every participant has left the race
func (r *Race) ShouldEnd() bool {
	parts := r.participants()
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !p.State.IsTerminal() {
			return false
		}
	}
	return true
}

// SomeoneFoundPage reports whether any player reached the target
func (r *Race) SomeoneFoundPage() bool {
	for _, p := range r.Players {
		if p.State == models.PlayerFoundPage {
			return true
		}
	}
	return false
}

// CalculatePoints awards finders participants-minus-place points, the
// first finder also taking the bonus pool. Every race player is present.
func (r *Race) CalculatePoints() map[models.PlayerProfile]int {
	points := make(map[models.PlayerProfile]int, len(r.Players))
	var finders []models.Player
	for _, p := range r.Players {
		points[p.Profile] = 0
		if p.State == models.PlayerFoundPage {
			finders = append(finders, p)
		}
	}
	sort.SliceStable(finders, func(i, j int) bool {
		di, dj := finders[i].RaceHistory.ClosedDuration(), finders[j].RaceHistory.ClosedDuration()
		if di != dj {
			return di < dj
		}
		return models.ProfileLess(finders[i].Profile, finders[j].Profile)
	})
	total := len(r.participants())
	for place, p := range finders {
		pts := total - place
		if place == 0 {
			pts += r.BonusPoints
		}
		points[p.Profile] = pts
	}
	return points
}

// ForceEnd moves every player still racing to forcedEnd
func (r *Race) ForceEnd(now time.Time) {
	for i := range r.Players {
		if r.Players[i].State == models.PlayerRacing {
			r.Players[i].SetState(models.PlayerForcedEnd, now)
		}
	}
}

// RecordLinks stores whether page links to the ending page
func (r *Race) RecordLinks(page models.Page, links []models.Page) {
	target := r.Config.EndingPage
	found := false
	for _, l := range links {
		if l.Equal(target) {
			found = true
			break
		}
	}
	r.linkOnPage[page.Key()] = found
}

// Attributes describe page relative to the target
func (r *Race) Attributes(page models.Page) PageAttributes {
	linkOnPage, known := r.linkOnPage[page.Key()]
	return PageAttributes{
		FoundPage:  page.Equal(r.Config.EndingPage),
		LinkOnPage: linkOnPage,
		Known:      known,
	}
}

// Snapshot returns a detached copy of the race
func (r *Race) Snapshot() *Race {
	c := NewRace(r.Config, r.Players)
	c.BonusPoints = r.BonusPoints
	for k, v := range r.linkOnPage {
		c.linkOnPage[k] = v
	}
	return c
}
