package models

import "sort"

// ResultsInfo is a recomputable snapshot of one round's outcome
type ResultsInfo struct {
	Players       []Player              `json:"players"`
	RacePoints    map[PlayerProfile]int `json:"racePoints"`
	SessionPoints map[PlayerProfile]int `json:"sessionPoints"`
}

// PlayerPoints pairs a profile with a point total
type PlayerPoints struct {
	Profile PlayerProfile `json:"profile"`
	Points  int           `json:"points"`
}

// Player looks up a race player by profile
func (r *ResultsInfo) Player(profile PlayerProfile) (Player, bool) {
	for _, p := range r.Players {
		if p.Profile == profile {
			return p, true
		}
	}
	return Player{}, false
}

// RaceRewardPoints is what profile earned this round
func (r *ResultsInfo) RaceRewardPoints(profile PlayerProfile) int {
	return r.RacePoints[profile]
}

// PagesViewed is the number of pages profile visited this round
func (r *ResultsInfo) PagesViewed(profile PlayerProfile) int {
	p, ok := r.Player(profile)
	if !ok {
		return 0
	}
	return p.PagesViewed()
}

// RaceRankings orders finders first, then by closed race duration.
// Players who never raced sort last.
func (r *ResultsInfo) RaceRankings() []Player {
	ranked := make([]Player, len(r.Players))
	copy(ranked, r.Players)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ca, cb := rankClass(a), rankClass(b); ca != cb {
			return ca < cb
		}
		if da, db := a.RaceHistory.ClosedDuration(), b.RaceHistory.ClosedDuration(); da != db {
			return da < db
		}
		return ProfileLess(a.Profile, b.Profile)
	})
	return ranked
}

// Place returns the 1-based finishing place of a finder
func (r *ResultsInfo) Place(profile PlayerProfile) (int, bool) {
	for i, p := range r.RaceRankings() {
		if p.Profile == profile {
			if p.State != PlayerFoundPage {
				return 0, false
			}
			return i + 1, true
		}
	}
	return 0, false
}

// SessionRankings orders every known player by session points
func (r *ResultsInfo) SessionRankings() []PlayerPoints {
	totals := make(map[PlayerProfile]int, len(r.SessionPoints))
	for _, p := range r.Players {
		totals[p.Profile] = 0
	}
	for profile, pts := range r.SessionPoints {
		totals[profile] = pts
	}
	list := make([]PlayerPoints, 0, len(totals))
	for profile, pts := range totals {
		list = append(list, PlayerPoints{Profile: profile, Points: pts})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		return ProfileLess(list[i].Profile, list[j].Profile)
	})
	return list
}

func rankClass(p Player) int {
	switch {
	case p.State == PlayerFoundPage:
		return 0
	case p.RaceHistory != nil:
		return 1
	default:
		return 2
	}
}

// ProfileLess is the deterministic tie-break order for players
func ProfileLess(a, b PlayerProfile) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.PlayerID < b.PlayerID
}
