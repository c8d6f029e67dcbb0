package game

import "github.com/aaronzipp/link-race/internal/models"

// SessionPoints sums every round's points per player. The active race,
// when non-nil, contributes its in-progress points.
func SessionPoints(completed []*Race, active *Race) map[models.PlayerProfile]int {
	totals := make(map[models.PlayerProfile]int)
	add := func(r *Race) {
		for profile, pts := range r.CalculatePoints() {
			totals[profile] += pts
		}
	}
	for _, r := range completed {
		add(r)
	}
	if active != nil {
		add(active)
	}
	return totals
}

// BuildResults assembles the scoreboard for the current round. When no
// race is active the last completed one is shown; fallback supplies the
// player list before any race has run.
func BuildResults(completed []*Race, active *Race, fallback []models.Player) models.ResultsInfo {
	current := active
	if current == nil && len(completed) > 0 {
		current = completed[len(completed)-1]
	}

	info := models.ResultsInfo{
		SessionPoints: SessionPoints(completed, active),
		RacePoints:    make(map[models.PlayerProfile]int),
	}
	if current == nil {
		for _, p := range fallback {
			info.Players = append(info.Players, p.Clone())
			info.RacePoints[p.Profile] = 0
		}
		return info
	}
	for _, p := range current.Players {
		info.Players = append(info.Players, p.Clone())
	}
	info.RacePoints = current.CalculatePoints()
	return info
}

// VotingWeights are session points for every voter, defaulting to 0
func VotingWeights(completed []*Race, players []models.Player) map[models.PlayerProfile]int {
	weights := SessionPoints(completed, nil)
	for _, p := range players {
		if _, ok := weights[p.Profile]; !ok {
			weights[p.Profile] = 0
		}
	}
	return weights
}
