package game

import (
	"sort"

	"github.com/aaronzipp/link-race/internal/models"
)

// ReadyParticipants are the players whose ready flag gates the end of
// the results phase: everyone who raced and did not quit.
func ReadyParticipants(players []models.Player) []models.PlayerProfile {
	var out []models.PlayerProfile
	for _, p := range players {
		if p.State == models.PlayerConnecting || p.State == models.PlayerQuit {
			continue
		}
		out = append(out, p.Profile)
	}
	return out
}

// CountReadyPlayers counts how many participants are ready
func CountReadyPlayers(ready map[models.PlayerProfile]bool, players []models.Player) int {
	count := 0
	for _, profile := range ReadyParticipants(players) {
		if ready[profile] {
			count++
		}
	}
	return count
}

// ShouldAdvanceResults reports whether every participant is ready
func ShouldAdvanceResults(ready map[models.PlayerProfile]bool, players []models.Player) bool {
	total := len(ReadyParticipants(players))
	return total > 0 && CountReadyPlayers(ready, players) == total
}

// GetReadyPlayerNames returns the names of all ready players, sorted
func GetReadyPlayerNames(ready map[models.PlayerProfile]bool, players []models.Player) []string {
	names := make([]string, 0)
	for _, p := range players {
		if ready[p.Profile] {
			names = append(names, p.Profile.Name)
		}
	}
	sort.Strings(names)
	return names
}
