package match

import "github.com/aaronzipp/link-race/internal/models"

// EventKind tags what changed
type EventKind string

const (
	EventState         EventKind = "state"
	EventPlayers       EventKind = "players"
	EventVoteInfo      EventKind = "voteInfo"
	EventRaceConfig    EventKind = "raceConfig"
	EventBonusPoints   EventKind = "bonusPoints"
	EventLocalResults  EventKind = "localResults"
	EventHostResults   EventKind = "hostResults"
	EventReadyStates   EventKind = "readyStates"
	EventRemainingTime EventKind = "remainingTime"
	EventPlayerMessage EventKind = "playerMessage"
	EventSamePage      EventKind = "samePage"
	EventPlayerStats   EventKind = "playerStats"
	EventError         EventKind = "error"
)

// Event is one outbound notification. Only the fields for Kind are set.
type Event struct {
	Kind EventKind

	State      models.GameState
	Players    []models.Player
	VoteInfo   *models.VoteInfo
	RaceConfig *models.RaceConfig
	Results    *models.ResultsInfo

	// BonusPoints or the remaining seconds of a countdown
	Value     int
	Countdown models.IntType

	From     models.PlayerProfile
	Message  models.PlayerMessage
	Profiles []models.PlayerProfile

	Stats *PlayerStats

	Err   error
	Fatal bool
}

// PlayerStats summarise the local player's last race
type PlayerStats struct {
	Points         int
	Place          int // 0 when the page was not found
	Pages          int
	PixelsScrolled int
}
