package sse

// SSE event type constants
const (
	EventPhase        = "phase"
	EventPlayerUpdate = "player-update"
	EventControls     = "controls-update"
	EventVoteUpdate   = "vote-update"
	EventRaceConfig   = "race-config"
	EventBonus        = "bonus-update"
	EventCountdown    = "countdown"
	EventResults      = "results-update"
	EventReadyCount   = "ready-count"
	EventNotice       = "notice"
	EventSamePage     = "same-page"
	EventStats        = "stats"
	EventErrorMessage = "error-message"
)

// replayOrder lists the events a new client receives on connect.
// Transient notices are not replayed.
var replayOrder = []string{
	EventPhase,
	EventPlayerUpdate,
	EventControls,
	EventVoteUpdate,
	EventRaceConfig,
	EventBonus,
	EventResults,
	EventReadyCount,
	EventStats,
}
