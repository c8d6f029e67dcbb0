package models

// GameState represents the current phase of the match
type GameState string

const (
	StatePreMatch    GameState = "preMatch"
	StateVoting      GameState = "voting"
	StateRace        GameState = "race"
	StateResults     GameState = "results"
	StateHostResults GameState = "hostResults"
	StateMatchOver   GameState = "matchOver"
)

// PlayerMessage is a short notice one racer sends to the others
type PlayerMessage string

const (
	MessageFoundPage  PlayerMessage = "foundPage"
	MessageForfeited  PlayerMessage = "forfeited"
	MessageQuit       PlayerMessage = "quit"
	MessageNeededHelp PlayerMessage = "neededHelp"
	MessageLinkOnPage PlayerMessage = "linkOnPage"
	MessageMissedLink PlayerMessage = "missedLink"
)

// Text is the display string for the message
func (m PlayerMessage) Text() string {
	switch m {
	case MessageFoundPage:
		return "found the page"
	case MessageForfeited:
		return "forfeited"
	case MessageQuit:
		return "quit"
	case MessageNeededHelp:
		return "needed help"
	case MessageLinkOnPage:
		return "is close"
	case MessageMissedLink:
		return "missed the link"
	}
	return string(m)
}

// FatalError ends the local session when raised or received
type FatalError string

const (
	FatalConfigCreationFailed FatalError = "configCreationFailed"
	FatalConnectionStalled    FatalError = "connectionStalled"
	FatalHostLeft             FatalError = "hostLeft"
	FatalNoPeers              FatalError = "noPeers"
)

func (e FatalError) Error() string {
	switch e {
	case FatalConfigCreationFailed:
		return "could not create the race"
	case FatalConnectionStalled:
		return "the connection stalled"
	case FatalHostLeft:
		return "the host left the match"
	case FatalNoPeers:
		return "no other players are connected"
	}
	return string(e)
}

// IntType tags the meaning of an IntMessage
type IntType string

const (
	IntVotingTime        IntType = "votingTime"
	IntVotingPreRaceTime IntType = "votingPreRaceTime"
	IntResultsTime       IntType = "resultsTime"
	IntBonusPoints       IntType = "bonusPoints"
	IntReady             IntType = "ready"
)

// IntMessage carries a typed integer (countdowns, bonus, ready flag)
type IntMessage struct {
	Type  IntType `json:"type"`
	Value int     `json:"value"`
}
