package models

import "fmt"

// MessageType discriminates the payload of a Message
type MessageType string

const (
	MsgPlayer        MessageType = "PLAYER"
	MsgVote          MessageType = "VOTE"
	MsgRaceConfig    MessageType = "RACE_CONFIG"
	MsgPreRaceConfig MessageType = "PRE_RACE_CONFIG"
	MsgResults       MessageType = "RESULTS"
	MsgGameState     MessageType = "GAME_STATE"
	MsgPlayerMessage MessageType = "PLAYER_MESSAGE"
	MsgFatalError    MessageType = "FATAL_ERROR"
	MsgInt           MessageType = "INT"
)

// Message is one typed unit exchanged between peers. Exactly one payload
// field is set, matching Type.
type Message struct {
	Type MessageType `json:"type"`

	Player        *Player        `json:"player,omitempty"`
	Vote          *Page          `json:"vote,omitempty"`
	RaceConfig    *RaceConfig    `json:"raceConfig,omitempty"`
	PreRaceConfig *PreRaceConfig `json:"preRaceConfig,omitempty"`
	Results       *ResultsInfo   `json:"results,omitempty"`
	GameState     GameState      `json:"gameState,omitempty"`
	PlayerMessage PlayerMessage  `json:"playerMessage,omitempty"`
	FatalError    FatalError     `json:"fatalError,omitempty"`
	Int           *IntMessage    `json:"int,omitempty"`
}

func PlayerSnapshot(p Player) Message {
	c := p.Clone()
	return Message{Type: MsgPlayer, Player: &c}
}

func VoteChoice(page Page) Message {
	return Message{Type: MsgVote, Vote: &page}
}

func RaceConfigMessage(c RaceConfig) Message {
	return Message{Type: MsgRaceConfig, RaceConfig: &c}
}

func PreRaceConfigMessage(c PreRaceConfig) Message {
	c.VoteInfo = c.VoteInfo.Clone()
	return Message{Type: MsgPreRaceConfig, PreRaceConfig: &c}
}

func ResultsMessage(r ResultsInfo) Message {
	return Message{Type: MsgResults, Results: &r}
}

func PhaseChange(s GameState) Message {
	return Message{Type: MsgGameState, GameState: s}
}

func PlayerTextMessage(m PlayerMessage) Message {
	return Message{Type: MsgPlayerMessage, PlayerMessage: m}
}

func FatalErrorMessage(e FatalError) Message {
	return Message{Type: MsgFatalError, FatalError: e}
}

func Int(t IntType, v int) Message {
	return Message{Type: MsgInt, Int: &IntMessage{Type: t, Value: v}}
}

// Validate checks that the payload matching Type is present
func (m Message) Validate() error {
	ok := false
	switch m.Type {
	case MsgPlayer:
		ok = m.Player != nil
	case MsgVote:
		ok = m.Vote != nil
	case MsgRaceConfig:
		ok = m.RaceConfig != nil
	case MsgPreRaceConfig:
		ok = m.PreRaceConfig != nil
	case MsgResults:
		ok = m.Results != nil
	case MsgGameState:
		ok = m.GameState != ""
	case MsgPlayerMessage:
		ok = m.PlayerMessage != ""
	case MsgFatalError:
		ok = m.FatalError != ""
	case MsgInt:
		ok = m.Int != nil
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	if !ok {
		return fmt.Errorf("%s message without payload", m.Type)
	}
	return nil
}
