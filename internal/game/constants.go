package game

import "time"

const (
	// BonusPointReward is added to the bonus pool on every bonus tick
	BonusPointReward = 2

	// BonusPointInterval is how often the host grows the bonus pool
	BonusPointInterval = 120 * time.Second

	// VotingArticlesCount is the size of the candidate slate
	VotingArticlesCount = 8

	// VotingDuration is how long the host keeps voting open
	VotingDuration = 10 * time.Second

	// PreRaceDuration is the countdown between the final page reveal and the race
	PreRaceDuration = 6 * time.Second

	// ResultsDuration is how long results stay up before the next vote
	ResultsDuration = 60 * time.Second

	// SamePageMinEntries is how many pages both racers need before a same-page hint
	SamePageMinEntries = 3

	// MinUnseenBuffer is how many unseen candidates must remain before the seen set resets
	MinUnseenBuffer = 500

	// MatchCodeLength is the length of generated match codes
	MatchCodeLength = 6

	// MatchCodeChars are the characters used for match codes (excluding ambiguous chars)
	MatchCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)
