package match

import (
	"time"

	"github.com/aaronzipp/link-race/internal/game"
	"github.com/aaronzipp/link-race/internal/models"
)

// Config configures one participant's coordinator
type Config struct {
	Profile models.PlayerProfile
	IsHost  bool

	VotingDuration  time.Duration
	PreRaceDuration time.Duration // 0 starts the race as soon as the page is picked
	ResultsDuration time.Duration
	BonusInterval   time.Duration
	BonusReward     int
	SlateSize       int
	MaxRounds       int // 0 plays until someone quits

	EventBuffer int
}

func (c *Config) defaults() {
	if c.VotingDuration <= 0 {
		c.VotingDuration = game.VotingDuration
	}
	if c.PreRaceDuration < 0 {
		c.PreRaceDuration = game.PreRaceDuration
	}
	if c.ResultsDuration <= 0 {
		c.ResultsDuration = game.ResultsDuration
	}
	if c.BonusInterval <= 0 {
		c.BonusInterval = game.BonusPointInterval
	}
	if c.BonusReward <= 0 {
		c.BonusReward = game.BonusPointReward
	}
	if c.SlateSize <= 0 {
		c.SlateSize = game.VotingArticlesCount
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
}
