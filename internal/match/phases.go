package match

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aaronzipp/link-race/internal/game"
	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/pages"
)

// StartMatch announces the local player. On the host it also opens the
// first vote; guests wait for the host's phase change.
func (c *Coordinator) StartMatch(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state != models.StatePreMatch {
			return ErrWrongPhase
		}
		if !c.cfg.IsHost {
			c.publishLocal()
			return nil
		}
		c.send(models.PhaseChange(models.StateVoting))
		return nil
	})
}

// transition applies a phase change from the host (or ourselves)
func (c *Coordinator) transition(to models.GameState) {
	if to == c.state {
		return
	}
	switch to {
	case models.StateVoting:
		c.enterVoting()
	case models.StateRace:
		c.enterRace()
	case models.StateHostResults:
		c.enterHostResults()
	case models.StateMatchOver:
		c.enterMatchOver()
	default:
		// results is local only and preMatch is never announced
		if debug {
			log.Printf("[match] ignoring phase change to %s", to)
		}
	}
}

func (c *Coordinator) enterVoting() {
	c.gen++
	c.stopTimers()
	if c.active != nil {
		// the host's results never arrived; keep our view of the round
		c.archiveActive(nil)
	}
	c.state = models.StateVoting
	c.preRace = nil
	c.raceConfig = nil
	c.results = nil
	c.localResults = nil
	c.ready = make(map[models.PlayerProfile]bool)

	c.local.SetState(models.PlayerVoting, c.now())
	c.local.RaceHistory = nil
	c.local.HasReceivedPointsForCurrentRace = false
	c.emitState()
	c.publishLocal()

	if c.cfg.IsHost {
		c.fetchPreRaceConfig()
	}
}

// fetchPreRaceConfig builds the slate off the loop and opens the vote
// once it is ready
func (c *Coordinator) fetchPreRaceConfig() {
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelFetch = cancel
	go func() {
		cfg, err := pages.BuildPreRaceConfig(ctx, c.lookup, c.candidates, c.cfg.SlateSize)
		c.post(func() {
			if gen != c.gen {
				if debug {
					log.Printf("[match] dropping stale slate (generation %d, now %d)", gen, c.gen)
				}
				return
			}
			c.cancelFetch = nil
			cancel()
			if err != nil {
				c.fail(models.FatalConfigCreationFailed, fmt.Errorf("build voting slate: %w", err), true)
				return
			}
			c.send(models.PreRaceConfigMessage(cfg))
			c.stopVoting = c.countdown(c.cfg.VotingDuration, models.IntVotingTime, c.finishVoting)
		})
	}()
}

// finishVoting resolves the vote into the round's race config
func (c *Coordinator) finishVoting() {
	if c.preRace == nil {
		c.fail(models.FatalConfigCreationFailed, errors.New("voting closed without a slate"), true)
		return
	}
	weights := game.VotingWeights(c.completed, c.roster.Players())
	rc, err := c.preRace.RaceConfig(weights)
	if err != nil {
		c.fail(models.FatalConfigCreationFailed, fmt.Errorf("resolve vote: %w", err), true)
		return
	}
	c.send(models.RaceConfigMessage(rc))
	c.stopPreRace = c.countdown(c.cfg.PreRaceDuration, models.IntVotingPreRaceTime, func() {
		c.send(models.PhaseChange(models.StateRace))
	})
}

// Vote picks a slate page as the local player's choice
func (c *Coordinator) Vote(ctx context.Context, page models.Page) error {
	return c.call(ctx, func() error {
		if c.state != models.StateVoting || c.preRace == nil {
			return ErrWrongPhase
		}
		if c.preRace.VoteInfo.Index(page) < 0 {
			return ErrNotOnSlate
		}
		c.send(models.VoteChoice(page))
		return nil
	})
}

func (c *Coordinator) enterRace() {
	if c.state != models.StateVoting {
		return
	}
	if c.raceConfig == nil {
		c.fail(models.FatalConfigCreationFailed, errors.New("race started without a race config"), true)
		return
	}
	c.gen++
	c.stopTimers()
	c.state = models.StateRace
	rc := *c.raceConfig

	c.active = game.NewRace(rc, c.roster.Players())
	c.local.StartedNewRace(rc.StartingPage, c.now())
	c.emitState()
	c.publishLocal()

	if c.cfg.IsHost && c.connectedPeers() > 0 {
		// solo races carry no bonus pool
		c.startBonusTimer()
	}
	c.lookupLinks(rc.StartingPage)
}

func (c *Coordinator) startBonusTimer() {
	race := c.active
	c.stopBonus = c.every(c.cfg.BonusInterval, func() {
		if c.active != race || race.SomeoneFoundPage() {
			c.stopBonusTimer()
			return
		}
		race.BonusPoints += c.cfg.BonusReward
		c.send(models.Int(models.IntBonusPoints, race.BonusPoints))
	})
}

func (c *Coordinator) stopBonusTimer() {
	stopTimer(&c.stopBonus)
}

// checkRaceEnd re-evaluates the termination predicate after every
// player change during a race
func (c *Coordinator) checkRaceEnd() {
	if c.active == nil || (c.state != models.StateRace && c.state != models.StateResults) {
		return
	}
	if c.cfg.IsHost && c.active.SomeoneFoundPage() {
		c.stopBonusTimer()
	}

	info := game.BuildResults(c.completed, c.active, nil)
	if !c.active.ShouldEnd() {
		c.emitLocalResults(info)
		return
	}
	if c.cfg.IsHost {
		c.endRace()
		return
	}
	c.emitLocalResults(info)
	if c.state == models.StateRace {
		c.state = models.StateResults
		c.emitState()
	}
}

func (c *Coordinator) emitLocalResults(info models.ResultsInfo) {
	c.localResults = &info
	c.emit(Event{Kind: EventLocalResults, Results: &info})
}

// endRace is the host's authoritative end of the round
func (c *Coordinator) endRace() {
	c.stopBonusTimer()
	now := c.now()
	c.active.ForceEnd(now)
	for _, p := range c.active.Players {
		if p.Profile == c.cfg.Profile {
			continue
		}
		if stored, ok := c.roster.Get(p.Profile); ok && stored.State == models.PlayerRacing {
			c.roster.Upsert(p)
		}
	}
	if c.local.State == models.PlayerRacing {
		c.local.SetState(models.PlayerForcedEnd, now)
	}
	c.archiveActive(nil)

	info := game.BuildResults(c.completed, nil, c.roster.Players())
	c.send(models.ResultsMessage(info))
	c.broadcast(models.PhaseChange(models.StateHostResults))
	c.stopResults = c.countdown(c.cfg.ResultsDuration, models.IntResultsTime, c.advanceFromResults)
}

// archiveActive moves the active race to the completed list. players,
// when given, replace the race's own view of the participants.
func (c *Coordinator) archiveActive(players []models.Player) {
	if c.active == nil {
		return
	}
	if players != nil {
		c.active.Players = make([]models.Player, 0, len(players))
		for _, p := range players {
			c.active.Players = append(c.active.Players, p.Clone())
		}
	}
	c.completed = append(c.completed, c.active)
	c.active = nil
}

// receivedFinalResults applies the host's results for the round
func (c *Coordinator) receivedFinalResults(info models.ResultsInfo) {
	if c.active != nil {
		c.archiveActive(info.Players)
	}
	if c.state != models.StateHostResults {
		c.enterHostResults()
	}
	c.results = &info
	c.emit(Event{Kind: EventHostResults, Results: &info})

	now := c.now()
	if c.local.State == models.PlayerRacing {
		c.local.SetState(models.PlayerForcedEnd, now)
	}
	if _, raced := info.Player(c.cfg.Profile); raced && !c.local.HasReceivedPointsForCurrentRace {
		c.local.HasReceivedPointsForCurrentRace = true
		stats := &PlayerStats{
			Points: info.RaceRewardPoints(c.cfg.Profile),
			Pages:  info.PagesViewed(c.cfg.Profile),
		}
		if place, ok := info.Place(c.cfg.Profile); ok {
			stats.Place = place
		}
		if p, ok := info.Player(c.cfg.Profile); ok && p.RaceHistory != nil {
			stats.PixelsScrolled = p.RaceHistory.PixelsScrolled
		}
		c.emit(Event{Kind: EventPlayerStats, Stats: stats})
	}
	c.publishLocal()
}

func (c *Coordinator) enterHostResults() {
	if c.closed || c.state == models.StateMatchOver {
		return
	}
	c.gen++
	c.stopTimers()
	c.state = models.StateHostResults
	c.ready = make(map[models.PlayerProfile]bool)
	c.local.RaceHistory = nil
	c.emitState()
}

// Ready flags the local player as done with the results
func (c *Coordinator) Ready(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state != models.StateResults && c.state != models.StateHostResults {
			return ErrWrongPhase
		}
		c.send(models.Int(models.IntReady, 1))
		return nil
	})
}

// checkReadyQuorum ends the results phase early once every racer is ready
func (c *Coordinator) checkReadyQuorum() {
	if !c.cfg.IsHost || c.state != models.StateHostResults || c.results == nil {
		return
	}
	var pool []models.Player
	for _, p := range c.results.Players {
		if current, ok := c.roster.Get(p.Profile); ok {
			pool = append(pool, current)
		}
	}
	if game.ShouldAdvanceResults(c.ready, pool) {
		c.advanceFromResults()
	}
}

// SkipResults ends the results phase without waiting for the countdown
func (c *Coordinator) SkipResults(ctx context.Context) error {
	return c.call(ctx, func() error {
		if !c.cfg.IsHost {
			return ErrNotHost
		}
		if c.state != models.StateHostResults {
			return ErrWrongPhase
		}
		c.advanceFromResults()
		return nil
	})
}

// advanceFromResults starts the next round or ends the match
func (c *Coordinator) advanceFromResults() {
	if c.state != models.StateHostResults {
		return
	}
	if c.cfg.MaxRounds > 0 && len(c.completed) >= c.cfg.MaxRounds {
		c.send(models.PhaseChange(models.StateMatchOver))
		return
	}
	c.send(models.PhaseChange(models.StateVoting))
}

func (c *Coordinator) enterMatchOver() {
	c.gen++
	c.stopTimers()
	if c.active != nil {
		c.archiveActive(nil)
	}
	c.state = models.StateMatchOver
	c.emitState()
	info := game.BuildResults(c.completed, nil, c.roster.Players())
	c.results = &info
	c.emit(Event{Kind: EventHostResults, Results: &info})
}
