package match

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/transport"
)

func (c *Coordinator) handleDelivery(d transport.Delivery) {
	if c.closed {
		return
	}
	if d.PeerLeft {
		c.peerLeft(d.From)
		return
	}
	if d.From == c.cfg.Profile {
		return
	}
	c.apply(d.From, d.Message)
}

// apply routes one message. Messages the current phase does not expect
// are dropped without error.
func (c *Coordinator) apply(from models.PlayerProfile, msg models.Message) {
	if debug {
		log.Printf("[match] %s <- %s from %s", c.cfg.Profile, msg.Type, from)
	}
	switch msg.Type {
	case models.MsgPlayer:
		c.playerUpdated(from, *msg.Player)

	case models.MsgVote:
		if !c.cfg.IsHost || c.state != models.StateVoting || c.preRace == nil {
			return
		}
		if c.preRace.VoteInfo.PlayerVoted(from, *msg.Vote) {
			c.send(models.PreRaceConfigMessage(*c.preRace))
		}

	case models.MsgPreRaceConfig:
		if c.state != models.StateVoting {
			return
		}
		cfg := *msg.PreRaceConfig
		cfg.VoteInfo = cfg.VoteInfo.Clone()
		first := c.preRace == nil
		c.preRace = &cfg
		if first && !c.cfg.IsHost {
			c.markSeen(cfg.VoteInfo.Pages)
		}
		info := cfg.VoteInfo.Clone()
		c.emit(Event{Kind: EventVoteInfo, VoteInfo: &info})

	case models.MsgRaceConfig:
		if c.state != models.StateVoting {
			return
		}
		rc := *msg.RaceConfig
		c.raceConfig = &rc
		c.preRace = nil
		c.emit(Event{Kind: EventRaceConfig, RaceConfig: &rc})

	case models.MsgGameState:
		c.transition(msg.GameState)

	case models.MsgResults:
		if c.results != nil {
			return
		}
		switch c.state {
		case models.StatePreMatch, models.StateRace, models.StateResults, models.StateHostResults:
			// a player joining mid-session catches up on the host's results
			c.receivedFinalResults(*msg.Results)
		}

	case models.MsgPlayerMessage:
		if from != c.cfg.Profile {
			c.emit(Event{Kind: EventPlayerMessage, From: from, Message: msg.PlayerMessage})
		}

	case models.MsgFatalError:
		if from != c.cfg.Profile {
			c.fail(msg.FatalError, fmt.Errorf("%s reported: %w", from, msg.FatalError), false)
		}

	case models.MsgInt:
		c.applyInt(from, *msg.Int)
	}
}

func (c *Coordinator) applyInt(from models.PlayerProfile, m models.IntMessage) {
	switch m.Type {
	case models.IntVotingTime, models.IntVotingPreRaceTime, models.IntResultsTime:
		c.emit(Event{Kind: EventRemainingTime, Countdown: m.Type, Value: m.Value})

	case models.IntBonusPoints:
		if c.active == nil {
			return
		}
		c.active.BonusPoints = m.Value
		c.emit(Event{Kind: EventBonusPoints, Value: m.Value})

	case models.IntReady:
		if c.state != models.StateResults && c.state != models.StateHostResults {
			return
		}
		c.ready[from] = m.Value == 1
		var profiles []models.PlayerProfile
		for _, p := range c.roster.Players() {
			if c.ready[p.Profile] {
				profiles = append(profiles, p.Profile)
			}
		}
		c.emit(Event{Kind: EventReadyStates, Profiles: profiles})
		c.checkReadyQuorum()
	}
}

// playerUpdated merges a remote snapshot into the player table
func (c *Coordinator) playerUpdated(from models.PlayerProfile, p models.Player) {
	if p.Profile == c.cfg.Profile || p.Profile != from {
		// only the owner publishes a player's snapshot
		return
	}
	known := c.roster.Contains(p.Profile)
	if !c.roster.Upsert(p) {
		if debug {
			log.Printf("[match] stale snapshot for %s (seq %d)", p.Profile, p.Seq)
		}
		return
	}
	if !known {
		// introduce ourselves to the newcomer
		c.broadcast(models.PlayerSnapshot(c.local))
	}
	if c.active != nil {
		c.active.PlayerUpdated(p)
	}
	c.emitPlayers()
	c.checkSamePage(p)

	if p.State == models.PlayerConnecting &&
		c.cfg.IsHost &&
		c.local.State != models.PlayerConnecting &&
		c.state == models.StateHostResults &&
		c.results != nil {
		c.broadcast(models.ResultsMessage(*c.results))
	}

	c.checkRaceEnd()
	c.checkReadyQuorum()
}

// peerLeft turns a dropped connection into a quit
func (c *Coordinator) peerLeft(who models.PlayerProfile) {
	p, ok := c.roster.Get(who)
	if !ok || who == c.cfg.Profile {
		return
	}
	if p.IsHost && !c.cfg.IsHost {
		c.fail(models.FatalHostLeft, fmt.Errorf("%s disconnected: %w", who, models.FatalHostLeft), false)
		return
	}
	if p.State != models.PlayerQuit {
		p.SetState(models.PlayerQuit, c.now())
		// outrank any snapshot the player sent before dropping
		p.Seq++
		c.roster.Upsert(p)
		if c.active != nil {
			c.active.PlayerUpdated(p)
		}
		c.emitPlayers()
		c.emit(Event{Kind: EventPlayerMessage, From: who, Message: models.MessageQuit})
	}

	if c.cfg.IsHost && c.state != models.StatePreMatch && c.state != models.StateMatchOver && c.connectedPeers() == 0 {
		c.fail(models.FatalNoPeers, models.FatalNoPeers, false)
		return
	}
	c.checkRaceEnd()
	c.checkReadyQuorum()
}

func (c *Coordinator) connectedPeers() int {
	n := 0
	for _, p := range c.roster.Players() {
		if p.Profile != c.cfg.Profile && p.State != models.PlayerQuit {
			n++
		}
	}
	return n
}

// markSeen records a received slate in the seen store off the loop
func (c *Coordinator) markSeen(slate []models.Page) {
	if c.candidates == nil {
		return
	}
	paths := make([]string, len(slate))
	for i, p := range slate {
		paths[i] = p.Path()
	}
	ctx := c.ctx
	go func() {
		if err := c.candidates.MarkSeen(ctx, paths); err != nil {
			log.Printf("[match] mark seen: %v", err)
		}
	}()
}

// fail ends the local session after a fatal error. It runs once: the
// local player quits, that snapshot is broadcast, and the transport is
// closed. Local errors are also announced to the other peers.
func (c *Coordinator) fail(kind models.FatalError, cause error, announce bool) {
	if c.failing {
		return
	}
	c.failing = true
	if !errors.Is(cause, kind) {
		cause = fmt.Errorf("%w: %w", kind, cause)
	}
	log.Printf("[match] fatal %s: %v", kind, cause)

	if announce {
		c.broadcast(models.FatalErrorMessage(kind))
	}
	c.leave()
	c.emit(Event{Kind: EventError, Err: cause, Fatal: true})
}

// leave quits the match and returns to preMatch
func (c *Coordinator) leave() {
	c.gen++
	c.stopTimers()
	c.local.SetState(models.PlayerQuit, c.now())
	c.local.Seq++
	c.roster.Upsert(c.local)
	c.broadcast(models.PlayerSnapshot(c.local))
	if err := c.transport.Disconnect(); err != nil {
		log.Printf("[match] disconnect: %v", err)
	}
	c.closed = true
	c.active = nil
	c.preRace = nil
	c.raceConfig = nil
	c.state = models.StatePreMatch
	c.emitPlayers()
	c.emitState()
}

// Quit leaves the match
func (c *Coordinator) Quit(ctx context.Context) error {
	return c.call(ctx, func() error {
		c.broadcast(models.PlayerTextMessage(models.MessageQuit))
		c.leave()
		return nil
	})
}
