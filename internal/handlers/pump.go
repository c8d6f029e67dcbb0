package handlers

import (
	"context"
	"log"

	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/render"
	"github.com/aaronzipp/link-race/internal/sse"
)

// Pump renders coordinator events into the broker until ctx is done or
// the coordinator stops
func (ctx *Context) Pump(c context.Context) {
	isHost := ctx.Coord.IsHost()
	local := ctx.Coord.Profile()
	state := models.StatePreMatch
	players := 0

	events := ctx.Coord.Events()
	for {
		var ev match.Event
		select {
		case <-c.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			ev = e
		}
		if debug {
			log.Printf("[handlers] event %s", ev.Kind)
		}

		switch ev.Kind {
		case match.EventState:
			state = ev.State
			ctx.Broker.Broadcast(sse.EventPhase, render.Phase(state))
			ctx.Broker.Broadcast(sse.EventControls, render.HostControls(state, isHost))
			if state == models.StateVoting {
				ctx.Broker.Broadcast(sse.EventVoteUpdate, render.VoteSlate(nil, local))
				ctx.Broker.Broadcast(sse.EventRaceConfig, "")
				ctx.Broker.Broadcast(sse.EventResults, "")
				ctx.Broker.Broadcast(sse.EventReadyCount, "")
				ctx.Broker.Broadcast(sse.EventStats, "")
			}
		case match.EventPlayers:
			players = len(ev.Players)
			ctx.Broker.Broadcast(sse.EventPlayerUpdate, render.PlayerList(ev.Players))
		case match.EventVoteInfo:
			ctx.Broker.Broadcast(sse.EventVoteUpdate, render.VoteSlate(ev.VoteInfo, local))
		case match.EventRaceConfig:
			ctx.Broker.Broadcast(sse.EventRaceConfig, render.RaceConfig(ev.RaceConfig))
		case match.EventBonusPoints:
			ctx.Broker.Broadcast(sse.EventBonus, render.Bonus(ev.Value))
		case match.EventLocalResults:
			ctx.Broker.Broadcast(sse.EventResults, render.Results(ev.Results, false))
		case match.EventHostResults:
			ctx.Broker.Broadcast(sse.EventResults, render.Results(ev.Results, true))
		case match.EventReadyStates:
			ctx.Broker.Broadcast(sse.EventReadyCount, render.ReadyCount(len(ev.Profiles), players, "players ready"))
		case match.EventRemainingTime:
			ctx.Broker.Broadcast(sse.EventCountdown, render.Countdown(ev.Countdown, ev.Value))
		case match.EventPlayerMessage:
			ctx.Broker.Broadcast(sse.EventNotice, render.Notice(ev.From, ev.Message))
		case match.EventSamePage:
			ctx.Broker.Broadcast(sse.EventSamePage, render.SamePage(ev.Profiles))
		case match.EventPlayerStats:
			ctx.Broker.Broadcast(sse.EventStats, render.Stats(ev.Stats))
		case match.EventError:
			if ev.Err != nil {
				ctx.Broker.Broadcast(sse.EventErrorMessage, render.ErrorMessage(ev.Err, ev.Fatal))
			}
		}
	}
}
