// Package match drives one participant through a link-race match: the
// phase state machine, the player table and the active race.
package match

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/aaronzipp/link-race/internal/game"
	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/pages"
	"github.com/aaronzipp/link-race/internal/transport"
)

var debug bool

func init() {
	debug = os.Getenv("DEBUG") != ""
}

var (
	// ErrClosed is returned once the local session has ended
	ErrClosed = errors.New("match session closed")
	// ErrWrongPhase is returned for commands the current phase does not accept
	ErrWrongPhase = errors.New("not allowed in the current phase")
	// ErrNotOnSlate is returned for votes on pages outside the slate
	ErrNotOnSlate = errors.New("page is not a voting candidate")
	// ErrNotHost is returned for host-only commands on a guest
	ErrNotHost = errors.New("only the host can do that")
)

// Option customises a Coordinator
type Option func(*Coordinator)

// WithScheduler replaces the ticker-backed scheduler
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.scheduler = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator owns the match state of one participant. All state is
// touched only by the Run loop; exported methods queue work onto it.
type Coordinator struct {
	cfg        Config
	transport  transport.Transport
	lookup     pages.Lookup
	candidates pages.Candidates
	scheduler  Scheduler
	now        func() time.Time

	inbox  chan func()
	events chan Event
	done   chan struct{}
	ctx    context.Context

	// loop-owned state
	state        models.GameState
	local        models.Player
	roster       *game.Roster
	preRace      *models.PreRaceConfig
	raceConfig   *models.RaceConfig
	active       *game.Race
	completed    []*game.Race
	results      *models.ResultsInfo
	localResults *models.ResultsInfo
	ready        map[models.PlayerProfile]bool
	gen          uint64
	failing      bool
	closed       bool

	cancelFetch context.CancelFunc
	stopVoting  func()
	stopPreRace func()
	stopResults func()
	stopBonus   func()
}

// New creates a coordinator for cfg.Profile. candidates may be nil on
// guests; only the host builds voting slates.
func New(cfg Config, tr transport.Transport, lookup pages.Lookup, candidates pages.Candidates, opts ...Option) *Coordinator {
	cfg.defaults()
	c := &Coordinator{
		cfg:        cfg,
		transport:  tr,
		lookup:     lookup,
		candidates: candidates,
		scheduler:  NewTickerScheduler(),
		now:        time.Now,
		inbox:      make(chan func(), 64),
		events:     make(chan Event, cfg.EventBuffer),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		state:      models.StatePreMatch,
		local:      *models.NewPlayer(cfg.Profile, cfg.IsHost),
		roster:     game.NewRoster(),
		ready:      make(map[models.PlayerProfile]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.roster.Upsert(c.local)
	return c
}

// Events is the single stream of outbound notifications
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Profile is the local player's identity
func (c *Coordinator) Profile() models.PlayerProfile {
	return c.cfg.Profile
}

// IsHost reports whether this coordinator is authoritative
func (c *Coordinator) IsHost() bool {
	return c.cfg.IsHost
}

// Run processes inputs until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.done)
	deliveries := c.transport.Deliveries()
	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			return ctx.Err()
		case fn := <-c.inbox:
			fn()
		case d, ok := <-deliveries:
			if !ok {
				deliveries = nil
				continue
			}
			c.handleDelivery(d)
		}
	}
}

// post hands work from a background goroutine to the loop
func (c *Coordinator) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.done:
	}
}

// call runs fn on the loop and waits for its result
func (c *Coordinator) call(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	work := func() {
		if c.closed {
			errc <- ErrClosed
			return
		}
		errc <- fn()
	}
	select {
	case c.inbox <- work:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Coordinator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("[match] event buffer full, dropping %s event", ev.Kind)
	}
}

func (c *Coordinator) emitPlayers() {
	c.emit(Event{Kind: EventPlayers, Players: c.roster.Players()})
}

func (c *Coordinator) emitState() {
	c.emit(Event{Kind: EventState, State: c.state})
}

// broadcast sends msg to the other peers. Failures are reported but do
// not stop the local state machine.
func (c *Coordinator) broadcast(msg models.Message) {
	if c.closed {
		return
	}
	if err := c.transport.Broadcast(c.ctx, msg); err != nil {
		log.Printf("[match] send %s failed: %v", msg.Type, err)
		c.emit(Event{Kind: EventError, Err: err})
	}
}

// send broadcasts msg and applies it locally, since transports do not
// echo a message back to its sender
func (c *Coordinator) send(msg models.Message) {
	c.broadcast(msg)
	c.apply(c.cfg.Profile, msg)
}

// publishLocal records a change to the local player and shares it
func (c *Coordinator) publishLocal() {
	c.local.Seq++
	c.roster.Upsert(c.local)
	if c.active != nil {
		c.active.PlayerUpdated(c.local)
	}
	c.broadcast(models.PlayerSnapshot(c.local))
	c.emitPlayers()
	c.checkSamePageAll()
	c.checkRaceEnd()
}

func (c *Coordinator) stopTimers() {
	stopTimer(&c.stopVoting)
	stopTimer(&c.stopPreRace)
	stopTimer(&c.stopResults)
	stopTimer(&c.stopBonus)
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

func stopTimer(stop *func()) {
	if *stop != nil {
		(*stop)()
		*stop = nil
	}
}

// every schedules fn on the loop. Once stop has been called no further
// fn runs, even for ticks already queued.
func (c *Coordinator) every(interval time.Duration, fn func()) (stop func()) {
	stopped := false
	cancel := c.scheduler.Every(interval, func() {
		c.post(func() {
			if !stopped {
				fn()
			}
		})
	})
	return func() {
		stopped = true
		cancel()
	}
}

// countdown broadcasts the remaining seconds of d every second and runs
// done when it reaches zero
func (c *Coordinator) countdown(d time.Duration, kind models.IntType, done func()) (stop func()) {
	remaining := int(d / time.Second)
	if remaining <= 0 {
		done()
		return func() {}
	}
	c.send(models.Int(kind, remaining))
	stop = c.every(time.Second, func() {
		remaining--
		c.send(models.Int(kind, remaining))
		if remaining <= 0 {
			stop()
			done()
		}
	})
	return stop
}
