package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/pages"
	"github.com/aaronzipp/link-race/internal/store"
	"github.com/aaronzipp/link-race/internal/transport"
)

// fakeScheduler fires ticks only when the test asks it to
type fakeScheduler struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

type fakeTicker struct {
	interval time.Duration
	tick     func()
	stopped  bool
}

func (s *fakeScheduler) Every(interval time.Duration, tick func()) func() {
	t := &fakeTicker{interval: interval, tick: tick}
	s.mu.Lock()
	s.tickers = append(s.tickers, t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.stopped = true
		s.mu.Unlock()
	}
}

// Fire ticks every live ticker with the given interval once and returns
// how many fired
func (s *fakeScheduler) Fire(interval time.Duration) int {
	s.mu.Lock()
	var live []*fakeTicker
	for _, t := range s.tickers {
		if !t.stopped && t.interval == interval {
			live = append(live, t)
		}
	}
	s.mu.Unlock()
	for _, t := range live {
		t.tick()
	}
	return len(live)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fixedStart always draws the same starting page
type fixedStart struct {
	*pages.Graph
	start models.Page
}

func (f fixedStart) FetchRandom(context.Context) (models.Page, error) {
	return f.start, nil
}

type peer struct {
	c     *Coordinator
	sched *fakeScheduler
	tr    *transport.LoopbackPeer
}

type harness struct {
	net   *transport.Network
	graph *pages.Graph
	clock *fakeClock
	ctx   context.Context
}

func testConfig(profile models.PlayerProfile, host bool) Config {
	return Config{
		Profile:         profile,
		IsHost:          host,
		VotingDuration:  2 * time.Second,
		PreRaceDuration: 0,
		ResultsDuration: 5 * time.Second,
		BonusInterval:   120 * time.Second,
		BonusReward:     2,
		SlateSize:       3,
		EventBuffer:     4096,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	g := pages.NewGraph("https://wiki.test", 1)
	g.Link("Start", "Middle", "Hub")
	g.Link("Middle", "Deep")
	g.Page("Deep")
	for _, p := range []string{"Alpha", "Beta", "Gamma"} {
		g.Page(p)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &harness{
		net:   transport.NewNetwork(),
		graph: g,
		clock: &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		ctx:   ctx,
	}
}

func (h *harness) join(t *testing.T, name string, host bool, mutate ...func(*Config)) *peer {
	t.Helper()
	profile := models.PlayerProfile{PlayerID: "id-" + name, Name: name}
	cfg := testConfig(profile, host)
	for _, m := range mutate {
		m(&cfg)
	}
	lookup := fixedStart{Graph: h.graph, start: h.graph.Page("Start")}
	seen := store.NewMemorySeenStore([]string{"/Alpha", "/Beta", "/Gamma"})
	sched := &fakeScheduler{}
	tr := h.net.Join(profile)
	c := New(cfg, tr, lookup, seen, WithScheduler(sched), WithClock(h.clock.Now))
	go c.Run(h.ctx)
	return &peer{c: c, sched: sched, tr: tr}
}

func (p *peer) snapshot(t *testing.T) Snapshot {
	t.Helper()
	s, err := p.c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return s
}

// waitSnapshot polls until pred holds
func waitSnapshot(t *testing.T, p *peer, what string, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		s := p.snapshot(t)
		if pred(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s: timed out waiting for %s (state %s)", p.c.Profile(), what, s.State)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// waitEvent drains events until pred matches
func waitEvent(t *testing.T, p *peer, what string, pred func(Event) bool) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-p.c.Events():
			if pred(ev) {
				return ev
			}
		case <-timeout:
			t.Fatalf("%s: timed out waiting for %s", p.c.Profile(), what)
		}
	}
}

func inState(state models.GameState) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.State == state }
}

func playerState(s Snapshot, profile models.PlayerProfile) models.PlayerState {
	for _, p := range s.Players {
		if p.Profile == profile {
			return p.State
		}
	}
	return ""
}

// startRace opens the vote, has every peer vote for the first slate page
// and runs the host's countdown. It returns the target page.
func startRace(t *testing.T, host *peer, guests ...*peer) models.Page {
	t.Helper()
	ctx := context.Background()
	for _, g := range guests {
		if err := g.c.StartMatch(ctx); err != nil {
			t.Fatalf("guest StartMatch: %v", err)
		}
	}
	if err := host.c.StartMatch(ctx); err != nil {
		t.Fatalf("host StartMatch: %v", err)
	}
	return voteAndRace(t, host, guests...)
}

func voteAndRace(t *testing.T, host *peer, guests ...*peer) models.Page {
	t.Helper()
	ctx := context.Background()
	hasSlate := func(s Snapshot) bool {
		return s.State == models.StateVoting && s.VoteInfo != nil && len(s.VoteInfo.Pages) > 0
	}
	slate := waitSnapshot(t, host, "slate", hasSlate).VoteInfo.Pages
	target := slate[0]

	for _, p := range append([]*peer{host}, guests...) {
		waitSnapshot(t, p, "slate", hasSlate)
		if err := p.c.Vote(ctx, target); err != nil {
			t.Fatalf("Vote: %v", err)
		}
	}
	waitSnapshot(t, host, "all votes", func(s Snapshot) bool {
		return s.VoteInfo != nil && len(s.VoteInfo.Votes) == 1+len(guests)
	})

	for i := 0; i < 2; i++ {
		if host.sched.Fire(time.Second) != 1 {
			t.Fatal("voting countdown not running")
		}
	}
	for _, p := range append([]*peer{host}, guests...) {
		s := waitSnapshot(t, p, "race", inState(models.StateRace))
		if s.RaceConfig == nil || !s.RaceConfig.EndingPage.Equal(target) {
			t.Fatalf("race config = %+v, want target %s", s.RaceConfig, target)
		}
	}
	return target
}
