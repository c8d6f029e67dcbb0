package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aaronzipp/link-race/internal/models"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func profile(name string) models.PlayerProfile {
	return models.PlayerProfile{PlayerID: "id-" + name, Name: name}
}

func wiki(title string) models.Page {
	return models.NewPage("https://en.m.wikipedia.org/wiki/"+title, title)
}

func racing(name string) models.Player {
	p := models.NewPlayer(profile(name), false)
	p.StartedNewRace(wiki("Start"), t0)
	return *p
}

func finish(p models.Player, state models.PlayerState, after time.Duration) models.Player {
	p.SetState(state, t0.Add(after))
	return p
}

func config() models.RaceConfig {
	return models.RaceConfig{StartingPage: wiki("Start"), EndingPage: wiki("End")}
}

func TestShouldEndTwoPlayers(t *testing.T) {
	a, b := racing("A"), racing("B")
	r := NewRace(config(), []models.Player{a, b})
	if r.ShouldEnd() {
		t.Fatal("ended with everyone racing")
	}

	r.PlayerUpdated(finish(a, models.PlayerQuit, time.Second))
	if r.ShouldEnd() {
		t.Fatal("ended while B still racing")
	}

	r.PlayerUpdated(finish(b, models.PlayerFoundPage, 2*time.Second))
	if !r.ShouldEnd() {
		t.Fatal("did not end once the last racer finished")
	}
}

func TestShouldEndIgnoresSpectators(t *testing.T) {
	spectator := *models.NewPlayer(profile("S"), false)
	r := NewRace(config(), []models.Player{spectator})
	if r.ShouldEnd() {
		t.Fatal("a race with no participants ended")
	}
	r.PlayerUpdated(finish(racing("A"), models.PlayerForfeited, time.Second))
	if !r.ShouldEnd() {
		t.Fatal("spectator blocked the end of the race")
	}
}

func TestPlayerUpdatedAddsOnlyRacers(t *testing.T) {
	r := NewRace(config(), []models.Player{racing("A")})
	r.PlayerUpdated(*models.NewPlayer(profile("Late"), false))
	if len(r.Players) != 1 {
		t.Fatalf("player without history was added: %v", r.Players)
	}
	r.PlayerUpdated(racing("B"))
	if len(r.Players) != 2 {
		t.Fatalf("racer was not added: %v", r.Players)
	}
}

func TestCalculatePointsBonusScenario(t *testing.T) {
	p := racing("P")
	p.FinishedViewingCurrentPage(0, t0.Add(60*time.Second))
	p.NowViewing(wiki("Page2"), true, t0.Add(60*time.Second))
	p.FinishedViewingCurrentPage(0, t0.Add(150*time.Second))
	p.NowViewing(wiki("Page3"), true, t0.Add(150*time.Second))
	p.FinishedViewingCurrentPage(0, t0.Add(245*time.Second))
	p.NowViewing(wiki("End"), true, t0.Add(245*time.Second))
	p.SetState(models.PlayerFoundPage, t0.Add(245*time.Second))

	q := racing("Q")
	r := NewRace(config(), []models.Player{p, q})

	// two bonus ticks before the page was found
	r.BonusPoints += BonusPointReward
	r.BonusPoints += BonusPointReward

	r.PlayerUpdated(finish(q, models.PlayerQuit, 30*time.Second))

	points := r.CalculatePoints()
	base := 2 // two participants, first place
	if points[p.Profile] != base+4 {
		t.Errorf("finder points = %d, want %d", points[p.Profile], base+4)
	}
	if got, ok := points[q.Profile]; !ok || got != 0 {
		t.Errorf("quitter points = %d (present %v), want 0", got, ok)
	}
}

func TestCalculatePointsOrdering(t *testing.T) {
	fast := finish(racing("Fast"), models.PlayerFoundPage, 10*time.Second)
	slow := finish(racing("Slow"), models.PlayerFoundPage, 50*time.Second)
	tieA := finish(racing("Alpha"), models.PlayerFoundPage, 30*time.Second)
	tieB := finish(racing("Beta"), models.PlayerFoundPage, 30*time.Second)
	out := finish(racing("Out"), models.PlayerForcedEnd, 60*time.Second)
	never := *models.NewPlayer(profile("Never"), false)

	r := NewRace(config(), []models.Player{slow, tieB, never, out, fast, tieA})
	r.BonusPoints = 6
	points := r.CalculatePoints()

	want := map[string]int{"Fast": 5 + 6, "Alpha": 4, "Beta": 3, "Slow": 2, "Out": 0, "Never": 0}
	if len(points) != len(want) {
		t.Fatalf("points = %v", points)
	}
	for name, pts := range want {
		if points[profile(name)] != pts {
			t.Errorf("%s = %d, want %d", name, points[profile(name)], pts)
		}
	}
}

func TestForceEnd(t *testing.T) {
	r := NewRace(config(), []models.Player{racing("A"), finish(racing("B"), models.PlayerFoundPage, time.Second)})
	r.ForceEnd(t0.Add(time.Minute))
	a, _ := r.Player(profile("A"))
	if a.State != models.PlayerForcedEnd {
		t.Fatalf("A state = %s", a.State)
	}
	if a.RaceHistory.ClosedDuration() != time.Minute {
		t.Errorf("A duration = %v", a.RaceHistory.ClosedDuration())
	}
	b, _ := r.Player(profile("B"))
	if b.State != models.PlayerFoundPage {
		t.Errorf("finder was overwritten: %s", b.State)
	}
	if !r.ShouldEnd() {
		t.Error("race did not end after ForceEnd")
	}
}

func TestAttributes(t *testing.T) {
	r := NewRace(config(), nil)
	mid := wiki("Middle")
	if attrs := r.Attributes(mid); attrs.Known {
		t.Fatal("attributes known before lookup")
	}
	r.RecordLinks(mid, []models.Page{wiki("Other"), wiki("End")})
	attrs := r.Attributes(mid)
	if !attrs.Known || !attrs.LinkOnPage || attrs.FoundPage {
		t.Errorf("attrs = %+v", attrs)
	}
	if !r.Attributes(wiki("End")).FoundPage {
		t.Error("ending page not flagged")
	}
}

func TestRaceRoundTripPoints(t *testing.T) {
	r := NewRace(config(), []models.Player{
		finish(racing("A"), models.PlayerFoundPage, 40*time.Second),
		finish(racing("B"), models.PlayerFoundPage, 20*time.Second),
		finish(racing("C"), models.PlayerForfeited, 5*time.Second),
	})
	r.BonusPoints = 2

	raw, err := json.Marshal(struct {
		Config  models.RaceConfig `json:"config"`
		Players []models.Player   `json:"players"`
	}{r.Config, r.Players})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Config  models.RaceConfig `json:"config"`
		Players []models.Player   `json:"players"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	first := BuildResults(nil, r, nil)
	copyRace := NewRace(decoded.Config, decoded.Players)
	copyRace.BonusPoints = r.BonusPoints
	second := BuildResults(nil, copyRace, nil)

	for _, p := range r.Players {
		if first.RacePoints[p.Profile] != second.RacePoints[p.Profile] {
			t.Errorf("%s: %d vs %d", p.Profile, first.RacePoints[p.Profile], second.RacePoints[p.Profile])
		}
	}
}
