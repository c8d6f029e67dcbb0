package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aaronzipp/link-race/internal/models"
)

type fakeCandidates struct {
	paths  []string
	marked []string
	err    error
}

func (f *fakeCandidates) UnseenCandidates(_ context.Context, n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.paths) {
		n = len(f.paths)
	}
	return f.paths[:n], nil
}

func (f *fakeCandidates) MarkSeen(_ context.Context, paths []string) error {
	f.marked = append(f.marked, paths...)
	return nil
}

func TestBuildPreRaceConfig(t *testing.T) {
	g := NewGraph("https://wiki.test", 1)
	g.Page("Start")
	for _, p := range []string{"A", "B", "C", "D"} {
		g.Page(p)
	}
	g.Redirect("Alias_of_A", "A")

	// only Start can be drawn as the random page
	solo := NewGraph("https://wiki.test", 1)
	solo.Page("Start")

	cands := &fakeCandidates{paths: []string{"/A", "/Missing", "/Alias_of_A", "/Start", "/B", "/C", "/D"}}
	cfg, err := BuildPreRaceConfig(context.Background(), randomFrom{g, solo}, cands, 3)
	if err != nil {
		t.Fatalf("BuildPreRaceConfig: %v", err)
	}
	if cfg.StartingPage.Title != "Start" {
		t.Fatalf("start = %v", cfg.StartingPage)
	}
	// count+1 candidates requested: A, Missing, Alias_of_A, Start
	var got []string
	for _, p := range cfg.VoteInfo.Pages {
		got = append(got, p.Title)
	}
	if len(got) != 1 || got[0] != "A" {
		t.Fatalf("slate = %v, want [A]", got)
	}
	if len(cands.marked) != 1 || cands.marked[0] != "/A" {
		t.Errorf("marked = %v", cands.marked)
	}
}

func TestBuildPreRaceConfigKeepsOrderAndCount(t *testing.T) {
	g := NewGraph("https://wiki.test", 1)
	for _, p := range []string{"A", "B", "C", "D", "E"} {
		g.Page(p)
	}
	start := NewGraph("https://wiki.test", 1)
	start.Page("Start")

	cands := &fakeCandidates{paths: []string{"/E", "/D", "/C", "/B", "/A"}}
	cfg, err := BuildPreRaceConfig(context.Background(), randomFrom{g, start}, cands, 3)
	if err != nil {
		t.Fatalf("BuildPreRaceConfig: %v", err)
	}
	want := []string{"E", "D", "C"}
	for i, p := range cfg.VoteInfo.Pages {
		if p.Title != want[i] {
			t.Fatalf("slate = %v, want %v", cfg.VoteInfo.Pages, want)
		}
	}
	if len(cfg.VoteInfo.Pages) != 3 {
		t.Fatalf("slate size = %d", len(cfg.VoteInfo.Pages))
	}
}

func TestBuildPreRaceConfigFailures(t *testing.T) {
	empty := NewGraph("https://wiki.test", 1)
	if _, err := BuildPreRaceConfig(context.Background(), empty, &fakeCandidates{paths: []string{"/A"}}, 3); !errors.Is(err, ErrNoStartingPage) {
		t.Errorf("empty graph err = %v", err)
	}

	g := NewGraph("https://wiki.test", 1)
	g.Page("Start")
	if _, err := BuildPreRaceConfig(context.Background(), g, &fakeCandidates{paths: []string{"/Nope"}}, 3); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("no candidates err = %v", err)
	}

}

func TestBuildPreRaceConfigStoreFailureFallsBack(t *testing.T) {
	g := CatalogueGraph("https://wiki.test", 1)
	store := &fakeCandidates{err: errors.New("database is locked")}

	cfg, err := BuildPreRaceConfig(context.Background(), g, store, 3)
	if err != nil {
		t.Fatalf("BuildPreRaceConfig with a failing store: %v", err)
	}
	if n := len(cfg.VoteInfo.Pages); n == 0 || n > 3 {
		t.Fatalf("slate size = %d", n)
	}
	catalogue := make(map[string]bool)
	for _, path := range FinalArticles() {
		catalogue[g.Page(path).Key()] = true
	}
	for _, p := range cfg.VoteInfo.Pages {
		if !catalogue[p.Key()] {
			t.Errorf("candidate %s is not from the catalogue", p)
		}
	}
	if len(store.marked) != len(cfg.VoteInfo.Pages) {
		t.Errorf("marked %d paths, want %d", len(store.marked), len(cfg.VoteInfo.Pages))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := BuildPreRaceConfig(ctx, g, store, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled build err = %v, want context.Canceled", err)
	}
}

func TestConnectionTest(t *testing.T) {
	g := NewGraph("https://wiki.test", 1)
	if err := ConnectionTest(context.Background(), g, time.Second); err == nil {
		t.Error("connection test passed without its article")
	}
	g.Page(ConnectionTestPath)
	if err := ConnectionTest(context.Background(), g, time.Second); err != nil {
		t.Errorf("connection test failed: %v", err)
	}
}

// randomFrom resolves against one graph but draws random pages from another
type randomFrom struct {
	*Graph
	random *Graph
}

func (r randomFrom) FetchRandom(ctx context.Context) (models.Page, error) {
	return r.random.FetchRandom(ctx)
}
