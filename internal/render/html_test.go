package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/models"
)

func TestPlayerListEscapesAndSorts(t *testing.T) {
	players := []models.Player{
		{Profile: models.PlayerProfile{PlayerID: "2", Name: "zed"}, State: models.PlayerRacing},
		{Profile: models.PlayerProfile{PlayerID: "1", Name: "<b>Al</b>"}, State: models.PlayerFoundPage, IsHost: true},
	}
	html := PlayerList(players)
	if strings.Contains(html, "<b>Al</b>") {
		t.Error("player name not escaped")
	}
	if !strings.Contains(html, "Players (2)") {
		t.Errorf("missing count: %s", html)
	}
	if strings.Index(html, "&lt;b&gt;Al") > strings.Index(html, "zed") {
		t.Error("players not sorted by name")
	}
	if !strings.Contains(html, "found it") || !strings.Contains(html, ">host<") {
		t.Errorf("missing state or host badge: %s", html)
	}
}

func TestVoteSlateMarksOwnVote(t *testing.T) {
	a := models.NewPage("https://en.m.wikipedia.org/wiki/Alpha", "Alpha")
	b := models.NewPage("https://en.m.wikipedia.org/wiki/Beta", "Beta")
	me := models.PlayerProfile{PlayerID: "1", Name: "Me"}
	info := models.NewVoteInfo([]models.Page{a, b})
	info.PlayerVoted(me, b)
	info.PlayerVoted(models.PlayerProfile{PlayerID: "2", Name: "You"}, b)

	html := VoteSlate(&info, me)
	if strings.Count(html, "btn-success") != 1 {
		t.Errorf("own vote not highlighted once: %s", html)
	}
	if !strings.Contains(html, `Beta</button><span class="vote-count">2</span>`) {
		t.Errorf("vote count missing: %s", html)
	}
	if VoteSlate(nil, me) == "" {
		t.Error("empty slate should render a placeholder")
	}
}

func TestResultsTables(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	start := models.NewPage("https://en.m.wikipedia.org/wiki/Start", "Start")
	winner := models.Player{Profile: models.PlayerProfile{PlayerID: "1", Name: "Win"}}
	winner.StartedNewRace(start, t0)
	winner.SetState(models.PlayerFoundPage, t0.Add(75*time.Second))
	loser := models.Player{Profile: models.PlayerProfile{PlayerID: "2", Name: "Lose"}}
	loser.StartedNewRace(start, t0)
	loser.SetState(models.PlayerForfeited, t0.Add(10*time.Second))

	info := &models.ResultsInfo{
		Players:       []models.Player{loser, winner},
		RacePoints:    map[models.PlayerProfile]int{winner.Profile: 2},
		SessionPoints: map[models.PlayerProfile]int{winner.Profile: 5, loser.Profile: 1},
	}
	html := Results(info, true)
	if !strings.Contains(html, "1:15") {
		t.Errorf("finish time missing: %s", html)
	}
	if strings.Index(html, "Win") > strings.Index(html, "Lose") {
		t.Error("finder not ranked first")
	}
	if !strings.Contains(Results(info, false), "provisional") {
		t.Error("local results not marked provisional")
	}
	if Results(nil, true) != "" {
		t.Error("nil results should render nothing")
	}
}

func TestSmallFragments(t *testing.T) {
	if got := Countdown(models.IntVotingTime, 7); !strings.Contains(got, "Voting ends in 7s") {
		t.Errorf("Countdown = %s", got)
	}
	if got := Notice(models.PlayerProfile{Name: "Al"}, models.MessageFoundPage); !strings.Contains(got, "Al found the page") {
		t.Errorf("Notice = %s", got)
	}
	if got := Stats(&match.PlayerStats{Points: 6, Place: 1, Pages: 3}); !strings.Contains(got, "place 1, +6 points") {
		t.Errorf("Stats = %s", got)
	}
	if got := ErrorMessage(errors.New("a<b"), true); !strings.Contains(got, "error-fatal") || !strings.Contains(got, "a&lt;b") {
		t.Errorf("ErrorMessage = %s", got)
	}
	if got := HostControls(models.StateHostResults, false); strings.Contains(got, "/results/skip") {
		t.Error("guests must not get the skip button")
	}
	if got := HostControls(models.StateHostResults, true); !strings.Contains(got, "/results/skip") {
		t.Error("host is missing the skip button")
	}
	if got := SamePage([]models.PlayerProfile{{Name: "Bo"}, {Name: "Al"}}); !strings.Contains(got, "Al, Bo also") {
		t.Errorf("SamePage = %s", got)
	}
}
