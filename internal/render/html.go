// Package render turns match state into the HTML fragments streamed to
// the browser.
package render

import (
	"fmt"
	htmlpkg "html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/models"
)

// PlayerList generates HTML for the player list
func PlayerList(players []models.Player) string {
	list := sortedPlayers(players)
	var b strings.Builder
	b.WriteString(`<h2>Players (`)
	b.WriteString(strconv.Itoa(len(list)))
	b.WriteString(`)</h2><ul class="player-list">`)
	for _, p := range list {
		b.WriteString(`<li class="player-item state-`)
		b.WriteString(string(p.State))
		b.WriteString(`"><span class="player-name">`)
		b.WriteString(htmlpkg.EscapeString(p.Profile.Name))
		if p.IsHost {
			b.WriteString(` <span class="badge-pill">host</span>`)
		}
		b.WriteString(`</span><span class="player-state">`)
		b.WriteString(stateLabel(p.State))
		b.WriteString(`</span>`)
		if p.RaceHistory != nil {
			b.WriteString(`<span class="player-pages">`)
			b.WriteString(strconv.Itoa(p.PagesViewed()))
			b.WriteString(` pages</span>`)
		}
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// Phase generates the heading for the current game state
func Phase(state models.GameState) string {
	var title string
	switch state {
	case models.StatePreMatch:
		title = "Waiting to start"
	case models.StateVoting:
		title = "Vote for the target page"
	case models.StateRace:
		title = "Race!"
	case models.StateResults:
		title = "Waiting for the other racers"
	case models.StateHostResults:
		title = "Results"
	case models.StateMatchOver:
		title = "Match over"
	default:
		title = string(state)
	}
	return `<h1 class="phase phase-` + string(state) + `">` + title + `</h1>`
}

// HostControls generates the buttons available in the current state
func HostControls(state models.GameState, isHost bool) string {
	switch state {
	case models.StatePreMatch:
		if isHost {
			return `<form hx-post="/match/start"><button type="submit" class="btn btn-primary">Start Match</button></form>`
		}
		return `<form hx-post="/match/start"><button type="submit" class="btn btn-primary">Join Match</button></form>`
	case models.StateRace:
		return `<div class="button-stack"><form hx-post="/race/help"><button type="submit" class="btn btn-secondary">I need help</button></form>` +
			`<form hx-post="/race/forfeit"><button type="submit" class="btn btn-secondary">Forfeit</button></form></div>`
	case models.StateResults, models.StateHostResults:
		var b strings.Builder
		b.WriteString(`<div class="button-stack"><form hx-post="/results/ready"><button type="submit" class="btn btn-primary">Ready</button></form>`)
		if isHost && state == models.StateHostResults {
			b.WriteString(`<form hx-post="/results/skip"><button type="submit" class="btn btn-secondary">Next Round</button></form>`)
		}
		b.WriteString(`</div>`)
		return b.String()
	}
	return ""
}

// VoteSlate generates the voting buttons with the current vote counts
func VoteSlate(info *models.VoteInfo, local models.PlayerProfile) string {
	if info == nil {
		return `<p class="text-muted">Picking candidate pages...</p>`
	}
	counts := make(map[string]int, len(info.Pages))
	for _, p := range info.Votes {
		counts[p.Key()]++
	}
	mine, voted := info.Votes[local]

	var b strings.Builder
	b.WriteString(`<ul class="vote-slate">`)
	for _, p := range info.Pages {
		class := "btn btn-secondary"
		if voted && mine.Equal(p) {
			class = "btn btn-success"
		}
		b.WriteString(`<li><form hx-post="/match/vote"><input type="hidden" name="page" value="`)
		b.WriteString(htmlpkg.EscapeString(p.URL))
		b.WriteString(`"><button type="submit" class="`)
		b.WriteString(class)
		b.WriteString(`">`)
		b.WriteString(htmlpkg.EscapeString(p.Title))
		b.WriteString(`</button><span class="vote-count">`)
		b.WriteString(strconv.Itoa(counts[p.Key()]))
		b.WriteString(`</span></form></li>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// RaceConfig generates the start and target of the round
func RaceConfig(rc *models.RaceConfig) string {
	if rc == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="card race-config"><p>From <a href="`)
	b.WriteString(htmlpkg.EscapeString(rc.StartingPage.URL))
	b.WriteString(`" target="_blank">`)
	b.WriteString(htmlpkg.EscapeString(rc.StartingPage.Title))
	b.WriteString(`</a> to <strong>`)
	b.WriteString(htmlpkg.EscapeString(rc.EndingPage.Title))
	b.WriteString(`</strong></p></div>`)
	return b.String()
}

// Bonus generates the bonus pool display
func Bonus(points int) string {
	return `<p class="bonus">Bonus: ` + strconv.Itoa(points) + ` points</p>`
}

// Countdown generates the remaining time of a host countdown
func Countdown(kind models.IntType, seconds int) string {
	var label string
	switch kind {
	case models.IntVotingTime:
		label = "Voting ends in"
	case models.IntVotingPreRaceTime:
		label = "Race starts in"
	case models.IntResultsTime:
		label = "Next round in"
	default:
		label = string(kind)
	}
	return `<p class="countdown">` + label + ` ` + strconv.Itoa(seconds) + `s</p>`
}

// ReadyCount generates HTML for ready count display
func ReadyCount(ready, total int, label string) string {
	var b strings.Builder
	b.WriteString(`<p class="ready-count">`)
	b.WriteString(strconv.Itoa(ready))
	b.WriteString(`/`)
	b.WriteString(strconv.Itoa(total))
	b.WriteString(` `)
	b.WriteString(label)
	b.WriteString(`</p>`)
	return b.String()
}

// Results generates the race ranking and the session score table
func Results(info *models.ResultsInfo, final bool) string {
	if info == nil {
		return ""
	}
	var b strings.Builder
	if final {
		b.WriteString(`<h2>Race</h2>`)
	} else {
		b.WriteString(`<h2>Race (provisional)</h2>`)
	}
	b.WriteString(`<table class="score-table"><thead><tr><th>#</th><th>Player</th><th>Time</th><th>Pages</th><th>Points</th></tr></thead><tbody>`)
	for i, p := range info.RaceRankings() {
		b.WriteString(`<tr><td>`)
		if p.State == models.PlayerFoundPage {
			b.WriteString(strconv.Itoa(i + 1))
		} else {
			b.WriteString(`-`)
		}
		b.WriteString(`</td><td class="score-player">`)
		b.WriteString(htmlpkg.EscapeString(p.Profile.Name))
		b.WriteString(`</td><td>`)
		if p.RaceHistory != nil {
			b.WriteString(formatDuration(p.RaceHistory.ClosedDuration()))
		}
		b.WriteString(`</td><td>`)
		b.WriteString(strconv.Itoa(p.PagesViewed()))
		b.WriteString(`</td><td><span class="badge-pill badge-win">`)
		b.WriteString(strconv.Itoa(info.RaceRewardPoints(p.Profile)))
		b.WriteString(`</span></td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<h2>Scores</h2><table class="score-table" aria-label="Scoreboard sorted by points"><thead><tr><th>Player</th><th aria-sort="descending">Points ↓</th></tr></thead><tbody>`)
	for _, pp := range info.SessionRankings() {
		b.WriteString(`<tr><td class="score-player">`)
		b.WriteString(htmlpkg.EscapeString(pp.Profile.Name))
		b.WriteString(`</td><td><span class="badge-pill badge-win">`)
		b.WriteString(strconv.Itoa(pp.Points))
		b.WriteString(`</span></td></tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

// Notice generates a one-line racer notice ("Alice found the page")
func Notice(from models.PlayerProfile, msg models.PlayerMessage) string {
	return `<p class="notice notice-` + string(msg) + `">` +
		htmlpkg.EscapeString(from.Name) + ` ` + msg.Text() + `</p>`
}

// SamePage generates the hint that others are reading the same page
func SamePage(players []models.PlayerProfile) string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = htmlpkg.EscapeString(p.Name)
	}
	sort.Strings(names)
	return `<p class="notice notice-same-page">` + strings.Join(names, ", ") + ` also on this page</p>`
}

// Stats generates the local player's summary of the last race
func Stats(s *match.PlayerStats) string {
	if s == nil {
		return ""
	}
	place := "did not finish"
	if s.Place > 0 {
		place = "place " + strconv.Itoa(s.Place)
	}
	return fmt.Sprintf(`<div class="card stats"><p>%s, +%d points</p><p class="text-muted">%d pages, %d px scrolled</p></div>`,
		place, s.Points, s.Pages, s.PixelsScrolled)
}

// ErrorMessage generates an error banner
func ErrorMessage(err error, fatal bool) string {
	class := "error"
	if fatal {
		class = "error error-fatal"
	}
	return `<div class="` + class + `">` + htmlpkg.EscapeString(err.Error()) + `</div>`
}

func stateLabel(s models.PlayerState) string {
	switch s {
	case models.PlayerFoundPage:
		return "found it"
	case models.PlayerForcedEnd:
		return "out of time"
	case models.PlayerConnecting:
		return "joining"
	}
	return string(s)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// sortedPlayers orders players by name
func sortedPlayers(players []models.Player) []models.Player {
	list := make([]models.Player, len(players))
	copy(list, players)
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Profile.Name) < strings.ToLower(list[j].Profile.Name)
	})
	return list
}
