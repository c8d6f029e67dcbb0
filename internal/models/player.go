package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PlayerProfile is the stable identity of a participant
type PlayerProfile struct {
	PlayerID string
	Name     string
}

// MarshalText lets profiles be used as JSON map keys
func (p PlayerProfile) MarshalText() ([]byte, error) {
	return []byte(url.QueryEscape(p.PlayerID) + ":" + url.QueryEscape(p.Name)), nil
}

// UnmarshalText parses the form written by MarshalText
func (p *PlayerProfile) UnmarshalText(text []byte) error {
	id, name, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("player profile %q: missing separator", text)
	}
	var err error
	if p.PlayerID, err = url.QueryUnescape(id); err != nil {
		return fmt.Errorf("player profile id: %w", err)
	}
	if p.Name, err = url.QueryUnescape(name); err != nil {
		return fmt.Errorf("player profile name: %w", err)
	}
	return nil
}

func (p PlayerProfile) String() string {
	return p.Name
}

// PlayerState is where a player is in the match lifecycle
type PlayerState string

const (
	PlayerConnecting PlayerState = "connecting"
	PlayerVoting     PlayerState = "voting"
	PlayerRacing     PlayerState = "racing"
	PlayerFoundPage  PlayerState = "foundPage"
	PlayerForcedEnd  PlayerState = "forcedEnd"
	PlayerForfeited  PlayerState = "forfeited"
	PlayerQuit       PlayerState = "quit"
)

// IsTerminal reports whether the state ends a player's race
func (s PlayerState) IsTerminal() bool {
	switch s {
	case PlayerFoundPage, PlayerForcedEnd, PlayerForfeited, PlayerQuit:
		return true
	}
	return false
}

// HistoryEntry is one page visited during a race
type HistoryEntry struct {
	Page     Page           `json:"page"`
	Date     time.Time      `json:"date"`
	Duration *time.Duration `json:"duration,omitempty"` // nil while still on the page
	LinkHere bool           `json:"linkHere"`
	ByteSize int            `json:"byteSize,omitempty"`
}

// RaceHistory is the append-only navigation log of one race
type RaceHistory struct {
	Entries        []HistoryEntry `json:"entries"`
	PixelsScrolled int            `json:"pixelsScrolled"`
}

// ClosedDuration sums the durations of every page the player has left
func (h *RaceHistory) ClosedDuration() time.Duration {
	if h == nil {
		return 0
	}
	var total time.Duration
	for _, e := range h.Entries {
		if e.Duration != nil {
			total += *e.Duration
		}
	}
	return total
}

// Duration is ClosedDuration plus the running time on an open entry
func (h *RaceHistory) Duration(now time.Time) time.Duration {
	total := h.ClosedDuration()
	if last := h.last(); last != nil && last.Duration == nil {
		total += now.Sub(last.Date)
	}
	return total
}

// LastPage returns the most recently visited page
func (h *RaceHistory) LastPage() (Page, bool) {
	if last := h.last(); last != nil {
		return last.Page, true
	}
	return Page{}, false
}

// PagesViewed counts the pages in the history
func (h *RaceHistory) PagesViewed() int {
	if h == nil {
		return 0
	}
	return len(h.Entries)
}

func (h *RaceHistory) last() *HistoryEntry {
	if h == nil || len(h.Entries) == 0 {
		return nil
	}
	return &h.Entries[len(h.Entries)-1]
}

func (h *RaceHistory) closeLast(now time.Time) {
	last := h.last()
	if last == nil || last.Duration != nil {
		return
	}
	d := now.Sub(last.Date)
	if d < 0 {
		d = 0
	}
	last.Duration = &d
}

func (h *RaceHistory) clone() *RaceHistory {
	if h == nil {
		return nil
	}
	c := &RaceHistory{
		Entries:        make([]HistoryEntry, len(h.Entries)),
		PixelsScrolled: h.PixelsScrolled,
	}
	copy(c.Entries, h.Entries)
	for i, e := range c.Entries {
		if e.Duration != nil {
			d := *e.Duration
			c.Entries[i].Duration = &d
		}
	}
	return c
}

// Player is a participant snapshot. Identity is the profile, not the state.
type Player struct {
	Profile     PlayerProfile `json:"profile"`
	State       PlayerState   `json:"state"`
	RaceHistory *RaceHistory  `json:"raceHistory,omitempty"`
	IsHost      bool          `json:"isHost"`

	// HasReceivedPointsForCurrentRace stops points being credited twice
	HasReceivedPointsForCurrentRace bool `json:"hasReceivedPointsForCurrentRace"`

	// Seq increases every time the owner publishes a snapshot
	Seq uint64 `json:"seq"`
}

// NewPlayer creates a player in the connecting state
func NewPlayer(profile PlayerProfile, isHost bool) *Player {
	return &Player{Profile: profile, State: PlayerConnecting, IsHost: isHost}
}

// Clone returns a deep copy safe to hand to another owner
func (p Player) Clone() Player {
	p.RaceHistory = p.RaceHistory.clone()
	return p
}

// StartedNewRace opens a fresh history on the starting page
func (p *Player) StartedNewRace(start Page, now time.Time) {
	p.State = PlayerRacing
	p.HasReceivedPointsForCurrentRace = false
	p.RaceHistory = &RaceHistory{
		Entries: []HistoryEntry{{Page: start, Date: now}},
	}
}

// FinishedViewingCurrentPage closes the open history entry
func (p *Player) FinishedViewingCurrentPage(pixelsScrolled int, now time.Time) {
	if p.RaceHistory == nil {
		return
	}
	p.RaceHistory.PixelsScrolled += pixelsScrolled
	p.RaceHistory.closeLast(now)
}

// NowViewing appends an open entry for page
func (p *Player) NowViewing(page Page, linkHere bool, now time.Time) {
	if p.RaceHistory == nil {
		p.RaceHistory = &RaceHistory{}
	}
	p.RaceHistory.Entries = append(p.RaceHistory.Entries, HistoryEntry{
		Page:     page,
		Date:     now,
		LinkHere: linkHere,
	})
}

// SetState moves the player to state; leaving racing stops the clock
func (p *Player) SetState(state PlayerState, now time.Time) {
	if p.State == PlayerRacing && state != PlayerRacing && p.RaceHistory != nil {
		p.RaceHistory.closeLast(now)
	}
	p.State = state
}

// Duration is the elapsed race time
func (p *Player) Duration(now time.Time) time.Duration {
	return p.RaceHistory.Duration(now)
}

// LastPage is the page the player is currently on
func (p *Player) LastPage() (Page, bool) {
	return p.RaceHistory.LastPage()
}

// PagesViewed counts visited pages
func (p *Player) PagesViewed() int {
	return p.RaceHistory.PagesViewed()
}
