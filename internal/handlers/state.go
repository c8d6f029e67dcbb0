package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/render"
)

// stateResponse is the JSON form of a coordinator snapshot
type stateResponse struct {
	Code        string                 `json:"code"`
	State       models.GameState       `json:"state"`
	IsHost      bool                   `json:"isHost"`
	Local       models.Player          `json:"local"`
	Players     []models.Player        `json:"players"`
	VoteInfo    *models.VoteInfo       `json:"voteInfo,omitempty"`
	RaceConfig  *models.RaceConfig     `json:"raceConfig,omitempty"`
	BonusPoints int                    `json:"bonusPoints"`
	Results     *models.ResultsInfo    `json:"results,omitempty"`
	HostResults bool                   `json:"hostResults"`
	Ready       []models.PlayerProfile `json:"ready"`
	Rounds      int                    `json:"rounds"`
}

// HandleState returns the current snapshot as JSON
func (ctx *Context) HandleState(w http.ResponseWriter, r *http.Request) {
	s, err := ctx.Coord.Snapshot(r.Context())
	if err != nil {
		commandError(w, err)
		return
	}
	resp := stateResponse{
		Code:        ctx.MatchCode,
		State:       s.State,
		IsHost:      s.IsHost,
		Local:       s.Local,
		Players:     s.Players,
		VoteInfo:    s.VoteInfo,
		RaceConfig:  s.RaceConfig,
		BonusPoints: s.BonusPoints,
		Results:     s.Results,
		HostResults: s.HostResults,
		Ready:       s.Ready,
		Rounds:      s.Rounds,
	}
	if resp.Ready == nil {
		resp.Ready = []models.PlayerProfile{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleResults renders the latest round's results table
func (ctx *Context) HandleResults(w http.ResponseWriter, r *http.Request) {
	s, err := ctx.Coord.Snapshot(r.Context())
	if err != nil {
		commandError(w, err)
		return
	}
	if s.Results == nil {
		http.Error(w, "no results yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(render.Results(s.Results, s.HostResults)))
}
