package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aaronzipp/link-race/internal/models"
)

// HandleStart announces the local player; on the host it opens the first vote
func (ctx *Context) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := ctx.Coord.StartMatch(r.Context()); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVote records a vote for the slate page in the "page" form field
func (ctx *Context) HandleVote(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.FormValue("page"))
	if raw == "" {
		http.Error(w, "page is required", http.StatusBadRequest)
		return
	}
	if err := ctx.Coord.Vote(r.Context(), models.NewPage(raw, "")); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleQuit leaves the match
func (ctx *Context) HandleQuit(w http.ResponseWriter, r *http.Request) {
	if err := ctx.Coord.Quit(r.Context()); err != nil {
		commandError(w, err)
		return
	}
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusNoContent)
}

// HandleNavigate records a page visit. The "url" field is resolved to the
// canonical article so redirects count as the page they land on.
func (ctx *Context) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.FormValue("url"))
	if raw == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	pixels := 0
	if v := r.FormValue("pixels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "pixels must be a non-negative integer", http.StatusBadRequest)
			return
		}
		pixels = n
	}
	linkHere, _ := strconv.ParseBool(r.FormValue("link_here"))

	page, _, err := ctx.Lookup.Resolve(r.Context(), raw)
	if err != nil {
		http.Error(w, "could not resolve page: "+err.Error(), http.StatusBadGateway)
		return
	}
	if err := ctx.Coord.Navigate(r.Context(), page, linkHere, pixels); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleForfeit gives up the current race
func (ctx *Context) HandleForfeit(w http.ResponseWriter, r *http.Request) {
	if err := ctx.Coord.Forfeit(r.Context()); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHelp tells the other racers the local player needed help
func (ctx *Context) HandleHelp(w http.ResponseWriter, r *http.Request) {
	if err := ctx.Coord.NeededHelp(r.Context()); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReady marks the local player ready for the next round
func (ctx *Context) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := ctx.Coord.Ready(r.Context()); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSkip lets the host end the results phase early
func (ctx *Context) HandleSkip(w http.ResponseWriter, r *http.Request) {
	if err := ctx.Coord.SkipResults(r.Context()); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
