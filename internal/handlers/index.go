// Package handlers serves the local player's control surface: commands
// posted by the browser, the state as JSON and a server-sent event stream
// of HTML fragments.
package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/pages"
	"github.com/aaronzipp/link-race/internal/sse"
)

var debug bool

func init() {
	debug = os.Getenv("DEBUG") != ""
}

// Context holds shared application dependencies
type Context struct {
	Coord     *match.Coordinator
	Broker    *sse.Broker
	Lookup    pages.Lookup
	MatchCode string
	JoinURL   string
}

var indexTemplate = template.Must(template.New("index.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Link Race {{.Code}}</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
</head>
<body hx-ext="sse" sse-connect="/sse">
<header>
<p>Match <strong>{{.Code}}</strong> as {{.Name}}</p>
{{if .JoinURL}}<img src="/join.png" alt="Join {{.JoinURL}}" width="128" height="128">{{end}}
</header>
<div sse-swap="phase"></div>
<div sse-swap="error-message"></div>
<div sse-swap="countdown"></div>
<div sse-swap="race-config"></div>
<div sse-swap="bonus-update"></div>
<div sse-swap="vote-update"></div>
<div sse-swap="notice" hx-swap="beforeend"></div>
<div sse-swap="same-page"></div>
<div sse-swap="controls-update"></div>
<div sse-swap="ready-count"></div>
<div sse-swap="stats"></div>
<div sse-swap="results-update"></div>
<div sse-swap="player-update"></div>
</body>
</html>
`))

// Routes builds the router for the control surface
func (ctx *Context) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if debug {
		r.Use(middleware.Logger)
	}

	r.Get("/", ctx.HandleIndex)
	r.Get("/state", ctx.HandleState)
	r.Get("/results", ctx.HandleResults)
	r.Get("/sse", ctx.HandleSSE)
	r.Get("/join.png", ctx.HandleJoinCode)

	r.Route("/match", func(r chi.Router) {
		r.Post("/start", ctx.HandleStart)
		r.Post("/vote", ctx.HandleVote)
		r.Post("/quit", ctx.HandleQuit)
	})
	r.Route("/race", func(r chi.Router) {
		r.Post("/navigate", ctx.HandleNavigate)
		r.Post("/forfeit", ctx.HandleForfeit)
		r.Post("/help", ctx.HandleHelp)
	})
	r.Post("/results/ready", ctx.HandleReady)
	r.Post("/results/skip", ctx.HandleSkip)
	return r
}

// HandleIndex serves the page shell that subscribes to the event stream
func (ctx *Context) HandleIndex(w http.ResponseWriter, r *http.Request) {
	profile := ctx.Coord.Profile()
	data := struct {
		Code    string
		Name    string
		JoinURL string
	}{ctx.MatchCode, profile.Name, ctx.JoinURL}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("[handlers] render index: %v", err)
	}
}

// commandError writes the status matching a coordinator error
func commandError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, match.ErrWrongPhase):
		status = http.StatusConflict
	case errors.Is(err, match.ErrNotOnSlate):
		status = http.StatusBadRequest
	case errors.Is(err, match.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, match.ErrClosed):
		status = http.StatusGone
	}
	if debug || status == http.StatusInternalServerError {
		log.Printf("[handlers] command failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}
