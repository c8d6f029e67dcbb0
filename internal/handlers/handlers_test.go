package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/pages"
	"github.com/aaronzipp/link-race/internal/sse"
	"github.com/aaronzipp/link-race/internal/store"
	"github.com/aaronzipp/link-race/internal/transport"
)

// stillScheduler never ticks, so countdowns hold the phase
type stillScheduler struct{}

func (stillScheduler) Every(time.Duration, func()) func() { return func() {} }

type testPeer struct {
	ctx    *Context
	server *httptest.Server
}

func newPeer(t *testing.T, network *transport.Network, name string, host bool) *testPeer {
	t.Helper()
	g := pages.NewGraph("https://wiki.test", 1)
	g.Link("Start", "Middle")
	for _, p := range []string{"Alpha", "Beta", "Gamma"} {
		g.Page(p)
	}
	profile := models.PlayerProfile{PlayerID: "id-" + name, Name: name}
	coord := match.New(match.Config{
		Profile:        profile,
		IsHost:         host,
		VotingDuration: 5 * time.Second,
		SlateSize:      3,
		EventBuffer:    256,
	}, network.Join(profile), g, store.NewMemorySeenStore([]string{"/Alpha", "/Beta", "/Gamma"}),
		match.WithScheduler(stillScheduler{}))

	runCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coord.Run(runCtx)

	hc := &Context{
		Coord:     coord,
		Broker:    sse.NewBroker(),
		Lookup:    g,
		MatchCode: "ABCDEF",
		JoinURL:   "http://localhost:8080/?code=ABCDEF",
	}
	go hc.Pump(runCtx)

	srv := httptest.NewServer(hc.Routes())
	t.Cleanup(srv.Close)
	return &testPeer{ctx: hc, server: srv}
}

func (p *testPeer) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(p.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

func (p *testPeer) state(t *testing.T) stateResponse {
	t.Helper()
	resp, err := http.Get(p.server.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /state status = %d", resp.StatusCode)
	}
	var s stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return s
}

func (p *testPeer) waitState(t *testing.T, cond func(stateResponse) bool) stateResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		s := p.state(t)
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("state never matched, last: %+v", s)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestVotingFlow(t *testing.T) {
	host := newPeer(t, transport.NewNetwork(), "Host", true)

	if s := host.state(t); s.State != models.StatePreMatch || !s.IsHost || s.Code != "ABCDEF" {
		t.Fatalf("initial state = %+v", s)
	}
	if resp := host.post(t, "/match/start", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	s := host.waitState(t, func(s stateResponse) bool {
		return s.VoteInfo != nil && len(s.VoteInfo.Pages) > 0
	})
	if s.State != models.StateVoting {
		t.Fatalf("state = %s, want voting", s.State)
	}

	if resp := host.post(t, "/match/start", nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", resp.StatusCode)
	}
	if resp := host.post(t, "/match/vote", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty vote status = %d, want 400", resp.StatusCode)
	}
	if resp := host.post(t, "/match/vote", url.Values{"page": {"https://wiki.test/wiki/Nowhere"}}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("off-slate vote status = %d, want 400", resp.StatusCode)
	}

	choice := s.VoteInfo.Pages[0]
	if resp := host.post(t, "/match/vote", url.Values{"page": {choice.URL}}); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("vote status = %d", resp.StatusCode)
	}
	host.waitState(t, func(s stateResponse) bool {
		return s.VoteInfo != nil && len(s.VoteInfo.Votes) == 1
	})

	if resp := host.post(t, "/race/navigate", url.Values{"url": {"/Middle"}}); resp.StatusCode != http.StatusConflict {
		t.Errorf("navigate while voting status = %d, want 409", resp.StatusCode)
	}
	if resp := host.post(t, "/race/forfeit", nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("forfeit while voting status = %d, want 409", resp.StatusCode)
	}
	if resp := host.post(t, "/results/skip", nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("skip while voting status = %d, want 409", resp.StatusCode)
	}
}

func TestNavigateValidation(t *testing.T) {
	p := newPeer(t, transport.NewNetwork(), "Host", true)
	tests := []struct {
		name string
		form url.Values
		want int
	}{
		{"missing url", url.Values{}, http.StatusBadRequest},
		{"bad pixels", url.Values{"url": {"/Middle"}, "pixels": {"-3"}}, http.StatusBadRequest},
		{"unknown page", url.Values{"url": {"/Nowhere"}}, http.StatusBadGateway},
		{"not racing", url.Values{"url": {"/Middle"}, "pixels": {"40"}, "link_here": {"true"}}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := p.post(t, "/race/navigate", tt.form); resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestGuestCannotSkip(t *testing.T) {
	network := transport.NewNetwork()
	newPeer(t, network, "Host", true)
	guest := newPeer(t, network, "Guest", false)

	if resp := guest.post(t, "/results/skip", nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("guest skip status = %d, want 403", resp.StatusCode)
	}
}

func TestQuitClosesSession(t *testing.T) {
	p := newPeer(t, transport.NewNetwork(), "Host", true)

	resp := p.post(t, "/match/quit", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("quit status = %d", resp.StatusCode)
	}
	if resp.Header.Get("HX-Redirect") != "/" {
		t.Errorf("missing HX-Redirect header")
	}
	if resp := p.post(t, "/match/start", nil); resp.StatusCode != http.StatusGone {
		t.Errorf("start after quit status = %d, want 410", resp.StatusCode)
	}
}

func TestResultsBeforeFirstRound(t *testing.T) {
	p := newPeer(t, transport.NewNetwork(), "Host", true)
	resp, err := http.Get(p.server.URL + "/results")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestJoinCode(t *testing.T) {
	p := newPeer(t, transport.NewNetwork(), "Host", true)
	resp, err := http.Get(p.server.URL + "/join.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d, type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	magic := make([]byte, 4)
	if _, err := resp.Body.Read(magic); err != nil || string(magic[1:]) != "PNG" {
		t.Errorf("body is not a PNG: %q", magic)
	}

	p.ctx.JoinURL = ""
	resp2, err := http.Get(p.server.URL + "/join.png")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("without join url status = %d, want 404", resp2.StatusCode)
	}
}

func TestIndexShell(t *testing.T) {
	p := newPeer(t, transport.NewNetwork(), "<Host>", true)
	resp, err := http.Get(p.server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var b strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
	}
	body := b.String()
	if !strings.Contains(body, `sse-connect="/sse"`) || !strings.Contains(body, "ABCDEF") {
		t.Errorf("index missing stream or code: %s", body)
	}
	if strings.Contains(body, "<Host>") {
		t.Error("player name not escaped")
	}
}

func TestEventStream(t *testing.T) {
	p := newPeer(t, transport.NewNetwork(), "Host", true)

	reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, p.server.URL+"/sse", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /sse: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	if resp := p.post(t, "/match/start", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("start status = %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
			continue
		}
		if event == sse.EventPhase && strings.Contains(line, "Vote for the target page") {
			return
		}
	}
	t.Fatalf("stream ended before the voting phase arrived: %v", scanner.Err())
}

func TestWriteEventSplitsLines(t *testing.T) {
	rec := httptest.NewRecorder()
	writeEvent(rec, sse.Message{Event: "notice", Data: "a\nb"})
	want := "event: notice\ndata: a\ndata: b\n\n"
	if rec.Body.String() != want {
		t.Errorf("got %q, want %q", rec.Body.String(), want)
	}
}
