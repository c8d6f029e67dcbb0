package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/aaronzipp/link-race/internal/sse"
)

// HandleSSE streams rendered coordinator events to the browser
func (ctx *Context) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering in nginx/proxies
	flusher.Flush()

	clientChan := make(chan sse.Message, sse.BufferSize)
	replay := ctx.Broker.AddClient(clientChan)
	defer ctx.Broker.RemoveClient(clientChan)
	if debug {
		log.Printf("[handlers] sse client connected, now have %d clients", ctx.Broker.ClientCount())
	}

	// Send the latest fragment of every stateful event first
	for _, msg := range replay {
		writeEvent(w, msg)
	}
	flusher.Flush()

	reqCtx := r.Context()
	for {
		select {
		case <-reqCtx.Done():
			if debug {
				log.Printf("[handlers] sse client disconnected")
			}
			return
		case msg := <-clientChan:
			writeEvent(w, msg)
			flusher.Flush()
		}
	}
}

// writeEvent frames one message; multi-line data gets one data field per line
func writeEvent(w http.ResponseWriter, msg sse.Message) {
	fmt.Fprintf(w, "event: %s\n", msg.Event)
	for _, line := range strings.Split(msg.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
