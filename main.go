package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaronzipp/link-race/internal/config"
	"github.com/aaronzipp/link-race/internal/handlers"
	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/pages"
	"github.com/aaronzipp/link-race/internal/sse"
	"github.com/aaronzipp/link-race/internal/store"
	"github.com/aaronzipp/link-race/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	profile := cfg.Profile()
	log.Printf("Player %s joining match %s (host=%v)", profile, cfg.Match.Code, cfg.Match.Host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seen candidates
	var seen store.SeenStore
	if cfg.Database.Path != "" {
		seen, err = store.NewSQLiteSeenStore(cfg.Database.Path, pages.FinalArticles())
		if err != nil {
			log.Fatalf("Failed to open seen store: %v", err)
		}
	} else {
		seen = store.NewMemorySeenStore(pages.FinalArticles())
	}
	defer seen.Close()

	// Article lookup
	var lookup pages.Lookup
	if cfg.Wiki.Offline {
		lookup = pages.CatalogueGraph(cfg.Wiki.BaseURL, time.Now().UnixNano())
		log.Println("Using the offline article graph")
	} else {
		lookup = pages.NewFetcher(cfg.Lookup())
		if err := pages.ConnectionTest(ctx, lookup, pages.ConnectionTestTimeout); err != nil {
			log.Fatalf("Wikipedia is not reachable: %v", err)
		}
	}

	// Transport
	var tr transport.Transport
	if cfg.Solo() {
		tr = transport.NewNetwork().Join(profile)
		log.Println("No relay configured, playing solo")
	} else {
		ws, err := transport.DialRelay(ctx, cfg.Relay.URL, cfg.Match.Code, profile)
		if err != nil {
			log.Fatalf("Failed to connect to relay: %v", err)
		}
		tr = ws
		log.Printf("Connected to relay %s", cfg.Relay.URL)
	}

	coord := match.New(cfg.Coordinator(), tr, lookup, seen)
	go func() {
		if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Coordinator stopped: %v", err)
		}
	}()

	hc := &handlers.Context{
		Coord:     coord,
		Broker:    sse.NewBroker(),
		Lookup:    lookup,
		MatchCode: cfg.Match.Code,
		JoinURL:   cfg.JoinURL(),
	}
	go hc.Pump(ctx)

	srv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     hc.Routes(),
		BaseContext: func(net.Listener) context.Context { return ctx }, // event streams end with the match
	}
	go func() {
		log.Printf("Server starting on %s", cfg.HTTP.PublicURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Leaving match...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := coord.Quit(shutdownCtx); err != nil && !errors.Is(err, match.ErrClosed) {
		log.Printf("quit: %v", err)
	}
	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := tr.Disconnect(); err != nil {
		log.Printf("disconnect: %v", err)
	}
	log.Println("Peer exited cleanly")
}
