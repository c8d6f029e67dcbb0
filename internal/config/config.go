// Package config loads a peer's settings from a YAML file, a .env file
// and RACE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aaronzipp/link-race/internal/game"
	"github.com/aaronzipp/link-race/internal/match"
	"github.com/aaronzipp/link-race/internal/models"
	"github.com/aaronzipp/link-race/internal/pages"
)

// Config holds the peer configuration
type Config struct {
	Player struct {
		ID   string `yaml:"id"`   // generated when empty
		Name string `yaml:"name"` // display name, required
	} `yaml:"player"`

	Match struct {
		Code            string        `yaml:"code"` // generated for hosts when empty
		Host            bool          `yaml:"host"`
		MaxRounds       int           `yaml:"max_rounds"` // 0 plays until someone quits
		VotingDuration  time.Duration `yaml:"voting_duration"`
		PreRaceDuration *time.Duration `yaml:"pre_race_duration"` // 0 starts the race at once
		ResultsDuration time.Duration `yaml:"results_duration"`
		BonusInterval   time.Duration `yaml:"bonus_interval"`
		BonusReward     int           `yaml:"bonus_reward"`
		SlateSize       int           `yaml:"slate_size"`
	} `yaml:"match"`

	Relay struct {
		URL string `yaml:"url"` // ws://host:port; empty plays solo
	} `yaml:"relay"`

	Wiki struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
		Offline bool          `yaml:"offline"` // use the built-in article graph
	} `yaml:"wiki"`

	Database struct {
		Path string `yaml:"path"` // SQLite file for seen candidates; empty keeps them in memory
	} `yaml:"database"`

	HTTP struct {
		Addr      string `yaml:"addr"`
		PublicURL string `yaml:"public_url"` // base of the join link shown as a QR code
	} `yaml:"http"`
}

// Load reads path (optional), applies .env and environment overrides,
// fills defaults and validates the result
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Player.ID = envOr("RACE_PLAYER_ID", c.Player.ID)
	c.Player.Name = envOr("RACE_PLAYER_NAME", c.Player.Name)
	c.Match.Code = envOr("RACE_MATCH_CODE", c.Match.Code)
	c.Match.Host = envBoolOr("RACE_HOST", c.Match.Host)
	c.Match.MaxRounds = envIntOr("RACE_MAX_ROUNDS", c.Match.MaxRounds)
	c.Match.VotingDuration = envDurationOr("RACE_VOTING_DURATION", c.Match.VotingDuration)
	c.Match.PreRaceDuration = envDurationPtrOr("RACE_PRE_RACE_DURATION", c.Match.PreRaceDuration)
	c.Match.ResultsDuration = envDurationOr("RACE_RESULTS_DURATION", c.Match.ResultsDuration)
	c.Relay.URL = envOr("RACE_RELAY_URL", c.Relay.URL)
	c.Wiki.BaseURL = envOr("RACE_WIKI_URL", c.Wiki.BaseURL)
	c.Wiki.Offline = envBoolOr("RACE_OFFLINE", c.Wiki.Offline)
	c.Database.Path = envOr("RACE_DB_PATH", c.Database.Path)
	c.HTTP.Addr = envOr("RACE_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.PublicURL = envOr("RACE_PUBLIC_URL", c.HTTP.PublicURL)
}

func (c *Config) defaults() {
	c.Player.Name = strings.TrimSpace(c.Player.Name)
	if c.Player.ID == "" {
		c.Player.ID = uuid.NewString()
	}
	c.Match.Code = strings.ToUpper(strings.TrimSpace(c.Match.Code))
	if c.Relay.URL == "" {
		// solo play: nobody else can host
		c.Match.Host = true
	}
	if c.Match.Host && c.Match.Code == "" {
		c.Match.Code = game.GenerateMatchCode()
	}
	if c.Match.VotingDuration == 0 {
		c.Match.VotingDuration = game.VotingDuration
	}
	if c.Match.PreRaceDuration == nil || *c.Match.PreRaceDuration < 0 {
		d := game.PreRaceDuration
		c.Match.PreRaceDuration = &d
	}
	if c.Match.ResultsDuration == 0 {
		c.Match.ResultsDuration = game.ResultsDuration
	}
	if c.Match.BonusInterval == 0 {
		c.Match.BonusInterval = game.BonusPointInterval
	}
	if c.Match.BonusReward == 0 {
		c.Match.BonusReward = game.BonusPointReward
	}
	if c.Match.SlateSize == 0 {
		c.Match.SlateSize = game.VotingArticlesCount
	}
	if c.Wiki.BaseURL == "" {
		c.Wiki.BaseURL = pages.DefaultBaseURL
	}
	if c.Wiki.Timeout == 0 {
		c.Wiki.Timeout = pages.DefaultTimeout
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.PublicURL == "" {
		c.HTTP.PublicURL = "http://localhost" + c.HTTP.Addr
	}
}

func (c *Config) validate() error {
	if c.Player.Name == "" {
		return fmt.Errorf("player.name is required")
	}
	if strings.Contains(c.Player.ID, ":") {
		return fmt.Errorf("player.id must not contain ':'")
	}
	if c.Match.Code == "" {
		return fmt.Errorf("match.code is required to join a match")
	}
	if c.Match.MaxRounds < 0 {
		return fmt.Errorf("match.max_rounds must not be negative")
	}
	if c.Match.SlateSize < 1 {
		return fmt.Errorf("match.slate_size must be at least 1")
	}
	if c.Match.VotingDuration < time.Second {
		return fmt.Errorf("match.voting_duration must be at least 1s")
	}
	return nil
}

// Profile is the local player's identity
func (c *Config) Profile() models.PlayerProfile {
	return models.PlayerProfile{PlayerID: c.Player.ID, Name: c.Player.Name}
}

// Solo reports whether the peer plays without a relay
func (c *Config) Solo() bool {
	return c.Relay.URL == ""
}

// Coordinator converts the match settings for match.New
func (c *Config) Coordinator() match.Config {
	return match.Config{
		Profile:         c.Profile(),
		IsHost:          c.Match.Host,
		VotingDuration:  c.Match.VotingDuration,
		PreRaceDuration: *c.Match.PreRaceDuration,
		ResultsDuration: c.Match.ResultsDuration,
		BonusInterval:   c.Match.BonusInterval,
		BonusReward:     c.Match.BonusReward,
		SlateSize:       c.Match.SlateSize,
		MaxRounds:       c.Match.MaxRounds,
	}
}

// JoinURL is the link other players open to join this match. Solo
// matches have none.
func (c *Config) JoinURL() string {
	if c.Solo() {
		return ""
	}
	q := url.Values{}
	q.Set("code", c.Match.Code)
	q.Set("relay", c.Relay.URL)
	return strings.TrimSuffix(c.HTTP.PublicURL, "/") + "/?" + q.Encode()
}

// Lookup settings for pages.NewFetcher
func (c *Config) Lookup() pages.Config {
	return pages.Config{BaseURL: c.Wiki.BaseURL, Timeout: c.Wiki.Timeout}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envDurationPtrOr(key string, fallback *time.Duration) *time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return &d
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
