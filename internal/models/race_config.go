package models

import "errors"

// ErrNoSelection is returned when no vote has been cast yet
var ErrNoSelection = errors.New("no final page selected")

// RaceConfig is the start/end page pair of one round
type RaceConfig struct {
	StartingPage Page `json:"startingPage"`
	EndingPage   Page `json:"endingPage"`
}

// VoteInfo is the candidate slate and the votes cast on it
type VoteInfo struct {
	Pages []Page                 `json:"pages"`
	Votes map[PlayerProfile]Page `json:"votes"`
}

// VoteTally is the weighted total for one candidate
type VoteTally struct {
	Page   Page `json:"page"`
	Weight int  `json:"weight"`
	Votes  int  `json:"votes"`
}

// NewVoteInfo builds a slate, dropping duplicate URLs but keeping order
func NewVoteInfo(pages []Page) VoteInfo {
	seen := make(map[string]bool, len(pages))
	slate := make([]Page, 0, len(pages))
	for _, p := range pages {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		slate = append(slate, p)
	}
	return VoteInfo{Pages: slate, Votes: make(map[PlayerProfile]Page)}
}

// Index returns the slate position of page, or -1
func (v *VoteInfo) Index(page Page) int {
	for i, p := range v.Pages {
		if p.Equal(page) {
			return i
		}
	}
	return -1
}

// PlayerVoted records (or replaces) a vote. Pages off the slate are rejected.
func (v *VoteInfo) PlayerVoted(profile PlayerProfile, page Page) bool {
	i := v.Index(page)
	if i < 0 {
		return false
	}
	if v.Votes == nil {
		v.Votes = make(map[PlayerProfile]Page)
	}
	v.Votes[profile] = v.Pages[i]
	return true
}

// Tally sums voter weights per slate page, in slate order
func (v *VoteInfo) Tally(weights map[PlayerProfile]int) []VoteTally {
	tallies := make([]VoteTally, len(v.Pages))
	for i, p := range v.Pages {
		tallies[i].Page = p
	}
	for voter, page := range v.Votes {
		i := v.Index(page)
		if i < 0 {
			continue
		}
		tallies[i].Weight += weights[voter]
		tallies[i].Votes++
	}
	return tallies
}

// SelectFinalPage picks the winning candidate. Only voted pages are
// eligible; the highest weight wins, then the most votes, then the
// earliest slate position. ok is false when nobody has voted.
func (v *VoteInfo) SelectFinalPage(weights map[PlayerProfile]int) (Page, bool) {
	best := -1
	tallies := v.Tally(weights)
	for i, t := range tallies {
		if t.Votes == 0 {
			continue
		}
		if best < 0 ||
			t.Weight > tallies[best].Weight ||
			(t.Weight == tallies[best].Weight && t.Votes > tallies[best].Votes) {
			best = i
		}
	}
	if best < 0 {
		return Page{}, false
	}
	return tallies[best].Page, true
}

// Clone deep-copies the vote map
func (v VoteInfo) Clone() VoteInfo {
	c := VoteInfo{Pages: append([]Page(nil), v.Pages...), Votes: make(map[PlayerProfile]Page, len(v.Votes))}
	for k, p := range v.Votes {
		c.Votes[k] = p
	}
	return c
}

// PreRaceConfig is the starting page plus the voting state
type PreRaceConfig struct {
	StartingPage Page     `json:"startingPage"`
	VoteInfo     VoteInfo `json:"voteInfo"`
}

// RaceConfig resolves the vote into the round's page pair
func (c *PreRaceConfig) RaceConfig(weights map[PlayerProfile]int) (RaceConfig, error) {
	end, ok := c.VoteInfo.SelectFinalPage(weights)
	if !ok {
		return RaceConfig{}, ErrNoSelection
	}
	return RaceConfig{StartingPage: c.StartingPage, EndingPage: end}, nil
}
