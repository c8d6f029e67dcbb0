package game

import "github.com/aaronzipp/link-race/internal/models"

// ShouldShowSamePage reports whether local should be told that other is
// reading the same page. attrs describe that page; the hint is held back
// when the page links to the target so it never gives the answer away.
func ShouldShowSamePage(local, other models.Player, attrs PageAttributes) bool {
	if local.Profile == other.Profile {
		return false
	}
	if local.State != models.PlayerRacing || other.State != models.PlayerRacing {
		return false
	}
	if local.PagesViewed() < SamePageMinEntries || other.PagesViewed() < SamePageMinEntries {
		return false
	}
	if !openOnSamePage(local, other) {
		return false
	}
	return attrs.Known && !attrs.LinkOnPage && !attrs.FoundPage
}

func openOnSamePage(a, b models.Player) bool {
	la, lb := lastEntry(a), lastEntry(b)
	if la == nil || lb == nil {
		return false
	}
	if la.Duration != nil || lb.Duration != nil {
		return false
	}
	return la.Page.Equal(lb.Page)
}

func lastEntry(p models.Player) *models.HistoryEntry {
	if p.RaceHistory == nil || len(p.RaceHistory.Entries) == 0 {
		return nil
	}
	return &p.RaceHistory.Entries[len(p.RaceHistory.Entries)-1]
}
