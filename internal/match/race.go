package match

import (
	"context"
	"log"

	"github.com/aaronzipp/link-race/internal/game"
	"github.com/aaronzipp/link-race/internal/models"
)

// Navigate records that the local player left the current page for page.
// linkHere tells whether a link on the previous page was followed.
func (c *Coordinator) Navigate(ctx context.Context, page models.Page, linkHere bool, pixelsScrolled int) error {
	return c.call(ctx, func() error {
		if c.state != models.StateRace || c.active == nil || c.local.State != models.PlayerRacing {
			return ErrWrongPhase
		}
		now := c.now()
		target := c.active.Config.EndingPage

		var missed bool
		if prev, ok := c.local.LastPage(); ok {
			attrs := c.active.Attributes(prev)
			missed = attrs.Known && attrs.LinkOnPage && !page.Equal(target)
		}

		c.local.FinishedViewingCurrentPage(pixelsScrolled, now)
		c.local.NowViewing(page, linkHere, now)
		if page.Equal(target) {
			c.local.SetState(models.PlayerFoundPage, now)
			c.send(models.PlayerTextMessage(models.MessageFoundPage))
		} else if missed {
			c.send(models.PlayerTextMessage(models.MessageMissedLink))
		}
		c.publishLocal()

		if c.local.State == models.PlayerRacing {
			c.lookupLinks(page)
		}
		return nil
	})
}

// Forfeit gives up the current race
func (c *Coordinator) Forfeit(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state != models.StateRace || c.local.State != models.PlayerRacing {
			return ErrWrongPhase
		}
		c.local.SetState(models.PlayerForfeited, c.now())
		c.send(models.PlayerTextMessage(models.MessageForfeited))
		c.publishLocal()
		return nil
	})
}

// NeededHelp tells the others the local player looked at a hint
func (c *Coordinator) NeededHelp(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state != models.StateRace || c.local.State != models.PlayerRacing {
			return ErrWrongPhase
		}
		c.send(models.PlayerTextMessage(models.MessageNeededHelp))
		return nil
	})
}

// lookupLinks fetches the outbound links of page off the loop so the
// link-on-page and same-page checks can use them
func (c *Coordinator) lookupLinks(page models.Page) {
	gen := c.gen
	race := c.active
	ctx := c.ctx
	go func() {
		links, err := c.lookup.FetchOutboundLinks(ctx, page)
		c.post(func() {
			if gen != c.gen || c.active != race {
				return
			}
			if err != nil {
				if debug {
					log.Printf("[match] links of %s: %v", page, err)
				}
				return
			}
			race.RecordLinks(page, links)
			current, ok := c.local.LastPage()
			if !ok || !current.Equal(page) || c.local.State != models.PlayerRacing {
				return
			}
			if race.Attributes(page).LinkOnPage {
				c.send(models.PlayerTextMessage(models.MessageLinkOnPage))
			}
			c.checkSamePageAll()
		})
	}()
}

func (c *Coordinator) currentAttributes() (game.PageAttributes, bool) {
	if c.active == nil {
		return game.PageAttributes{}, false
	}
	page, ok := c.local.LastPage()
	if !ok {
		return game.PageAttributes{}, false
	}
	return c.active.Attributes(page), true
}

// checkSamePage emits a hint when other just joined the local player's page
func (c *Coordinator) checkSamePage(other models.Player) {
	attrs, ok := c.currentAttributes()
	if !ok || c.state != models.StateRace {
		return
	}
	if game.ShouldShowSamePage(c.local, other, attrs) {
		c.emit(Event{Kind: EventSamePage, Profiles: []models.PlayerProfile{other.Profile}})
	}
}

// checkSamePageAll compares the local player against every racer
func (c *Coordinator) checkSamePageAll() {
	attrs, ok := c.currentAttributes()
	if !ok || c.state != models.StateRace {
		return
	}
	var same []models.PlayerProfile
	for _, p := range c.roster.Players() {
		if game.ShouldShowSamePage(c.local, p, attrs) {
			same = append(same, p.Profile)
		}
	}
	if len(same) > 0 {
		c.emit(Event{Kind: EventSamePage, Profiles: same})
	}
}
