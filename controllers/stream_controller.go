package controllers

import (
	"io"

	"github.com/gin-gonic/gin"

	"visitor-backend/services"
)

type StreamController struct {
	Feed *services.ChangeFeed
}

func NewStreamController(feed *services.ChangeFeed) *StreamController {
	return &StreamController{Feed: feed}
}

// Events streams change events over SSE. Clients re-run their queries on
// receipt; the events carry announcements, not authoritative state. Optional
// filters: ?entity_type= and ?site_id=.
func (sc *StreamController) Events(c *gin.Context) {
	entityType := c.Query("entity_type")
	siteID, hasSite := queryUint(c, "site_id")

	var filter func(services.ChangeEvent) bool
	if hasSite {
		filter = func(ev services.ChangeEvent) bool {
			return ev.SiteID == 0 || ev.SiteID == siteID
		}
	}

	ch, cancel := sc.Feed.Subscribe(entityType, filter)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		}
	})
}
