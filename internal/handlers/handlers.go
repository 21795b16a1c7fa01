package handlers

import (
	"github.com/quillfeed/quillfeed/internal/engagement"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/social"
	"github.com/quillfeed/quillfeed/internal/threads"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	engagement *engagement.Service
	social     *social.Service
	threads    *threads.Service
	feed       *feed.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(engagementSvc *engagement.Service, socialSvc *social.Service, threadsSvc *threads.Service, feedSvc *feed.Service) *Handlers {
	return &Handlers{
		engagement: engagementSvc,
		social:     socialSvc,
		threads:    threadsSvc,
		feed:       feedSvc,
	}
}
