package worker

import (
	"github.com/spec-kit/campusdesk/internal/service"
)

// StartStatsWorker registers the stats cache invalidation handlers.
func StartStatsWorker(statsService *service.StatsService) {
	if statsService == nil {
		return
	}
	statsService.RegisterHandlers()
}
