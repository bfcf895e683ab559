package cronjob

import (
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"
)

// DelStatsJob prunes subscription visit rows and run history past the
// retention window.
type DelStatsJob struct {
	service.StatsService
	retentionDays int
}

func NewDelStatsJob(retentionDays int) *DelStatsJob {
	return &DelStatsJob{
		retentionDays: retentionDays,
	}
}

func (s *DelStatsJob) Run() {
	err := s.StatsService.DelOldStats(s.retentionDays)
	if err != nil {
		logger.Warning("Pruning old visit and run rows failed: ", err)
		return
	}
	logger.Debug("visit and run rows older than ", s.retentionDays, " days were deleted")
}
