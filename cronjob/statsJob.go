package cronjob

import (
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"
)

// StatsJob flushes the buffered subscription visit counters to the
// database. With persistence off the buffer is still drained so it
// cannot grow without bound.
type StatsJob struct {
	service.StatsService
	persist bool
}

func NewStatsJob(persist bool) *StatsJob {
	return &StatsJob{
		persist: persist,
	}
}

func (s *StatsJob) Run() {
	err := s.StatsService.SaveStats(s.persist)
	if err != nil {
		logger.Warning("Save visit stats failed: ", err)
	}
}
