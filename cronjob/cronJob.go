package cronjob

import (
	"time"

	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"

	"github.com/robfig/cron/v3"
)

type CronJob struct {
	cron *cron.Cron
}

func NewCronJob() *CronJob {
	return &CronJob{}
}

func (c *CronJob) Start(loc *time.Location, trafficAge int, provision *service.ProvisionService) error {
	c.cron = cron.New(cron.WithLocation(loc), cron.WithSeconds())

	err := c.addJobs(trafficAge, provision)
	if err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

func (c *CronJob) addJobs(trafficAge int, provision *service.ProvisionService) error {
	_, err := c.cron.AddJob("@every 30s", NewStatsJob(trafficAge > 0))
	if err != nil {
		logger.Warning("add stats job failed: ", err)
		return err
	}

	_, err = c.cron.AddJob("@every 1m", NewTunnelJob(provision))
	if err != nil {
		logger.Warning("add tunnel job failed: ", err)
		return err
	}

	if trafficAge > 0 {
		_, err = c.cron.AddJob("@daily", NewDelStatsJob(trafficAge))
		if err != nil {
			logger.Warning("add delete stats job failed: ", err)
			return err
		}
	}

	return nil
}

func (c *CronJob) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}
