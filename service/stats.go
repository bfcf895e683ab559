package service

import (
	"sync"
	"time"

	"github.com/fallwind/s-node/database"
	"github.com/fallwind/s-node/database/model"
)

type visitKey struct {
	ip   string
	path string
}

// Visits are buffered in memory and flushed to the database by the
// stats job, so serving the subscription never waits on a write.
var (
	visitMu     sync.Mutex
	visitBuffer = make(map[visitKey]int64)
)

type StatsService struct {
}

// CountVisit records one subscription hit for the client address.
func (s *StatsService) CountVisit(ip string, path string) {
	visitMu.Lock()
	defer visitMu.Unlock()
	visitBuffer[visitKey{ip: ip, path: path}]++
}

// SaveStats drains the visit buffer into the database. The buffer is
// cleared either way; with stats disabled the hits are dropped.
func (s *StatsService) SaveStats(enable bool) error {
	visitMu.Lock()
	pending := visitBuffer
	visitBuffer = make(map[visitKey]int64)
	visitMu.Unlock()

	if !enable || len(pending) == 0 {
		return nil
	}

	dt := time.Now().Unix()
	visits := make([]model.SubVisit, 0, len(pending))
	for key, count := range pending {
		visits = append(visits, model.SubVisit{
			DateTime: dt,
			Ip:       key.ip,
			Path:     key.path,
			Count:    count,
		})
	}

	return database.GetDB().Create(&visits).Error
}

// GetStats returns the newest persisted visit rows.
func (s *StatsService) GetStats(limit int) ([]model.SubVisit, error) {
	db := database.GetDB()
	var visits []model.SubVisit
	err := db.Order("id desc").Limit(limit).Find(&visits).Error
	return visits, err
}

// TotalVisits sums all persisted hit counts.
func (s *StatsService) TotalVisits() (int64, error) {
	db := database.GetDB()
	var total *int64
	err := db.Model(model.SubVisit{}).Select("sum(count)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

// DelOldStats prunes visit rows and run history older than the
// retention window.
func (s *StatsService) DelOldStats(days int) error {
	db := database.GetDB()
	oldTime := time.Now().AddDate(0, 0, -days).Unix()
	err := db.Where("date_time < ?", oldTime).Delete(model.SubVisit{}).Error
	if err != nil {
		return err
	}
	return db.Where("date_time < ?", oldTime).Delete(model.Run{}).Error
}
