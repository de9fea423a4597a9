package core

import (
	"sync/atomic"
	"time"
)

// RunStats counts progress across all passes of a run.
type RunStats struct {
	entitiesFound     int64
	entitiesProcessed int64
	entitiesSkipped   int64
	errors            int64
	recordsEmitted    int64
	websitesFound     int64
	emailsFound       int64
	passes            int64
}

func NewRunStats() *RunStats {
	return &RunStats{}
}

func (s *RunStats) AddEntitiesFound(count int) {
	if count > 0 {
		atomic.AddInt64(&s.entitiesFound, int64(count))
	}
}

func (s *RunStats) IncrementProcessed() {
	atomic.AddInt64(&s.entitiesProcessed, 1)
}

func (s *RunStats) IncrementSkipped() {
	atomic.AddInt64(&s.entitiesSkipped, 1)
}

func (s *RunStats) IncrementErrors() {
	atomic.AddInt64(&s.errors, 1)
}

func (s *RunStats) IncrementPasses() {
	atomic.AddInt64(&s.passes, 1)
}

// Observe counts one emitted record batch for a single entity.
func (s *RunStats) Observe(records []OutputRecord) {
	atomic.AddInt64(&s.recordsEmitted, int64(len(records)))
	if len(records) == 0 {
		return
	}
	if records[0].ProductWebsite != "" {
		atomic.AddInt64(&s.websitesFound, 1)
	}
	for _, r := range records {
		if r.MakerEmail != "" || r.SiteEmail != "" {
			atomic.AddInt64(&s.emailsFound, 1)
			return
		}
	}
}

func (s *RunStats) GetEntitiesFound() int64 {
	return atomic.LoadInt64(&s.entitiesFound)
}

func (s *RunStats) GetProcessed() int64 {
	return atomic.LoadInt64(&s.entitiesProcessed)
}

func (s *RunStats) GetSkipped() int64 {
	return atomic.LoadInt64(&s.entitiesSkipped)
}

func (s *RunStats) GetErrors() int64 {
	return atomic.LoadInt64(&s.errors)
}

func (s *RunStats) GetRecords() int64 {
	return atomic.LoadInt64(&s.recordsEmitted)
}

// GetWebsites counts entities with a resolved website.
func (s *RunStats) GetWebsites() int64 {
	return atomic.LoadInt64(&s.websitesFound)
}

// GetEmails counts entities with at least one email.
func (s *RunStats) GetEmails() int64 {
	return atomic.LoadInt64(&s.emailsFound)
}

func (s *RunStats) GetPasses() int64 {
	return atomic.LoadInt64(&s.passes)
}

// GetRate returns processed entities per minute.
func (s *RunStats) GetRate(elapsed time.Duration) float64 {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(s.GetProcessed()) / minutes
}
