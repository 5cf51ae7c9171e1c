// Package jobs holds scheduled background work.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"quickbite/internal/store"
)

// PartnerSweepJob periodically marks delivery partners offline after a
// window of inactivity, so stale partners stop appearing assignable.
type PartnerSweepJob struct {
	partners store.PartnerStore
	idleFor  time.Duration
	cron     *cron.Cron
}

// NewPartnerSweepJob creates the sweep; idleFor is how long a partner may
// be silent before going offline.
func NewPartnerSweepJob(partners store.PartnerStore, idleFor time.Duration) *PartnerSweepJob {
	return &PartnerSweepJob{
		partners: partners,
		idleFor:  idleFor,
		cron:     cron.New(),
	}
}

// Start schedules the sweep to run every minute.
func (j *PartnerSweepJob) Start() error {
	_, err := j.cron.AddFunc("* * * * *", func() {
		cutoff := time.Now().Add(-j.idleFor)
		n, err := j.partners.MarkIdlePartnersOffline(context.Background(), cutoff)
		if err != nil {
			log.Printf("partner sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("partner sweep: marked %d idle partner(s) offline", n)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop stops the sweep.
func (j *PartnerSweepJob) Stop() {
	j.cron.Stop()
}
