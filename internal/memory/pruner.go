package memory

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// Pruner deletes memory records past the retention horizon on a fixed
// schedule.
type Pruner struct {
	db            *gorm.DB
	retentionDays int
	scheduleHours int
	stop          chan struct{}
}

// NewPruner creates a retention pruner
func NewPruner(db *gorm.DB, retentionDays, scheduleHours int) *Pruner {
	return &Pruner{
		db:            db,
		retentionDays: retentionDays,
		scheduleHours: scheduleHours,
		stop:          make(chan struct{}),
	}
}

// Start runs the prune loop. Intended to be launched as a goroutine.
func (p *Pruner) Start() {
	log.Printf("[Memory] Pruner started (every %d hours, retention %d days)", p.scheduleHours, p.retentionDays)
	ticker := time.NewTicker(time.Duration(p.scheduleHours) * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := p.PruneOnce(context.Background()); err != nil {
				log.Printf("[Memory] prune failed: %v", err)
			} else if n > 0 {
				log.Printf("[Memory] pruned %d expired records", n)
			}
		case <-p.stop:
			return
		}
	}
}

// Stop terminates the prune loop.
func (p *Pruner) Stop() {
	close(p.stop)
}

// PruneOnce deletes records older than the retention horizon and
// returns how many were removed.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.retentionDays)
	res := p.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&Record{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
