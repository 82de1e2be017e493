package workers

import (
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"contest-hub-system/models"
)

// CounterReconciler repairs drift between the denormalized counters
// (contests.participants_count, users.participated_count) and the
// participation rows they summarize. The recording path keeps them in step
// transactionally; this sweep cleans up anything imported from the legacy
// store or left behind by manual surgery.
type CounterReconciler struct {
	DB *gorm.DB

	mu      sync.Mutex
	running bool
}

func NewCounterReconciler(db *gorm.DB) *CounterReconciler {
	return &CounterReconciler{DB: db}
}

type counterDrift struct {
	Key    string
	Stored int
	Actual int
}

// SweepOnce runs a single reconciliation pass and returns how many rows were
// repaired. Overlapping sweeps are skipped, not queued.
func (r *CounterReconciler) SweepOnce() (int, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return 0, nil
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	repaired := 0

	var contestDrift []counterDrift
	err := r.DB.Raw(`
        SELECT c.id AS key, c.participants_count AS stored, COUNT(p.id) AS actual
        FROM contests c
        LEFT JOIN participations p ON p.contest_id = c.id
        GROUP BY c.id, c.participants_count
        HAVING c.participants_count <> COUNT(p.id)
    `).Scan(&contestDrift).Error
	if err != nil {
		return repaired, err
	}
	for _, d := range contestDrift {
		result := r.DB.Model(&models.Contest{}).Where("id = ?", d.Key).
			Update("participants_count", d.Actual)
		if result.Error != nil {
			log.Printf("[RECONCILE] failed to repair contest %s: %v", d.Key, result.Error)
			continue
		}
		log.Printf("[RECONCILE] contest %s participants_count %d -> %d", d.Key, d.Stored, d.Actual)
		repaired++
	}

	var userDrift []counterDrift
	err = r.DB.Raw(`
        SELECT u.email AS key, u.participated_count AS stored, COUNT(p.id) AS actual
        FROM users u
        LEFT JOIN participations p ON p.participant_email = u.email
        GROUP BY u.email, u.participated_count
        HAVING u.participated_count <> COUNT(p.id)
    `).Scan(&userDrift).Error
	if err != nil {
		return repaired, err
	}
	for _, d := range userDrift {
		result := r.DB.Model(&models.User{}).Where("email = ?", d.Key).
			Update("participated_count", d.Actual)
		if result.Error != nil {
			log.Printf("[RECONCILE] failed to repair user %s: %v", d.Key, result.Error)
			continue
		}
		log.Printf("[RECONCILE] user %s participated_count %d -> %d", d.Key, d.Stored, d.Actual)
		repaired++
	}

	return repaired, nil
}

// Start schedules the periodic sweep.
func (r *CounterReconciler) Start(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n, err := r.SweepOnce(); err != nil {
				log.Printf("[RECONCILE] sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[RECONCILE] repaired %d counters", n)
			}
		}),
	)
}
