package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-insights/internal/weather"
)

// AlertChecker evaluates and records alerts for a watched place.
type AlertChecker interface {
	CheckAlerts(ctx context.Context, p weather.Place) (weather.AlertRecord, error)
}

// Scheduler periodically evaluates weather alerts for configured places.
type Scheduler struct {
	scheduler *gocron.Scheduler
	checker   AlertChecker
	places    []weather.Place
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(places []weather.Place, interval time.Duration, checker AlertChecker) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		checker:   checker,
		places:    places,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.places) == 0 {
		log.Println("scheduler: no watched places configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce checks every watched place concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	log.Println("scheduler: running alert check job")

	var wg sync.WaitGroup
	for _, p := range s.places {
		wg.Add(1)
		go func(p weather.Place) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if _, err := s.checker.CheckAlerts(ctx, p); err != nil {
				log.Printf("scheduler: alert check failed for %s: %v", p.Name, err)
			}
		}(p)
	}
	wg.Wait()
	log.Println("scheduler: completed alert check job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
