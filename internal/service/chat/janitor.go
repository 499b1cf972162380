package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartJanitor evicts sessions idle for longer than ttl on the given cron
// schedule (e.g. "@every 1m") until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, schedule string, ttl time.Duration) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(schedule, func() {
		if removed := s.EvictIdle(ttl); removed > 0 {
			log.Printf("[chat] evicted %d idle sessions", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
