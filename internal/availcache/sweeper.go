// Package availcache stores recent registrar answers so repeated searches do
// not spend registrar quota on the same domains.
package availcache

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Sweeper wraps robfig/cron and prunes a MemoryStore on a schedule.
type Sweeper struct {
	cron  *cron.Cron
	store *MemoryStore
	spec  string
}

// NewSweeper takes a cron spec such as "@every 10m".
func NewSweeper(store *MemoryStore, spec string) *Sweeper {
	return &Sweeper{
		cron:  cron.New(cron.WithLogger(cron.DefaultLogger)),
		store: store,
		spec:  spec,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("[availcache] Sweeper started, spec: %s", s.spec)
	return nil
}

// RunOnce prunes expired entries immediately.
func (s *Sweeper) RunOnce() {
	if removed := s.store.Sweep(); removed > 0 {
		log.Printf("[availcache] Swept %d expired entries, %d remain", removed, s.store.Len())
	}
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[availcache] Sweeper stopped")
}
