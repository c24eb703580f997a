package services

import (
	"context"
	"sync"
	"time"

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driving"
	"github.com/avishayil/git-llm-analyzer/internal/logger"
)

// DefaultRebuildQuiet is how long the source must be quiet before a rebuild.
const DefaultRebuildQuiet = 2 * time.Second

// Rebuilder re-ingests a watched source after it changes.
// Bursts of changes are coalesced into one rebuild once the source has been
// quiet for the configured period.
type Rebuilder struct {
	ingester driving.Ingester
	source   driven.WatchableSource
	quiet    time.Duration

	// OnStart is called before each rebuild with the number of coalesced
	// changes. Optional.
	OnStart func(changes int)

	// OnRebuild is called after every rebuild attempt. Optional.
	OnRebuild func(*domain.IngestReport, error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRebuilder creates a rebuilder. A non-positive quiet period uses
// DefaultRebuildQuiet.
func NewRebuilder(ingester driving.Ingester, source driven.WatchableSource, quiet time.Duration) *Rebuilder {
	if quiet <= 0 {
		quiet = DefaultRebuildQuiet
	}
	return &Rebuilder{
		ingester: ingester,
		source:   source,
		quiet:    quiet,
	}
}

// Start watches the source and rebuilds in the background.
// It returns once the watch is established.
func (r *Rebuilder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil // Already running
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	changes, err := r.source.Watch(watchCtx)
	if err != nil {
		cancel()
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		r.run(watchCtx, changes)
	}()
	return nil
}

// Stop ends the watch and waits for an in-flight rebuild to finish.
func (r *Rebuilder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
}

// run is the main loop: collect changes, wait for quiet, rebuild.
func (r *Rebuilder) run(ctx context.Context, changes <-chan domain.RawDocumentChange) {
	timer := time.NewTimer(r.quiet)
	if !timer.Stop() {
		<-timer.C
	}
	pending := 0

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-r.stopCh:
			timer.Stop()
			return

		case change, ok := <-changes:
			if !ok {
				return
			}
			logger.Debug("Change: %s %s", change.Type, change.Path)
			pending++
			timer.Reset(r.quiet)

		case <-timer.C:
			if pending == 0 {
				continue
			}
			logger.Info("Rebuilding after %d changes", pending)
			if r.OnStart != nil {
				r.OnStart(pending)
			}
			pending = 0
			report, err := r.ingester.Ingest(ctx, r.source)
			if err != nil {
				logger.Warn("Rebuild failed, keeping previous index: %v", err)
			}
			if r.OnRebuild != nil {
				r.OnRebuild(report, err)
			}
		}
	}
}
