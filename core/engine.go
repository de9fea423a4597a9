package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/core/listing"
	"github.com/leadspider/leadspider/core/product"
	"github.com/leadspider/leadspider/internal/registry"
	"github.com/sirupsen/logrus"
)

// Discoverer lists the entities of a listing page. *listing.Discoverer
// satisfies it.
type Discoverer interface {
	Discover(ctx context.Context, listingURL string, maxItems int) ([]listing.Entity, error)
}

// Resolver resolves one entity. *product.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, entity listing.Entity) (product.Details, error)
}

// Pacer spaces out requests to the listing site.
// *antidetect.AdaptiveLimiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
	Reset()
}

// EngineConfig wires one run.
type EngineConfig struct {
	ListingURL string
	MaxItems   int
	RunID      string
	// Date is the run-scoped extraction date stamped on every record.
	Date     string
	Registry *registry.URLRegistry
	// Output is optional; records are always kept in memory.
	Output *Output
	Stats  *RunStats
	Logger logrus.FieldLogger
}

// Engine runs extraction passes: discover, then resolve every entity in
// order. Entities emitted by an earlier pass of the same run are skipped.
type Engine struct {
	discoverer Discoverer
	resolver   Resolver
	pacer      Pacer
	cfg        EngineConfig
	log        logrus.FieldLogger

	mu      sync.Mutex
	records []OutputRecord
}

func NewEngine(discoverer Discoverer, resolver Resolver, pacer Pacer, cfg EngineConfig) *Engine {
	if cfg.Registry == nil {
		cfg.Registry = registry.NewURLRegistry()
	}
	if cfg.Stats == nil {
		cfg.Stats = NewRunStats()
	}
	if cfg.Date == "" {
		cfg.Date = time.Now().Format(DateLayout)
	}
	var logger logrus.FieldLogger = Logger
	if cfg.Logger != nil {
		logger = cfg.Logger
	}
	if cfg.RunID != "" {
		logger = logger.WithField("run_id", cfg.RunID)
	}
	return &Engine{
		discoverer: discoverer,
		resolver:   resolver,
		pacer:      pacer,
		cfg:        cfg,
		log:        logger,
	}
}

// RunPass performs one full pass and returns the records it produced. A
// failing entity never aborts the pass; discovery failures and cancellation
// do.
func (e *Engine) RunPass(ctx context.Context) ([]OutputRecord, error) {
	e.cfg.Stats.IncrementPasses()
	if e.pacer != nil {
		e.pacer.Reset()
	}

	entities, err := e.discoverer.Discover(ctx, e.cfg.ListingURL, e.cfg.MaxItems)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", e.cfg.ListingURL, err)
	}
	e.cfg.Stats.AddEntitiesFound(len(entities))
	e.log.WithField("count", len(entities)).Info("entities to process")

	var pass []OutputRecord
	for i, entity := range entities {
		if err := ctx.Err(); err != nil {
			return pass, err
		}
		if e.cfg.Registry.Seen(entity.SourceURL) {
			e.cfg.Stats.IncrementSkipped()
			e.log.WithField("url", entity.SourceURL).Debug("already emitted this run, skipping")
			continue
		}
		if i > 0 && e.pacer != nil {
			if err := e.pacer.Wait(ctx); err != nil {
				return pass, err
			}
		}

		records, err := e.processEntity(ctx, entity)
		if err != nil {
			return pass, err
		}
		pass = append(pass, records...)
	}
	return pass, nil
}

// processEntity resolves entity and emits its records. Only cancellation is
// returned as an error.
func (e *Engine) processEntity(ctx context.Context, entity listing.Entity) ([]OutputRecord, error) {
	entry := e.log.WithFields(logrus.Fields{"url": entity.SourceURL, "product": entity.Name})
	entry.Info("processing entity")

	details, err := e.resolver.Resolve(ctx, entity)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.cfg.Stats.IncrementErrors()
		entry.WithField("error_class", browser.ClassifyError(err)).Warnf("entity failed, emitting empty record: %v", err)
		details = product.Details{}
	}

	records := BuildRecords(entity, details, e.cfg.Date, e.cfg.RunID)
	if e.cfg.Output != nil {
		for _, rec := range records {
			if _, err := e.cfg.Output.WriteRecord(rec); err != nil {
				entry.Errorf("write record: %v", err)
			}
		}
	}

	e.mu.Lock()
	e.records = append(e.records, records...)
	e.mu.Unlock()

	e.cfg.Registry.Duplicate(entity.SourceURL)
	e.cfg.Stats.IncrementProcessed()
	e.cfg.Stats.Observe(records)
	entry.WithFields(logrus.Fields{
		"website":  details.CanonicalWebsite,
		"strategy": details.WebsiteStrategy,
		"contacts": len(details.Contacts),
	}).Info("entity done")
	return records, nil
}

// Records returns every record produced so far, in emission order.
func (e *Engine) Records() []OutputRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]OutputRecord(nil), e.records...)
}

// Stats exposes the run counters.
func (e *Engine) Stats() *RunStats {
	return e.cfg.Stats
}
