package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/catalog"
	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/search"
)

// FactorLookup is the read API over the emission factor catalog.
type FactorLookup interface {
	Search(ctx context.Context, query string, lang domain.Language, maxResults int) ([]domain.ScoredFactor, error)
	GetByID(id string) (*domain.Factor, bool)
	SearchByCategory(category string, exact bool) []*domain.Factor
	SearchBySource(source string) []*domain.Factor
	Categories() []string
	Sources() []string
	Status() CatalogStatus
}

// CatalogStatus describes the catalog snapshot currently served.
type CatalogStatus struct {
	search.Stats
	Path       string    `json:"path"`
	Missing    bool      `json:"missing"`
	Skipped    int       `json:"skipped"`
	Duplicates int       `json:"duplicates"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// catalogSnapshot pairs an index with the load that produced it. Readers hold
// one snapshot for a whole call, so they never mix two loads.
type catalogSnapshot struct {
	index  *search.Index
	status CatalogStatus
}

// FactorCatalog serves one loaded catalog and its search index.
//
// The file is parsed on first use. Reload parses it again and publishes the
// new index in a single atomic store; in-flight readers finish on the
// snapshot they started with.
type FactorCatalog struct {
	path    string
	options []search.Option
	load    func(path string) (*catalog.Result, error)
	now     func() time.Time

	initOnce sync.Once
	reloadMu sync.Mutex
	current  atomic.Pointer[catalogSnapshot]
}

var _ FactorLookup = (*FactorCatalog)(nil)

// NewFactorCatalog creates a catalog for the file at path. Nothing is read
// until the first query, Warm or Reload.
func NewFactorCatalog(path string, opts ...search.Option) *FactorCatalog {
	return &FactorCatalog{
		path:    path,
		options: opts,
		load:    catalog.Load,
		now:     time.Now,
	}
}

// Path returns the catalog file path.
func (c *FactorCatalog) Path() string {
	return c.path
}

// Loaded reports whether a snapshot has been published.
func (c *FactorCatalog) Loaded() bool {
	return c.current.Load() != nil
}

// Warm triggers the initial load if it has not happened yet.
func (c *FactorCatalog) Warm(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_ = c.snapshot()
}

// snapshot returns the published snapshot, loading it on first use.
// A failed first load publishes an empty catalog so queries keep working.
func (c *FactorCatalog) snapshot() *catalogSnapshot {
	if s := c.current.Load(); s != nil {
		return s
	}
	c.initOnce.Do(func() {
		c.reloadMu.Lock()
		defer c.reloadMu.Unlock()
		if c.current.Load() != nil {
			return
		}

		snap, err := c.build()
		if err != nil {
			logger.Error("Emission factor catalog load failed; serving empty catalog",
				zap.String("path", c.path),
				zap.Error(err),
			)
			snap = c.emptySnapshot()
		}
		c.current.Store(snap)
	})
	return c.current.Load()
}

// Reload parses the catalog file again and swaps it in.
// On error the previous snapshot stays in service.
func (c *FactorCatalog) Reload(ctx context.Context) (CatalogStatus, error) {
	if err := ctx.Err(); err != nil {
		return CatalogStatus{}, err
	}
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	snap, err := c.build()
	if err != nil {
		logger.Error("Emission factor catalog reload failed; keeping previous catalog",
			zap.String("path", c.path),
			zap.Error(err),
		)
		return CatalogStatus{}, fmt.Errorf("reload catalog: %w", err)
	}
	c.current.Store(snap)
	return snap.status, nil
}

func (c *FactorCatalog) build() (*catalogSnapshot, error) {
	started := c.now()
	res, err := c.load(c.path)
	if err != nil {
		return nil, err
	}

	idx := search.New(res.Factors, c.options...)
	status := CatalogStatus{
		Stats:      idx.Stats(),
		Path:       c.path,
		Missing:    res.Missing,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
		LoadedAt:   c.now().UTC(),
	}

	if res.Missing {
		logger.Warn("Emission factor catalog file not found; serving empty catalog",
			zap.String("path", c.path),
		)
	} else {
		logger.Info("Emission factor catalog loaded",
			zap.String("path", c.path),
			zap.Int("factors", status.Total),
			zap.Int("valid", status.Valid),
			zap.Int("archived", status.Archived),
			zap.Int("categories", status.Categories),
			zap.Int("sources", status.Sources),
			zap.Int("skipped_rows", status.Skipped),
			zap.Int("duplicate_ids", status.Duplicates),
			zap.Duration("elapsed", c.now().Sub(started)),
		)
	}
	return &catalogSnapshot{index: idx, status: status}, nil
}

func (c *FactorCatalog) emptySnapshot() *catalogSnapshot {
	idx := search.New(nil, c.options...)
	return &catalogSnapshot{
		index: idx,
		status: CatalogStatus{
			Stats:    idx.Stats(),
			Path:     c.path,
			LoadedAt: c.now().UTC(),
		},
	}
}

// Search ranks non-archived factors against query.
func (c *FactorCatalog) Search(ctx context.Context, query string, lang domain.Language, maxResults int) ([]domain.ScoredFactor, error) {
	return c.snapshot().index.SearchContext(ctx, query, lang, maxResults)
}

// GetByID returns a factor by its ADEME identifier, archived or not.
func (c *FactorCatalog) GetByID(id string) (*domain.Factor, bool) {
	return c.snapshot().index.GetByID(id)
}

// SearchByCategory returns factors by category path.
func (c *FactorCatalog) SearchByCategory(category string, exact bool) []*domain.Factor {
	return c.snapshot().index.SearchByCategory(category, exact)
}

// SearchBySource returns factors published by source.
func (c *FactorCatalog) SearchBySource(source string) []*domain.Factor {
	return c.snapshot().index.SearchBySource(source)
}

// Categories returns the sorted distinct categories.
func (c *FactorCatalog) Categories() []string {
	return c.snapshot().index.Categories()
}

// Sources returns the sorted distinct sources.
func (c *FactorCatalog) Sources() []string {
	return c.snapshot().index.Sources()
}

// Factors returns every loaded factor in file order.
func (c *FactorCatalog) Factors() []*domain.Factor {
	return c.snapshot().index.Factors()
}

// Status describes the snapshot currently served.
func (c *FactorCatalog) Status() CatalogStatus {
	return c.snapshot().status
}
