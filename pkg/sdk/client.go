package autorovers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/db"
	dbFile "github.com/autorovers/autorovers/internal/db/file"
	dbMemory "github.com/autorovers/autorovers/internal/db/memory"
	dbRedis "github.com/autorovers/autorovers/internal/db/redis"
	"github.com/autorovers/autorovers/internal/domain/classify"
	"github.com/autorovers/autorovers/internal/domain/comparison"
	"github.com/autorovers/autorovers/internal/repository/detailcache"
	selectionrepo "github.com/autorovers/autorovers/internal/repository/selection"
	vehicletyperepo "github.com/autorovers/autorovers/internal/repository/vehicletype"
	"github.com/autorovers/autorovers/internal/transport/catalog"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
	healthuc "github.com/autorovers/autorovers/internal/usecase/health"
	selectionuc "github.com/autorovers/autorovers/internal/usecase/selection"
	vehicletypeuc "github.com/autorovers/autorovers/internal/usecase/vehicletype"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCatalogTimeout   = 10 * time.Second
	defaultKeyPrefix        = "autorovers:"
)

// Client is the autorovers SDK entry point.
type Client struct {
	store      db.Store
	classifier *classify.Classifier
	fetcher    Fetcher
	selSvc     *selectionuc.Service
	typeSvc    *vehicletypeuc.Service
	cmpSvc     *compareuc.Service
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a Client and connects to the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{prefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("autorovers: store required (use WithValkey, WithRedis, WithFileStore or WithMemoryStore)")
	}
	if cfg.fetcher == nil && cfg.catalogURL == "" {
		return nil, errors.New("autorovers: vehicle source required (use WithCatalog or WithFetcher)")
	}

	policy, err := comparison.ParsePolicy(cfg.validation, cfg.fuel)
	if err != nil {
		return nil, fmt.Errorf("autorovers: %w", err)
	}

	cls := classify.Default()
	if cfg.carCategories != nil || cfg.bikeCategories != nil {
		cls, err = classify.New(cfg.carCategories, cfg.bikeCategories)
		if err != nil {
			return nil, fmt.Errorf("autorovers: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("autorovers: store not ready: %w", err)
	}

	return wireClient(store, cfg, cls, policy, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("autorovers: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "file":
		s, err := dbFile.NewStore(cfg.fileDir)
		if err != nil {
			return nil, fmt.Errorf("autorovers: create file store: %w", err)
		}
		return s, nil
	case "memory":
		return dbMemory.New(), nil
	default:
		return nil, fmt.Errorf("autorovers: unknown driver %q", cfg.driver)
	}
}

func wireClient(
	store db.Store, cfg *clientConfig, cls *classify.Classifier,
	policy comparison.Policy, obs *observer,
) *Client {
	logger := zap.NewNop()

	fetcher := cfg.fetcher
	var catalogChecker healthuc.CatalogChecker
	if fetcher == nil {
		cc := catalog.New(catalog.Config{
			BaseURL: cfg.catalogURL,
			Token:   cfg.catalogToken,
			Timeout: defaultCatalogTimeout,
			Logger:  logger,
		})
		fetcher = cc
		catalogChecker = cc
	}
	if cfg.cacheTTL > 0 {
		fetcher = detailcache.New(fetcher, store, cfg.prefix, cfg.cacheTTL, nil, logger)
	}

	selSvc := selectionuc.New(selectionrepo.New(store, cfg.prefix, cls), cls, logger)
	typeSvc := vehicletypeuc.New(vehicletyperepo.New(store, cfg.prefix), selSvc, logger)
	cmpSvc := compareuc.New(selSvc, fetcher, cls, policy, logger)
	if cfg.fetchTimeout > 0 {
		cmpSvc = cmpSvc.WithFetchTimeout(cfg.fetchTimeout)
	}

	return &Client{
		store:      store,
		classifier: cls,
		fetcher:    fetcher,
		selSvc:     selSvc,
		typeSvc:    typeSvc,
		cmpSvc:     cmpSvc,
		healthSvc:  healthuc.New(store, catalogChecker),
		obs:        obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: "ping", start: start, err: err}) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Classify resolves the product line of v. ok is false when v carries
// neither a recognizable vehicle type nor a known category.
func (c *Client) Classify(v Vehicle) (line Line, ok bool) {
	return c.classifier.Classify(v.Hints())
}

// Lookup fetches the catalog record for slug and returns its reference,
// ready to be toggled into a selection.
func (c *Client) Lookup(ctx context.Context, slug string) (_ Vehicle, err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: "lookup", start: start, err: err, attrs: []any{"slug", slug}}) }()

	d, err := c.fetcher.Get(ctx, slug)
	if err != nil {
		return Vehicle{}, fmt.Errorf("lookup %s: %w", slug, err)
	}
	return d.Reference(), nil
}

// Selection returns the compare selection of owner.
func (c *Client) Selection(owner string) *SelectionService {
	return &SelectionService{owner: owner, svc: c.selSvc, obs: c.obs}
}

// VehicleType returns the vehicle type lock of owner.
func (c *Client) VehicleType(owner string) *VehicleTypeService {
	return &VehicleTypeService{owner: owner, svc: c.typeSvc, obs: c.obs}
}

// Compare fetches every vehicle in owner's selection and renders the
// comparison table. Vehicles that cannot be compared are dropped from the
// result and from the stored selection.
func (c *Client) Compare(ctx context.Context, owner string) (out Comparison, err error) {
	start := time.Now()
	defer func() {
		status := statusOK
		if out.Insufficient {
			status = statusInsufficient
		}
		c.obs.observe(call{
			op: "compare", owner: owner, start: start, status: status, err: err,
			attrs: []any{"columns", len(out.Table.Columns), "dropped", len(out.Dropped)},
		})
	}()

	res, err := c.cmpSvc.Compare(ctx, owner)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare: %w", err)
	}
	return comparisonFromResult(res), nil
}
