package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/session"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// PlatformConfig holds the orchestration timing knobs.
type PlatformConfig struct {
	// SyncInterval is the periodic refresh cadence.
	SyncInterval time.Duration

	// BatchSize bounds how many accessories sync concurrently.
	// A throughput throttle against the remote API, not a correctness
	// requirement.
	BatchSize int

	// BatchDelay is the pause between consecutive sync batches.
	BatchDelay time.Duration
}

// Platform owns the single logical timeline: one initialization
// sequence, then a periodic inventory refresh + reconcile + sync pass.
// User write commands arrive concurrently through the characteristic
// handlers and synchronize per binding, never across bindings.
type Platform struct {
	cfg        PlatformConfig
	client     vesync.Client
	session    *session.Manager
	reconciler *Reconciler
	sync       *Synchronizer
	registry   *accessory.Registry
	store      accessory.ContextStore
	logger     Logger

	mu       sync.Mutex
	bindings map[string]*Binding

	// ready is closed once the full initialization sequence completes.
	// Callers block on WaitReady rather than polling.
	ready     chan struct{}
	readyOnce sync.Once
	readyErr  error
}

// NewPlatform creates the platform.
//
// Parameters:
//   - cfg: Timing knobs
//   - client: Vendor cloud client
//   - sess: Session manager
//   - reconciler: Inventory reconciler
//   - syncer: Per-accessory synchronizer
//   - registry: Live accessory registry
//   - store: Persistent context store, may be nil
//   - logger: Structured logger, may be nil
func NewPlatform(cfg PlatformConfig, client vesync.Client, sess *session.Manager, reconciler *Reconciler, syncer *Synchronizer, registry *accessory.Registry, store accessory.ContextStore, logger Logger) *Platform {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Platform{
		cfg:        cfg,
		client:     client,
		session:    sess,
		reconciler: reconciler,
		sync:       syncer,
		registry:   registry,
		store:      store,
		logger:     logger,
		bindings:   make(map[string]*Binding),
		ready:      make(chan struct{}),
	}
}

// Run executes the initialization sequence and then the periodic sync
// timer until ctx is cancelled. The timer never starts if
// initialization fails; the failure is signalled to WaitReady callers
// and returned.
func (p *Platform) Run(ctx context.Context) error {
	if err := p.initialize(ctx); err != nil {
		p.signalReady(err)
		return fmt.Errorf("bridge initialization: %w", err)
	}
	p.signalReady(nil)
	p.logger.Info("bridge ready", "accessories", p.registry.Count())

	ticker := time.NewTicker(p.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pass(ctx)
		}
	}
}

// WaitReady blocks until initialization completes or ctx is cancelled.
//
// Returns:
//   - error: The initialization failure, if initialization failed
func (p *Platform) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ready:
		return p.readyErr
	}
}

// IsReady reports whether initialization completed successfully.
func (p *Platform) IsReady() bool {
	select {
	case <-p.ready:
		return p.readyErr == nil
	default:
		return false
	}
}

// Bindings returns the current bindings sorted by identity.
func (p *Platform) Bindings() []*Binding {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Binding, 0, len(p.bindings))
	for _, b := range p.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out
}

func (p *Platform) signalReady(err error) {
	p.readyOnce.Do(func() {
		p.readyErr = err
		close(p.ready)
	})
}

// initialize runs login, inventory fetch, reconcile, and the first
// sync pass. Any step failing fails initialization as a whole.
func (p *Platform) initialize(ctx context.Context) error {
	p.restoreContext(ctx)

	if !p.session.EnsureLogin(ctx, false) {
		return fmt.Errorf("initial login failed")
	}

	if err := p.refreshInventory(ctx); err != nil {
		return fmt.Errorf("initial inventory fetch: %w", err)
	}

	p.syncPass(ctx)
	return nil
}

// restoreContext loads the persisted accessory contexts for restart
// continuity logging. Identities rebuild deterministically from the
// inventory; the persisted rows are what keeps host-side pairing
// stable, not what drives accessory creation.
func (p *Platform) restoreContext(ctx context.Context) {
	if p.store == nil {
		return
	}
	records, err := p.store.LoadAll(ctx)
	if err != nil {
		p.logger.Warn("loading persisted accessory context failed", "error", err)
		return
	}
	if len(records) > 0 {
		p.logger.Info("restored accessory context", "count", len(records))
	}
}

// pass is one periodic cycle: session check, inventory refresh with
// reconcile, then the batched sync sweep.
func (p *Platform) pass(ctx context.Context) {
	if !p.session.EnsureLogin(ctx, false) {
		p.logger.Warn("sync pass skipped, no session")
		return
	}

	if err := p.refreshInventory(ctx); err != nil {
		// A failed fetch never tears down bindings. Sync still runs so
		// accessories keep refreshing from per-device detail calls.
		p.logger.Warn("inventory refresh failed, bindings retained", "error", err)
	}

	p.syncPass(ctx)
}

// refreshInventory fetches the inventory and reconciles on success.
func (p *Platform) refreshInventory(ctx context.Context) error {
	ok, err := p.client.FetchInventory(ctx)
	if err == nil && !ok {
		err = vesync.ErrSoftFailure
	}
	if err != nil {
		if vesync.Classify(err) == vesync.ClassAuth {
			p.session.Invalidate()
		}
		return err
	}

	devices := p.client.Devices()

	p.mu.Lock()
	defer p.mu.Unlock()

	plan := p.reconciler.Diff(devices, p.bindings)
	p.reconciler.Apply(ctx, plan, p.bindings)

	// Wire write handlers for accessories created this pass.
	for _, dev := range plan.ToCreate {
		if b, found := p.bindings[p.reconciler.BindingID(dev.Info())]; found {
			p.wireHandlers(b)
		}
	}
	return nil
}

// wireHandlers connects the accessory's writable characteristics to
// the synchronizer's command paths.
func (p *Platform) wireHandlers(b *Binding) {
	if c, ok := b.Accessory.Characteristic(accessory.TypeOn); ok {
		c.OnSet(func(ctx context.Context, v any) error {
			on, isBool := v.(bool)
			if !isBool {
				return fmt.Errorf("%w: on expects bool, got %T", ErrInvalidValue, v)
			}
			return p.sync.CommandPower(ctx, b, on)
		})
	}

	if c, ok := b.Accessory.Characteristic(accessory.TypeRotationSpeed); ok {
		c.OnSet(func(ctx context.Context, v any) error {
			pct, isNum := toPercentage(v)
			if !isNum {
				return fmt.Errorf("%w: rotation speed expects number, got %T", ErrInvalidValue, v)
			}
			return p.sync.CommandSpeed(ctx, b, pct)
		})
	}
}

// syncPass sweeps all bindings in bounded concurrent batches with a
// fixed inter-batch delay.
func (p *Platform) syncPass(ctx context.Context) {
	bindings := p.Bindings()

	for start := 0; start < len(bindings); start += p.cfg.BatchSize {
		if ctx.Err() != nil {
			return
		}

		end := start + p.cfg.BatchSize
		if end > len(bindings) {
			end = len(bindings)
		}

		var wg sync.WaitGroup
		for _, b := range bindings[start:end] {
			wg.Add(1)
			go func(b *Binding) {
				defer wg.Done()
				p.sync.Sync(ctx, b)
			}(b)
		}
		wg.Wait()

		if end < len(bindings) && p.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.BatchDelay):
			}
		}
	}
}

// toPercentage coerces the numeric shapes a host write can carry.
func toPercentage(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
