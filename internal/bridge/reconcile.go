package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/classify"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// manufacturer is the static manufacturer string on every accessory.
const manufacturer = "VeSync"

// Plan is the diff between live inventory and bound accessories.
type Plan struct {
	ToCreate []vesync.Device
	ToUpdate []vesync.Device
	ToRemove []string
}

// Reconciler diffs the device inventory against the binding set and
// materializes the difference: new accessories for new devices,
// in-place context refresh for known ones, removal for vanished ones.
//
// Reconcile must only run on a successful inventory fetch. A failed
// fetch returns no device list at all, which is indistinguishable from
// an account with no devices; the caller's successful-fetch gate is
// what keeps a transient API failure from tearing down every binding.
type Reconciler struct {
	ns         uuid.UUID
	classifier *classify.Classifier
	registry   *accessory.Registry
	store      accessory.ContextStore
	logger     Logger
}

// NewReconciler creates a reconciler.
//
// Parameters:
//   - ns: Bridge identity namespace (see accessory.Namespace)
//   - classifier: Shared descriptor cache
//   - registry: Live accessory registry
//   - store: Persistent context store, may be nil for tests
//   - logger: Structured logger, may be nil
func NewReconciler(ns uuid.UUID, classifier *classify.Classifier, registry *accessory.Registry, store accessory.ContextStore, logger Logger) *Reconciler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Reconciler{
		ns:         ns,
		classifier: classifier,
		registry:   registry,
		store:      store,
		logger:     logger,
	}
}

// BindingID returns the stable identity for a device.
func (r *Reconciler) BindingID(info vesync.Info) string {
	return accessory.NewID(r.ns, info.CID, info.SubDeviceNo)
}

// Diff computes the reconcile plan without applying it.
//
// Parameters:
//   - devices: Inventory from a successful fetch
//   - bindings: Current binding set keyed by identity
//
// Returns:
//   - Plan: Devices to create and update, identities to remove
func (r *Reconciler) Diff(devices []vesync.Device, bindings map[string]*Binding) Plan {
	var plan Plan
	live := make(map[string]bool, len(devices))

	for _, dev := range devices {
		id := r.BindingID(dev.Info())
		live[id] = true
		if _, ok := bindings[id]; ok {
			plan.ToUpdate = append(plan.ToUpdate, dev)
		} else {
			plan.ToCreate = append(plan.ToCreate, dev)
		}
	}

	for id := range bindings {
		if !live[id] {
			plan.ToRemove = append(plan.ToRemove, id)
		}
	}
	return plan
}

// Apply executes a plan against the binding set in place.
//
// Creation classifies the device, builds the accessory with the
// family's characteristic slots, registers it, and persists its
// context. Updates refresh name, device handle, and persisted context
// without touching identity, so host-side pairing data survives.
// Removal unregisters the accessory and deletes its context row.
//
// Store failures are logged and do not abort the pass; the context
// store is a restart optimization, not the source of truth.
func (r *Reconciler) Apply(ctx context.Context, plan Plan, bindings map[string]*Binding) {
	for _, dev := range plan.ToCreate {
		b, err := r.create(ctx, dev)
		if err != nil {
			r.logger.Error("creating accessory failed",
				"device", dev.Info().Name,
				"cid", dev.Info().CID,
				"error", err,
			)
			continue
		}
		bindings[b.UUID] = b
		r.logger.Info("accessory created",
			"uuid", b.UUID,
			"device", dev.Info().Name,
			"family", string(b.Descriptor.Family),
		)
	}

	for _, dev := range plan.ToUpdate {
		id := r.BindingID(dev.Info())
		b, ok := bindings[id]
		if !ok {
			continue
		}
		r.update(ctx, b, dev)
	}

	for _, id := range plan.ToRemove {
		b, ok := bindings[id]
		if !ok {
			continue
		}
		r.remove(ctx, b)
		delete(bindings, id)
	}
}

// create materializes a new binding and its accessory.
func (r *Reconciler) create(ctx context.Context, dev vesync.Device) (*Binding, error) {
	info := dev.Info()
	id := r.BindingID(info)
	desc := r.classifier.DescriptorFor(deviceKey(info), info.TypeString)

	acc := accessory.New(id, accessory.Info{
		Name:         info.Name,
		Manufacturer: manufacturer,
		Model:        info.TypeString,
		SerialNumber: deviceKey(info),
	})
	addCharacteristics(acc, desc)

	if err := r.registry.Add(acc); err != nil {
		return nil, err
	}

	b := NewBinding(id, desc, acc, dev)
	r.persist(ctx, b, info)
	return b, nil
}

// update refreshes a live binding in place. Identity never changes.
func (r *Reconciler) update(ctx context.Context, b *Binding, dev vesync.Device) {
	info := dev.Info()
	b.ReplaceDevice(dev)
	if b.Accessory.Name() != info.Name {
		b.Accessory.Rename(info.Name)
	}
	r.persist(ctx, b, info)
}

// remove tears down a binding whose device vanished from a successful
// inventory fetch.
func (r *Reconciler) remove(ctx context.Context, b *Binding) {
	info := b.Device().Info()
	r.registry.Remove(b.UUID)
	r.classifier.Forget(deviceKey(info))

	if r.store != nil {
		if err := r.store.Delete(ctx, b.UUID); err != nil {
			r.logger.Warn("deleting accessory context failed",
				"uuid", b.UUID,
				"error", err,
			)
		}
	}

	r.logger.Info("accessory removed",
		"uuid", b.UUID,
		"device", info.Name,
	)
}

// persist writes the binding's context row.
func (r *Reconciler) persist(ctx context.Context, b *Binding, info vesync.Info) {
	if r.store == nil {
		return
	}
	rec := accessory.Record{
		UUID:        b.UUID,
		DeviceCID:   info.CID,
		SubDeviceNo: info.SubDeviceNo,
		DeviceType:  info.TypeString,
		Name:        info.Name,
		Context: map[string]any{
			"family":       string(b.Descriptor.Family),
			"speed_levels": b.Descriptor.SpeedLevels,
		},
	}
	if err := r.store.Save(ctx, rec); err != nil {
		r.logger.Warn("saving accessory context failed",
			"uuid", b.UUID,
			"error", err,
		)
	}
}

// deviceKey is the classifier cache key: CID plus sub-device index, so
// the two outlets of a dual unit classify independently.
func deviceKey(info vesync.Info) string {
	if info.SubDeviceNo == 0 {
		return info.CID
	}
	return fmt.Sprintf("%s/%d", info.CID, info.SubDeviceNo)
}

// addCharacteristics creates the slots the device family supports.
func addCharacteristics(acc *accessory.Accessory, desc classify.Descriptor) {
	acc.Ensure(accessory.TypeOn)

	if desc.HasVariableSpeed() {
		acc.Ensure(accessory.TypeRotationSpeed)
	}
	if desc.SupportsAirQuality {
		acc.Ensure(accessory.TypeAirQuality)
		acc.Ensure(accessory.TypePM25Density)
	}
	if desc.SupportsFilterLife {
		acc.Ensure(accessory.TypeFilterChange)
		acc.Ensure(accessory.TypeFilterLife)
	}

	switch desc.Family {
	case classify.FamilyBulb:
		acc.Ensure(accessory.TypeBrightness)
	case classify.FamilyOutlet:
		acc.Ensure(accessory.TypeOutletInUse)
	}
}
