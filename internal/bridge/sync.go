package bridge

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/classify"
	"github.com/ashvale/vesync-bridge/internal/convert"
	"github.com/ashvale/vesync-bridge/internal/session"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// Publisher receives a state snapshot after every applied sync.
// Implementations fan the snapshot out to MQTT and the telemetry
// store; a nil Publisher disables eventing.
type Publisher interface {
	PublishState(ctx context.Context, b *Binding, details vesync.Details)
}

// Synchronizer refreshes accessory state from device details and
// carries user commands back to the devices.
//
// Thread Safety:
//   - Sync and the Command methods are safe to call concurrently for
//     the same binding; the binding's own mutex orders their access to
//     the recorded-command fields.
type Synchronizer struct {
	session     *session.Manager
	retry       RetryPolicy
	settleDelay time.Duration
	events      Publisher
	logger      Logger

	// Test hook.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSynchronizer creates a synchronizer.
//
// Parameters:
//   - sess: Session manager gating all vendor calls
//   - retry: Per-call retry policy
//   - settleDelay: Wait between power-on and a follow-up speed command
//   - events: State event sink, may be nil
//   - logger: Structured logger, may be nil
func NewSynchronizer(sess *session.Manager, retry RetryPolicy, settleDelay time.Duration, events Publisher, logger Logger) *Synchronizer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Synchronizer{
		session:     sess,
		retry:       retry,
		settleDelay: settleDelay,
		events:      events,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Sync refreshes one binding's accessory from a fresh detail snapshot.
//
// The pass is skipped when the session is not established and when the
// binding is faulted. Echo suppression: if a command armed
// suppressNextSync, this fetch is discarded without writing back, so a
// snapshot the cloud took before observing the command cannot clobber
// the optimistic characteristic values.
//
// Failures are logged with device context and never propagate; one
// failing accessory must not block the others in its batch.
//
// Returns:
//   - bool: true if fresh state was applied to the accessory
func (s *Synchronizer) Sync(ctx context.Context, b *Binding) bool {
	if b.Faulted() {
		return false
	}
	if !s.session.Snapshot().LoggedIn {
		s.logger.Debug("sync skipped, no session", "uuid", b.UUID)
		return false
	}

	info := b.Device().Info()
	b.setState(StateFetching)

	var details vesync.Details
	err := s.retry.Execute(ctx, info.Name, "get details", func(ctx context.Context) error {
		d, err := b.Device().GetDetails(ctx)
		if err != nil {
			return err
		}
		details = d
		return nil
	})
	if err != nil {
		s.handleSyncError(b, info.Name, err)
		return false
	}

	if b.ConsumeSuppress() {
		s.logger.Debug("sync suppressed after command", "uuid", b.UUID, "device", info.Name)
		b.setState(StateIdle)
		return true
	}

	b.setState(StateApplying)
	s.apply(b, details)
	b.setState(StateIdle)

	if s.events != nil {
		s.events.PublishState(ctx, b, details)
	}
	return true
}

// handleSyncError classifies a failed fetch. Auth-class failures
// invalidate the session so the next pass re-logs-in; permanent
// failures fault the binding; everything else leaves state stale until
// the next pass.
func (s *Synchronizer) handleSyncError(b *Binding, device string, err error) {
	class := vesync.Classify(err)
	switch class {
	case vesync.ClassAuth:
		s.session.Invalidate()
		b.setState(StateIdle)
	case vesync.ClassPermanent:
		b.fault()
	default:
		b.setState(StateIdle)
	}

	s.logger.Warn("sync failed, state left stale",
		"uuid", b.UUID,
		"device", device,
		"class", class.String(),
		"error", err,
	)
}

// apply writes a detail snapshot onto the accessory's characteristic
// slots.
func (s *Synchronizer) apply(b *Binding, details vesync.Details) {
	desc := b.Descriptor
	acc := b.Accessory
	isOn := details.Status == vesync.StatusOn && details.Online

	if c, ok := acc.Characteristic(accessory.TypeOn); ok {
		c.Update(isOn)
	}
	if c, ok := acc.Characteristic(accessory.TypeOutletInUse); ok {
		c.Update(isOn)
	}

	if !isOn {
		// An off device has no meaningful speed; the recorded command
		// no longer describes live state.
		b.ClearCommand()
		if c, ok := acc.Characteristic(accessory.TypeRotationSpeed); ok {
			c.Update(float64(0))
		}
	} else if desc.HasVariableSpeed() {
		s.applySpeed(b, details)
	}

	if desc.SupportsAirQuality {
		s.applyAirQuality(acc, details)
	}
	if desc.SupportsFilterLife {
		s.applyFilterLife(acc, desc, details)
	}
	if desc.Family == classify.FamilyBulb {
		s.applyBrightness(acc, details)
	}
}

// applySpeed converts the fetched level to a percentage, preferring
// the exact commanded percentage when the fetched level matches the
// recorded command. Without that preference the non-exact inverse
// mapping would snap a commanded 80% to a recomputed 100%.
func (s *Synchronizer) applySpeed(b *Binding, details vesync.Details) {
	c, ok := b.Accessory.Characteristic(accessory.TypeRotationSpeed)
	if !ok {
		return
	}

	level, ok := convert.SpeedFromRaw(details.Raw)
	if !ok {
		return
	}

	pct, matched := b.CommandedPercentage(level)
	if !matched {
		pct = convert.SpeedToPercentage(level, b.Descriptor.SpeedLevels)
	}
	c.Update(pct)
}

func (s *Synchronizer) applyAirQuality(acc *accessory.Accessory, details vesync.Details) {
	pm25, ok := convert.PM25FromRaw(details.Raw)
	if !ok {
		return
	}
	if c, found := acc.Characteristic(accessory.TypeAirQuality); found {
		c.Update(int(convert.PM25ToAirQuality(pm25)))
	}
	if c, found := acc.Characteristic(accessory.TypePM25Density); found {
		c.Update(convert.ClampDensity(pm25))
	}
}

func (s *Synchronizer) applyFilterLife(acc *accessory.Accessory, desc classify.Descriptor, details vesync.Details) {
	if c, found := acc.Characteristic(accessory.TypeFilterLife); found {
		life := convert.FilterLifeFromRaw(details.Raw, desc.FilterLifeFormat, convert.FilterDefaultLevel)
		c.Update(life)
	}
	if c, found := acc.Characteristic(accessory.TypeFilterChange); found {
		life := convert.FilterLifeFromRaw(details.Raw, desc.FilterLifeFormat, convert.FilterDefaultReplacement)
		c.Update(convert.NeedsFilterReplacement(life))
	}
}

func (s *Synchronizer) applyBrightness(acc *accessory.Accessory, details vesync.Details) {
	c, ok := acc.Characteristic(accessory.TypeBrightness)
	if !ok {
		return
	}
	if v, found := details.Raw[vesync.FieldBrightness]; found {
		if f, numeric := toBrightness(v); numeric {
			c.Update(f)
		}
	}
}

// CommandPower handles an inbound on/off write.
//
// Errors are returned to the caller so the host can surface a
// user-visible command failure; they are also logged here with device
// context.
func (s *Synchronizer) CommandPower(ctx context.Context, b *Binding, on bool) error {
	if b.Faulted() {
		return ErrBindingFaulted
	}
	info := b.Device().Info()

	op := "turn off"
	call := b.Device().TurnOff
	if on {
		op = "turn on"
		call = b.Device().TurnOn
	}

	err := s.retry.Execute(ctx, info.Name, op, func(ctx context.Context) error {
		return softCall(ctx, call)
	})
	if err != nil {
		s.logger.Error("power command failed",
			"uuid", b.UUID,
			"device", info.Name,
			"on", on,
			"error", err,
		)
		return err
	}

	if !on {
		b.ClearCommand()
	}
	// The next detail fetch may predate this command server-side.
	b.RecordSuppress()

	s.logger.Info("power command applied", "uuid", b.UUID, "device", info.Name, "on", on)
	return nil
}

// CommandSpeed handles an inbound rotation speed write as a
// percentage in [0,100].
//
// Zero turns the device off; there is no "speed 0" vendor call. A
// positive percentage on an off device turns it on first and waits one
// settle delay, because several families reject speed commands until
// power is confirmed on. The requested percentage (not the converted
// level re-derived) is written optimistically to the characteristic
// before the vendor call; on failure the recorded command is cleared
// and the error surfaces, leaving the optimistic value for the next
// sync pass to correct.
func (s *Synchronizer) CommandSpeed(ctx context.Context, b *Binding, pct float64) error {
	if b.Faulted() {
		return ErrBindingFaulted
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 || pct > 100 {
		return fmt.Errorf("%w: percentage %v out of range", ErrInvalidValue, pct)
	}

	info := b.Device().Info()

	if pct == 0 {
		return s.CommandPower(ctx, b, false)
	}

	// Power on first if needed. The detail snapshot is best effort; if
	// it cannot be fetched the device is assumed off and powered on.
	wasOn := false
	if details, err := b.Device().GetDetails(ctx); err == nil {
		wasOn = details.Status == vesync.StatusOn
	}
	if !wasOn {
		err := s.retry.Execute(ctx, info.Name, "turn on", func(ctx context.Context) error {
			return softCall(ctx, b.Device().TurnOn)
		})
		if err != nil {
			s.logger.Error("speed command failed at power-on",
				"uuid", b.UUID,
				"device", info.Name,
				"error", err,
			)
			return err
		}
		if s.settleDelay > 0 {
			if err := s.sleep(ctx, s.settleDelay); err != nil {
				return err
			}
		}
	}

	level := convert.PercentageToSpeed(pct, b.Descriptor.SpeedLevels)

	// Optimistic write of the exact requested percentage, then record
	// and suppress before the vendor call so a racing sync cannot echo.
	if c, ok := b.Accessory.Characteristic(accessory.TypeRotationSpeed); ok {
		c.Update(pct)
	}
	if c, ok := b.Accessory.Characteristic(accessory.TypeOn); ok {
		c.Update(true)
	}
	b.RecordCommand(level, pct)

	err := s.retry.Execute(ctx, info.Name, "change speed", func(ctx context.Context) error {
		return softCallLevel(ctx, b.Device().ChangeSpeed, level)
	})
	if err != nil {
		b.ClearCommand()
		s.logger.Error("speed command failed",
			"uuid", b.UUID,
			"device", info.Name,
			"percentage", pct,
			"level", level,
			"error", err,
		)
		return err
	}

	s.logger.Info("speed command applied",
		"uuid", b.UUID,
		"device", info.Name,
		"percentage", pct,
		"level", level,
	)
	return nil
}

// softCall invokes a bool-returning vendor call and folds the soft
// failure shape into an error.
func softCall(ctx context.Context, call func(context.Context) (bool, error)) error {
	ok, err := call(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return vesync.ErrSoftFailure
	}
	return nil
}

func softCallLevel(ctx context.Context, call func(context.Context, int) (bool, error), level int) error {
	ok, err := call(ctx, level)
	if err != nil {
		return err
	}
	if !ok {
		return vesync.ErrSoftFailure
	}
	return nil
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// toBrightness coerces a raw brightness field to a percentage.
func toBrightness(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
