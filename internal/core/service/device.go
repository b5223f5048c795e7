package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/samber/lo"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/core/otp"
	"github.com/yndnr/otpslot-go/internal/infra/keyboard"
	"github.com/yndnr/otpslot-go/internal/telemetry/logger"
	"github.com/yndnr/otpslot-go/internal/telemetry/metric"
	"github.com/yndnr/otpslot-go/pkg/modhex"
)

// MaxPublicIDAttempts bounds the redraws of a colliding public id.
const MaxPublicIDAttempts = 16

// KeySlotRepository defines the keyslot storage used by the device.
// *keyslot.Store implements it.
type KeySlotRepository interface {
	Capacity() int
	Count() int
	Get(index int) (domain.KeySlot, error)
	Slots() []domain.KeySlot
	Contains(publicID domain.PublicID) bool
	Add(ctx context.Context, slot domain.KeySlot) (int, error)
	Erase(ctx context.Context, index int) error
	ResetAll(ctx context.Context) error
	IncrementBootCounts(ctx context.Context) error
	Replace(ctx context.Context, slots []domain.KeySlot) error
}

// SecretDeriver derives the secrets of a keyslot from its public id.
// *derive.Deriver implements it.
type SecretDeriver interface {
	Derive(publicID domain.PublicID) (*domain.KeySecrets, error)
}

// Metrics receives device events. *metric.Registry implements it.
type Metrics interface {
	RecordToken(paddingAttempts int)
	RecordTokenFailure(reason string)
	SetSessionCounter(v uint8)
	IncBoot()
	RecordKeyChange(op string)
}

// DeviceConfig wires a Device.
type DeviceConfig struct {
	Store   KeySlotRepository // Required
	Deriver SecretDeriver     // Required
	Sink    keyboard.Sink     // Defaults to keyboard.Discard
	Random  io.Reader         // Defaults to crypto/rand
	Metrics Metrics           // Optional
	Logger  logger.Logger     // Defaults to logger.Default()
}

// KeyInfo is the public view of an enabled keyslot.
type KeyInfo struct {
	Index       int    `json:"index" yaml:"index"`
	PublicID    string `json:"public_id" yaml:"public_id"`
	PublicIDHex string `json:"public_id_hex" yaml:"public_id_hex" table:"wide"`
	BootCount   uint16 `json:"boot_count" yaml:"boot_count"`
}

// KeyCredentials is what a validation server needs to register a key.
// It is shown once on creation and on explicit request only.
type KeyCredentials struct {
	KeyInfo      `yaml:",inline"`
	PrivateID    string    `json:"private_id" yaml:"private_id"`
	AESKey       string    `json:"aes_key" yaml:"aes_key"`
	AESKeyChunks [3]string `json:"aes_key_chunks" yaml:"aes_key_chunks"`
}

// Status summarises the device.
type Status struct {
	Capacity       int   `json:"capacity" yaml:"capacity"`
	Enabled        int   `json:"enabled" yaml:"enabled"`
	Booted         bool  `json:"booted" yaml:"booted"`
	SessionCounter uint8 `json:"session_counter" yaml:"session_counter"`
}

// Device is the single logical actor that owns the keyslots and the
// session counter.
type Device struct {
	mu sync.Mutex

	store     KeySlotRepository
	deriver   SecretDeriver
	generator *otp.Generator
	sink      keyboard.Sink
	random    io.Reader
	metrics   Metrics
	logger    logger.Logger

	booted  bool
	counter uint8
}

// NewDevice creates a Device. The session counter starts at zero and the
// device is not booted.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Store == nil {
		return nil, domain.ErrMissingArgument.WithDetails("store is required")
	}
	if cfg.Deriver == nil {
		return nil, domain.ErrMissingArgument.WithDetails("deriver is required")
	}

	d := &Device{
		store:   cfg.Store,
		deriver: cfg.Deriver,
		sink:    cfg.Sink,
		random:  cfg.Random,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	if d.sink == nil {
		d.sink = keyboard.Discard
	}
	if d.random == nil {
		d.random = rand.Reader
	}
	if d.logger == nil {
		d.logger = logger.Default()
	}
	d.generator = otp.NewGenerator(d.random)

	return d, nil
}

// ============================================================================
// Boot
// ============================================================================

// Boot increments the boot counter of every enabled slot and resets the
// session counter. It runs once per process; later calls are no-ops.
func (d *Device) Boot(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.booted {
		return nil
	}

	if err := d.store.IncrementBootCounts(ctx); err != nil {
		return err
	}
	d.booted = true
	d.counter = 0

	if d.metrics != nil {
		d.metrics.IncBoot()
		d.metrics.SetSessionCounter(0)
	}
	logger.L(ctx).Info("device booted", "keys", d.store.Count())
	return nil
}

// Booted reports whether Boot has run.
func (d *Device) Booted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.booted
}

// SessionCount returns the number of tokens generated since boot.
func (d *Device) SessionCount() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counter
}

// Status returns a summary of the device.
func (d *Device) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Capacity:       d.store.Capacity(),
		Enabled:        d.store.Count(),
		Booted:         d.booted,
		SessionCounter: d.counter,
	}
}

// ============================================================================
// Key Management
// ============================================================================

// NewKey creates a keyslot with a fresh random public id and returns
// its credentials.
func (d *Device) NewKey(ctx context.Context) (*KeyCredentials, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.store.Count() >= d.store.Capacity() {
		return nil, domain.ErrNoFreeKeySlot.WithDetails(
			fmt.Sprintf("all %d keyslots are in use", d.store.Capacity()),
		)
	}

	publicID, err := d.drawPublicID()
	if err != nil {
		return nil, err
	}

	secrets, err := d.deriver.Derive(publicID)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe()

	slot := domain.NewKeySlot(publicID)
	index, err := d.store.Add(ctx, slot)
	if err != nil {
		return nil, err
	}

	if d.metrics != nil {
		d.metrics.RecordKeyChange("new")
	}
	logger.L(ctx).Info("key created", "index", index, "public_id", publicID.String())

	return credentials(index, slot, secrets), nil
}

// drawPublicID draws a non-zero public id not used by any enabled slot.
func (d *Device) drawPublicID() (domain.PublicID, error) {
	var id domain.PublicID
	for i := 0; i < MaxPublicIDAttempts; i++ {
		if _, err := io.ReadFull(d.random, id[:]); err != nil {
			return id, domain.ErrInternal.WithDetails("random source failed").WithCause(err)
		}
		if !id.IsZero() && !d.store.Contains(id) {
			return id, nil
		}
	}
	return id, domain.ErrPublicIDConflict.WithDetails(
		fmt.Sprintf("no unique public id after %d draws", MaxPublicIDAttempts),
	)
}

// Keys lists the enabled keyslots in index order.
func (d *Device) Keys() []KeyInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	return lo.Map(d.store.Slots(), func(s domain.KeySlot, i int) KeyInfo {
		return info(i, s)
	})
}

// Key returns the keyslot at index.
func (d *Device) Key(index int) (*KeyInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, err := d.store.Get(index)
	if err != nil {
		return nil, err
	}
	ki := info(index, slot)
	return &ki, nil
}

// Secrets re-derives the credentials of the keyslot at index.
func (d *Device) Secrets(ctx context.Context, index int) (*KeyCredentials, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, err := d.store.Get(index)
	if err != nil {
		return nil, err
	}
	secrets, err := d.deriver.Derive(slot.PublicID)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe()

	logger.L(ctx).Warn("key secrets revealed", "index", index, "public_id", slot.PublicID.String())
	return credentials(index, slot, secrets), nil
}

// DeleteKey erases the keyslot at index; later slots move down by one.
func (d *Device) DeleteKey(ctx context.Context, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, err := d.store.Get(index)
	if err != nil {
		return err
	}
	if err := d.store.Erase(ctx, index); err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.RecordKeyChange("delete")
	}
	logger.L(ctx).Info("key deleted", "index", index, "public_id", slot.PublicID.String())
	return nil
}

// ResetKeys erases every keyslot.
func (d *Device) ResetKeys(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.store.Count()
	if err := d.store.ResetAll(ctx); err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.RecordKeyChange("reset")
	}
	logger.L(ctx).Info("keys reset", "erased", n)
	return nil
}

// Export returns a copy of the enabled keyslots for backup.
func (d *Device) Export() (slots []domain.KeySlot, capacity int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Slots(), d.store.Capacity()
}

// RestoreKeys replaces every keyslot with slots in one batch. Restored
// boot counts never fall below the ones already stored; see
// keyslot.Store.Replace.
func (d *Device) RestoreKeys(ctx context.Context, slots []domain.KeySlot) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range slots {
		if !s.Enabled || s.PublicID.IsZero() {
			return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("slot %d is empty", i))
		}
	}
	dups := lo.FindDuplicatesBy(slots, func(s domain.KeySlot) domain.PublicID { return s.PublicID })
	if len(dups) > 0 {
		return domain.ErrPublicIDConflict.WithDetails(
			fmt.Sprintf("public id %s appears twice", dups[0].PublicID),
		)
	}

	if err := d.store.Replace(ctx, slots); err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.RecordKeyChange("restore")
	}
	logger.L(ctx).Info("keys restored", "count", len(slots))
	return nil
}

// ============================================================================
// OTP
// ============================================================================

// GenerateOTP produces the next token for the keyslot at index and
// advances the session counter.
func (d *Device) GenerateOTP(ctx context.Context, index int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	token, err := d.generate(ctx, index)
	if err != nil {
		d.recordFailure(err)
		return "", err
	}
	return token, nil
}

// TypeOTP generates a token and types it followed by Enter.
func (d *Device) TypeOTP(ctx context.Context, index int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	token, err := d.generate(ctx, index)
	if err != nil {
		d.recordFailure(err)
		return "", err
	}

	if err := d.sink.SendString(ctx, token); err != nil {
		d.recordReason(metric.ReasonSink)
		return "", fmt.Errorf("type token: %w", err)
	}
	if err := d.sink.SendEnter(ctx); err != nil {
		d.recordReason(metric.ReasonSink)
		return "", fmt.Errorf("type enter: %w", err)
	}
	return token, nil
}

// generate runs lookup, derivation and encryption. d.mu must be held.
func (d *Device) generate(ctx context.Context, index int) (string, error) {
	if !d.booted {
		return "", domain.ErrNotBooted
	}
	if d.counter >= domain.MaxSessionCounter {
		return "", domain.ErrSessionExhausted
	}

	slot, err := d.store.Get(index)
	if err != nil {
		return "", err
	}

	secrets, err := d.deriver.Derive(slot.PublicID)
	if err != nil {
		return "", err
	}
	defer secrets.Wipe()

	res, err := d.generator.Generate(slot, secrets, d.counter)
	if err != nil {
		return "", err
	}

	d.counter++
	if d.metrics != nil {
		d.metrics.RecordToken(res.PaddingAttempts)
		d.metrics.SetSessionCounter(d.counter)
	}
	logger.L(ctx).Debug("token generated",
		"index", index,
		"public_id", slot.PublicID.String(),
		"session_counter", d.counter,
		"padding_attempts", res.PaddingAttempts,
	)

	return res.Token.String(), nil
}

func (d *Device) recordFailure(err error) {
	d.recordReason(failureReason(err))
}

func (d *Device) recordReason(reason string) {
	if d.metrics != nil {
		d.metrics.RecordTokenFailure(reason)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionExhausted):
		return metric.ReasonSessionExhausted
	case errors.Is(err, domain.ErrPaddingNotFound):
		return metric.ReasonPaddingNotFound
	case errors.Is(err, domain.ErrDerivationFault):
		return metric.ReasonDerivation
	case errors.Is(err, domain.ErrKeySlotNotFound):
		return metric.ReasonSlotNotFound
	default:
		return metric.ReasonOther
	}
}

func info(index int, slot domain.KeySlot) KeyInfo {
	return KeyInfo{
		Index:       index,
		PublicID:    modhex.Encode(slot.PublicID[:]),
		PublicIDHex: slot.PublicID.String(),
		BootCount:   slot.BootCount,
	}
}

func credentials(index int, slot domain.KeySlot, secrets *domain.KeySecrets) *KeyCredentials {
	return &KeyCredentials{
		KeyInfo:      info(index, slot),
		PrivateID:    hex.EncodeToString(secrets.PrivateID[:]),
		AESKey:       hex.EncodeToString(secrets.AESKey[:]),
		AESKeyChunks: secrets.AESKeyChunks(),
	}
}
