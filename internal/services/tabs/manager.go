// Package tabs holds the open character tabs of one owner. Each tab edits its
// own copy of a character locally and persists it through a debounced save.
package tabs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KirkDiggler/charsheet/internal/dice"
	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/notify"
	"github.com/KirkDiggler/charsheet/internal/repositories/characters"
	"github.com/KirkDiggler/charsheet/internal/repositories/opentabs"
	"github.com/KirkDiggler/charsheet/internal/repositories/portraits"
	"github.com/KirkDiggler/charsheet/internal/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultDebounce    = 750 * time.Millisecond
	DefaultSaveTimeout = 10 * time.Second
)

// Manager owns the open tabs. It is safe for concurrent use.
type Manager struct {
	ownerID     string
	store       characters.Repository
	roller      dice.Roller
	notifier    notify.Notifier
	cache       opentabs.Cache
	portraits   portraits.Store
	history     *dice.History
	scheduler   Scheduler
	clock       characters.TimeProvider
	slotIDs     uuid.Generator
	debounce    time.Duration
	saveTimeout time.Duration
	logger      *zap.Logger
	charOpts    []character.Option

	loads singleflight.Group

	mu    sync.RWMutex
	slots map[string]*slot
	order []string
}

// ManagerConfig holds configuration for the manager
type ManagerConfig struct {
	OwnerID          string                  // Required
	Repository       characters.Repository   // Required
	Roller           dice.Roller             // Optional, random roller if nil
	Notifier         notify.Notifier         // Optional, discards if nil
	Cache            opentabs.Cache          // Optional, in-memory if nil
	Portraits        portraits.Store         // Optional, portrait operations fail without it
	History          *dice.History           // Optional, rolls are not kept if nil
	Scheduler        Scheduler               // Optional, wall clock if nil
	Clock            characters.TimeProvider // Optional
	SlotIDs          uuid.Generator          // Optional
	Debounce         time.Duration           // Optional, DefaultDebounce if zero
	SaveTimeout      time.Duration           // Optional, DefaultSaveTimeout if zero
	Logger           *zap.Logger             // Optional
	CharacterOptions []character.Option      // Optional, applied to every loaded character
}

// NewManager creates a tab manager for one owner
func NewManager(cfg *ManagerConfig) *Manager {
	if cfg == nil {
		panic("ManagerConfig cannot be nil")
	}
	if cfg.OwnerID == "" {
		panic("owner ID is required")
	}
	if cfg.Repository == nil {
		panic("repository is required")
	}

	m := &Manager{
		ownerID:     cfg.OwnerID,
		store:       cfg.Repository,
		roller:      cfg.Roller,
		notifier:    cfg.Notifier,
		cache:       cfg.Cache,
		portraits:   cfg.Portraits,
		history:     cfg.History,
		scheduler:   cfg.Scheduler,
		clock:       cfg.Clock,
		slotIDs:     cfg.SlotIDs,
		debounce:    cfg.Debounce,
		saveTimeout: cfg.SaveTimeout,
		logger:      cfg.Logger,
		charOpts:    cfg.CharacterOptions,
		slots:       make(map[string]*slot),
	}

	if m.roller == nil {
		m.roller = dice.NewRandomRoller()
	}
	if m.notifier == nil {
		m.notifier = notify.Nop()
	}
	if m.cache == nil {
		m.cache = opentabs.NewInMemoryCache()
	}
	if m.scheduler == nil {
		m.scheduler = NewWallScheduler()
	}
	if m.clock == nil {
		m.clock = characters.NewTimeProvider()
	}
	if m.slotIDs == nil {
		m.slotIDs = uuid.NewULIDGenerator()
	}
	if m.debounce <= 0 {
		m.debounce = DefaultDebounce
	}
	if m.saveTimeout <= 0 {
		m.saveTimeout = DefaultSaveTimeout
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.logger = m.logger.Named("tabs").With(zap.String("owner_id", m.ownerID))

	return m
}

// OwnerID returns the owner the manager acts for
func (m *Manager) OwnerID() string { return m.ownerID }

func errTabNotOpen(slotID string) error {
	return dnderr.InvalidArgumentf("tab '%s' is not open", slotID).
		WithMeta(dnderr.MetaSlotID, slotID)
}

func (m *Manager) lookup(slotID string) (*slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.slots[slotID]
	if !ok {
		return nil, errTabNotOpen(slotID)
	}
	return s, nil
}

func (m *Manager) register(s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[s.id] = s
	m.order = append(m.order, s.id)
}

func (m *Manager) unregister(slotID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.slots[slotID]; !ok {
		return false
	}
	delete(m.slots, slotID)
	for i, id := range m.order {
		if id == slotID {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Open loads a stored character into a new tab. Concurrent opens of the same
// character share one store call.
func (m *Manager) Open(ctx context.Context, characterID string) (Snapshot, error) {
	snap, err := m.open(ctx, characterID)
	if err != nil {
		return Snapshot{}, err
	}
	m.persistTabs(ctx)
	return snap, nil
}

func (m *Manager) open(ctx context.Context, characterID string) (Snapshot, error) {
	if characterID == "" {
		return Snapshot{}, dnderr.InvalidArgument("character ID is required")
	}

	s := &slot{id: m.slotIDs.New(), status: StatusUnloaded}
	m.register(s)

	result, err, shared := m.loads.Do(characterID, func() (any, error) {
		return m.store.Get(ctx, characterID)
	})
	if err == nil {
		char, convErr := character.FromRecord(result.(*character.Record), m.charOpts...)
		err = convErr
		if err == nil {
			s.mu.Lock()
			s.char = char
			s.status = StatusClean
			snap := s.snapshotLocked()
			s.mu.Unlock()

			m.logger.Debug("tab opened",
				zap.String("slot_id", s.id),
				zap.String("character_id", characterID),
				zap.Bool("shared_load", shared))
			return snap, nil
		}
	}

	m.unregister(s.id)
	if dnderr.IsLocal(err) {
		err = dnderr.Wrapf(err, "character '%s' is invalid", characterID).
			WithMeta(dnderr.MetaSlotID, s.id)
	} else {
		err = dnderr.Transport(err, "load").
			WithMeta(dnderr.MetaSlotID, s.id).
			WithMeta(dnderr.MetaID, characterID)
	}
	m.notifier.Notify(ctx, notify.Notification{
		Level:     notify.LevelError,
		Category:  notify.CategoryLoad,
		SlotID:    s.id,
		Operation: "get",
		Message:   "Could not load character " + characterID,
		Err:       err,
	})
	return Snapshot{}, err
}

// OpenDraft opens an unsaved character in a new tab and schedules its first save
func (m *Manager) OpenDraft(ctx context.Context, draft *character.Character) (Snapshot, error) {
	if draft == nil {
		return Snapshot{}, dnderr.InvalidArgument("draft cannot be nil")
	}

	s := &slot{id: m.slotIDs.New(), char: draft.Clone(), status: StatusDirty}
	m.register(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	m.scheduleLocked(s)
	return s.snapshotLocked(), nil
}

// OpenImport copies a character shared by another owner into a new draft tab
func (m *Manager) OpenImport(ctx context.Context, shared *character.Record) (Snapshot, error) {
	draft, err := character.Import(shared, m.ownerID, m.charOpts...)
	if err != nil {
		return Snapshot{}, err
	}
	return m.OpenDraft(ctx, draft)
}

// Edit runs fn against the tab's character. When fn fails the character is
// restored to its state before the call and the error is returned untouched.
// On success the tab becomes dirty and the debounced save is rescheduled.
func (m *Manager) Edit(slotID string, fn func(*character.Character) error) (Snapshot, error) {
	s, err := m.lookup(slotID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.char == nil {
		return Snapshot{}, dnderr.InvalidArgumentf("tab '%s' is still loading", slotID).
			WithMeta(dnderr.MetaSlotID, slotID)
	}
	if s.terminal {
		return s.snapshotLocked(), dnderr.Wrap(s.lastErr, "character no longer exists").
			WithMeta(dnderr.MetaSlotID, slotID)
	}

	before := s.char.Clone()
	if err := fn(s.char); err != nil {
		s.char = before
		return s.snapshotLocked(), err
	}
	if !s.char.Dirty() {
		return s.snapshotLocked(), nil
	}

	s.editSeq++
	s.status = StatusDirty
	m.scheduleLocked(s)
	return s.snapshotLocked(), nil
}

// Snapshot returns a copy of one tab
func (m *Manager) Snapshot(slotID string) (Snapshot, error) {
	s, err := m.lookup(slotID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// Slots returns a copy of every open tab in the order they were opened
func (m *Manager) Slots() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.order))
	for _, id := range m.order {
		s := m.slots[id]
		s.mu.Lock()
		out = append(out, s.snapshotLocked())
		s.mu.Unlock()
	}
	return out
}

// Close drops a tab. A pending save is cancelled and the result of a save
// already in flight is discarded.
func (m *Manager) Close(ctx context.Context, slotID string) error {
	s, err := m.lookup(slotID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()

	m.unregister(slotID)
	m.persistTabs(ctx)
	return nil
}

// Delete removes the tab's character from the store and closes the tab.
// No new save starts once Delete begins; a save already in flight is waited
// for so a draft it creates is deleted too. Drafts that were never saved are
// just closed.
func (m *Manager) Delete(ctx context.Context, slotID string) error {
	s, err := m.lookup(slotID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.deleting = true
	s.stopTimerLocked()
	for s.inFlight {
		done := s.flightDone
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			s.mu.Lock()
			m.abortDeleteLocked(s)
			s.mu.Unlock()
			return ctx.Err()
		}
		s.mu.Lock()
	}
	s.pending = false
	var characterID, portraitRef string
	name := s.name()
	if s.char != nil {
		characterID = s.char.ID()
		portraitRef = s.char.PortraitRef()
	}
	s.mu.Unlock()

	if characterID != "" {
		err = m.store.Delete(ctx, characterID)
		if err != nil && !dnderr.IsNotFound(err) {
			s.mu.Lock()
			m.abortDeleteLocked(s)
			s.mu.Unlock()

			err = dnderr.Transport(err, "delete").
				WithMeta(dnderr.MetaSlotID, slotID).
				WithMeta(dnderr.MetaID, characterID)
			m.notifier.Notify(ctx, notify.Notification{
				Level:     notify.LevelError,
				Category:  notify.CategoryDelete,
				SlotID:    slotID,
				Operation: "delete",
				Message:   "Could not delete " + name,
				Err:       err,
			})
			return err
		}
	}

	if portraitRef != "" {
		m.dropPortrait(ctx, portraitRef)
	}
	return m.Close(ctx, slotID)
}

// abortDeleteLocked reopens a tab whose delete did not happen and resumes
// saving kept edits. Caller holds s.mu.
func (m *Manager) abortDeleteLocked(s *slot) {
	s.deleting = false
	if s.char != nil && s.char.Dirty() {
		m.scheduleLocked(s)
	}
}

// List returns every stored character of the owner
func (m *Manager) List(ctx context.Context) ([]*character.Record, error) {
	recs, err := m.store.ListByOwner(ctx, m.ownerID)
	if err != nil {
		return nil, dnderr.Transport(err, "list")
	}
	return recs, nil
}

// Restore reopens the tabs recorded in the open-tab cache. Tabs that cannot be
// loaded are skipped; a cache failure restores nothing.
func (m *Manager) Restore(ctx context.Context) []Snapshot {
	ids, err := m.cache.Load(ctx, m.ownerID)
	if err != nil {
		m.logger.Warn("failed to load open tabs", zap.Error(err))
		return nil
	}

	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := m.open(ctx, id)
		if err != nil {
			m.logger.Warn("failed to restore tab", zap.String("character_id", id), zap.Error(err))
			continue
		}
		out = append(out, snap)
	}

	m.persistTabs(ctx)
	return out
}

// Roll draws a d20 for the tab's character against attr, records the outcome
// and announces it.
func (m *Manager) Roll(ctx context.Context, slotID string, attr character.Attribute) (dice.Outcome, error) {
	s, err := m.lookup(slotID)
	if err != nil {
		return dice.Outcome{}, err
	}

	s.mu.Lock()
	if s.char == nil {
		s.mu.Unlock()
		return dice.Outcome{}, dnderr.InvalidArgumentf("tab '%s' is still loading", slotID)
	}
	modifier, err := s.char.Modifier(attr)
	name, characterID := s.char.Name(), s.char.ID()
	s.mu.Unlock()
	if err != nil {
		return dice.Outcome{}, err
	}

	outcome, err := dice.RollD20(m.roller, modifier)
	if err != nil {
		return dice.Outcome{}, dnderr.Wrap(err, "failed to roll").WithMeta(dnderr.MetaSlotID, slotID)
	}
	outcome.CharacterID = characterID
	outcome.CharacterName = name
	outcome.Attribute = string(attr)
	outcome.RolledAt = m.clock.Now()
	outcome = m.history.Append(outcome)

	m.notifier.Notify(ctx, notify.Notification{
		Level:    notify.LevelInfo,
		Category: notify.CategoryRoll,
		SlotID:   slotID,
		Message:  outcome.Announcement(),
	})
	return outcome, nil
}

// History returns the recorded rolls, newest first
func (m *Manager) History() []dice.Outcome {
	return m.history.List()
}

// FlushAll saves every dirty tab now. Each tab saves with ctx on its own; one
// failing tab does not cancel the others. The failures are joined.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.RLock()
	ids := append([]string(nil), m.order...)
	m.mu.RUnlock()

	errs := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			err := m.Flush(ctx, id)
			if !dnderr.IsInvalidArgument(err) {
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// persistTabs writes the IDs of the stored characters currently open.
// Failures are logged only.
func (m *Manager) persistTabs(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.order))
	for _, slotID := range m.order {
		s := m.slots[slotID]
		s.mu.Lock()
		if s.char != nil && !s.char.IsDraft() {
			ids = append(ids, s.char.ID())
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	if err := m.cache.Save(ctx, m.ownerID, ids); err != nil {
		m.logger.Warn("failed to save open tabs", zap.Int("tabs", len(ids)), zap.Error(err))
	}
}
