package tabs

import (
	"context"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/notify"
	"go.uber.org/zap"
)

// scheduleLocked (re)starts the trailing-edge debounce timer. Caller holds s.mu.
func (m *Manager) scheduleLocked(s *slot) {
	if s.closed || s.terminal || s.deleting {
		return
	}
	s.stopTimerLocked()
	s.timer = m.scheduler.AfterFunc(m.debounce, func() { m.fire(s) })
	m.logger.Debug("save scheduled", zap.String("slot_id", s.id), zap.Duration("debounce", m.debounce))
}

func (m *Manager) fire(s *slot) {
	ctx, cancel := context.WithTimeout(context.Background(), m.saveTimeout)
	defer cancel()

	if err := m.save(ctx, s); err != nil {
		m.logger.Debug("debounced save failed", zap.String("slot_id", s.id), zap.Error(err))
	}
}

// Flush cancels the pending timer and saves the tab now. A save already in
// flight is waited for first.
func (m *Manager) Flush(ctx context.Context, slotID string) error {
	s, err := m.lookup(slotID)
	if err != nil {
		return err
	}

	for {
		s.mu.Lock()
		s.stopTimerLocked()
		if !s.inFlight {
			s.mu.Unlock()
			return m.save(ctx, s)
		}
		done := s.flightDone
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// save sends the latest full state of the tab with one Create or Update.
// At most one save per tab is in flight; a save requested meanwhile is
// remembered and rescheduled once the flight lands.
func (m *Manager) save(ctx context.Context, s *slot) error {
	s.mu.Lock()
	s.timer = nil
	if s.closed || s.deleting {
		s.mu.Unlock()
		return nil
	}
	if s.terminal {
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	if s.inFlight {
		s.pending = true
		s.mu.Unlock()
		return nil
	}
	if s.char == nil || !s.char.Dirty() {
		s.mu.Unlock()
		return nil
	}

	rec := s.char.Record()
	seq := s.editSeq
	wasDraft := s.char.IsDraft()
	s.inFlight = true
	s.flightDone = make(chan struct{})
	s.status = StatusSaving
	s.mu.Unlock()

	op := "update"
	var echo *character.Record
	var err error
	if wasDraft {
		op = "create"
		echo, err = m.store.Create(ctx, rec)
	} else {
		echo, err = m.store.Update(ctx, rec)
	}
	if err == nil && echo == nil {
		echo = rec
	}

	s.mu.Lock()
	s.inFlight = false
	close(s.flightDone)

	if s.closed {
		s.mu.Unlock()
		m.logger.Debug("discarding save result for closed tab", zap.String("slot_id", s.id))
		return nil
	}

	if err != nil {
		return m.saveFailedLocked(ctx, s, op, err)
	}

	pending := s.pending
	s.pending = false

	if s.editSeq == seq {
		char, convErr := character.FromRecord(echo, m.charOpts...)
		if convErr != nil {
			s.char.AdoptServerFields(echo)
			s.char.MarkClean()
			m.logger.Warn("store echo rejected, keeping local state", zap.String("slot_id", s.id), zap.Error(convErr))
		} else {
			s.char = char
		}
		s.status = StatusClean
	} else {
		// edited during the flight: keep local values, take the server identity
		s.char.AdoptServerFields(echo)
		s.status = StatusDirty
		pending = true
	}
	s.lastErr = nil
	if pending && s.char.Dirty() {
		m.scheduleLocked(s)
	}
	s.mu.Unlock()

	m.logger.Debug("tab saved", zap.String("slot_id", s.id), zap.String("operation", op), zap.String("character_id", echo.ID))
	if wasDraft {
		m.persistTabs(ctx)
	}
	return nil
}

// saveFailedLocked records a failed save and unlocks s.mu. Missing characters
// are terminal; anything else leaves the tab dirty so the next edit or Flush
// retries.
func (m *Manager) saveFailedLocked(ctx context.Context, s *slot, op string, cause error) error {
	var err error
	if dnderr.IsLocal(cause) || dnderr.IsInvalidArgument(cause) {
		err = dnderr.Wrapf(cause, "%s rejected", op).WithMeta(dnderr.MetaOperation, op)
	} else {
		err = dnderr.Transport(cause, op)
	}
	err = dnderr.Wrap(err, "could not save "+s.name()).WithMeta(dnderr.MetaSlotID, s.id)

	terminal := dnderr.IsNotFound(cause)
	s.status = StatusError
	s.lastErr = err
	s.terminal = terminal
	name := s.name()
	s.mu.Unlock()

	m.logger.Warn("save failed",
		zap.String("slot_id", s.id),
		zap.String("operation", op),
		zap.Bool("terminal", terminal),
		zap.Error(cause))

	message := "Could not save " + name + "; your changes are kept and will be retried"
	if terminal {
		message = name + " no longer exists on the server"
	}
	m.notifier.Notify(ctx, notify.Notification{
		Level:     notify.LevelError,
		Category:  notify.CategorySave,
		SlotID:    s.id,
		Operation: op,
		Message:   message,
		Err:       err,
	})

	if !terminal {
		s.mu.Lock()
		if s.status == StatusError && !s.closed {
			s.status = StatusDirty
			if s.pending {
				s.pending = false
				m.scheduleLocked(s)
			}
		}
		s.mu.Unlock()
	}
	return err
}
