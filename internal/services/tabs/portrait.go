package tabs

import (
	"context"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/repositories/portraits"
	"go.uber.org/zap"
)

func (m *Manager) requirePortraits() error {
	if m.portraits == nil {
		return dnderr.InvalidArgument("no portrait store is configured")
	}
	return nil
}

// AttachPortrait uploads an image and points the tab's character at it. The
// previous image, if any, is removed from the store.
func (m *Manager) AttachPortrait(ctx context.Context, slotID, contentType string, data []byte) (Snapshot, error) {
	if err := m.requirePortraits(); err != nil {
		return Snapshot{}, err
	}
	if _, err := m.lookup(slotID); err != nil {
		return Snapshot{}, err
	}

	ref, err := m.portraits.Put(ctx, contentType, data)
	if err != nil {
		return Snapshot{}, err
	}

	var previous string
	snap, err := m.Edit(slotID, func(c *character.Character) error {
		previous = c.PortraitRef()
		return c.SetPortrait(ref)
	})
	if err != nil {
		m.dropPortrait(ctx, ref)
		return snap, err
	}

	if previous != "" && previous != ref {
		m.dropPortrait(ctx, previous)
	}
	return snap, nil
}

// ClearPortrait removes the tab's portrait
func (m *Manager) ClearPortrait(ctx context.Context, slotID string) (Snapshot, error) {
	var previous string
	snap, err := m.Edit(slotID, func(c *character.Character) error {
		previous = c.PortraitRef()
		c.ClearPortrait()
		return nil
	})
	if err != nil {
		return snap, err
	}

	if previous != "" && m.portraits != nil {
		m.dropPortrait(ctx, previous)
	}
	return snap, nil
}

// Portrait loads the tab's current image
func (m *Manager) Portrait(ctx context.Context, slotID string) (*portraits.Portrait, error) {
	if err := m.requirePortraits(); err != nil {
		return nil, err
	}

	snap, err := m.Snapshot(slotID)
	if err != nil {
		return nil, err
	}
	if snap.Character == nil || snap.Character.PortraitRef() == "" {
		return nil, dnderr.NotFoundf("tab '%s' has no portrait", slotID).WithMeta(dnderr.MetaSlotID, slotID)
	}
	return m.portraits.Get(ctx, snap.Character.PortraitRef())
}

func (m *Manager) dropPortrait(ctx context.Context, ref string) {
	if m.portraits == nil {
		return
	}
	if err := m.portraits.Delete(ctx, ref); err != nil && !dnderr.IsNotFound(err) {
		m.logger.Warn("failed to delete portrait", zap.String("portrait_ref", ref), zap.Error(err))
	}
}
