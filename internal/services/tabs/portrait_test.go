package tabs

import (
	"context"
	"testing"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	mockcharacters "github.com/KirkDiggler/charsheet/internal/repositories/characters/mock"
	"github.com/KirkDiggler/charsheet/internal/repositories/portraits"
	"github.com/KirkDiggler/charsheet/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	pngFace = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifFace = []byte("GIF89a\x01\x00\x01\x00")
)

func newPortraitManager(t *testing.T) (*Manager, *portraits.InMemoryStore, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mockcharacters.NewMockRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), "char-1").Return(testutils.CreateTestRecord("char-1", "owner-1", "Mira"), nil)

	store := portraits.NewInMemoryStore(0)
	m := NewManager(&ManagerConfig{
		OwnerID:    "owner-1",
		Repository: repo,
		Portraits:  store,
		Scheduler:  &manualScheduler{},
	})

	snap, err := m.Open(context.Background(), "char-1")
	require.NoError(t, err)
	return m, store, snap.SlotID
}

func TestAttachPortrait(t *testing.T) {
	ctx := context.Background()
	m, store, slotID := newPortraitManager(t)

	snap, err := m.AttachPortrait(ctx, slotID, "image/png", pngFace)
	require.NoError(t, err)
	first := snap.Character.PortraitRef()
	require.NotEmpty(t, first)
	assert.Equal(t, StatusDirty, snap.Status)

	got, err := m.Portrait(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, pngFace, got.Data)

	snap, err = m.AttachPortrait(ctx, slotID, "image/gif", gifFace)
	require.NoError(t, err)
	assert.NotEqual(t, first, snap.Character.PortraitRef())

	_, err = store.Get(ctx, first)
	assert.True(t, dnderr.IsNotFound(err), "replaced portrait should be removed")
}

func TestAttachPortrait_RejectsBadImage(t *testing.T) {
	ctx := context.Background()
	m, _, slotID := newPortraitManager(t)

	snap, err := m.AttachPortrait(ctx, slotID, "image/png", []byte("not an image at all"))

	assert.True(t, dnderr.IsValidation(err))
	assert.Equal(t, dnderr.ReasonFormat, dnderr.Reason(err))
	assert.Equal(t, Snapshot{}, snap)

	current, err := m.Snapshot(slotID)
	require.NoError(t, err)
	assert.Empty(t, current.Character.PortraitRef())
	assert.Equal(t, StatusClean, current.Status)
}

func TestClearPortrait(t *testing.T) {
	ctx := context.Background()
	m, store, slotID := newPortraitManager(t)

	snap, err := m.AttachPortrait(ctx, slotID, "image/png", pngFace)
	require.NoError(t, err)
	ref := snap.Character.PortraitRef()

	snap, err = m.ClearPortrait(ctx, slotID)
	require.NoError(t, err)
	assert.Empty(t, snap.Character.PortraitRef())

	_, err = store.Get(ctx, ref)
	assert.True(t, dnderr.IsNotFound(err))

	_, err = m.Portrait(ctx, slotID)
	assert.True(t, dnderr.IsNotFound(err))
}

func TestPortrait_NoStoreConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(&ManagerConfig{
		OwnerID:    "owner-1",
		Repository: mockcharacters.NewMockRepository(ctrl),
		Scheduler:  &manualScheduler{},
	})

	_, err := m.AttachPortrait(context.Background(), "slot", "image/png", pngFace)
	assert.True(t, dnderr.IsInvalidArgument(err))
}
