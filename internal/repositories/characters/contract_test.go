package characters

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/testutils"
	"github.com/stretchr/testify/suite"
)

// stepClock advances a little over a second per call so ordering by creation
// time is stable and sub-millisecond precision reaches the stores
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second + 1234567*time.Nanosecond)
	return c.now
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// ContractTestSuite runs the same behavioral checks against every Repository
type ContractTestSuite struct {
	suite.Suite
	newRepo func(t *testing.T, clock TimeProvider) Repository
	repo    Repository
	ctx     context.Context
}

func (s *ContractTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo(s.T(), newStepClock())
}

func (s *ContractTestSuite) draft(owner, name string) *character.Record {
	rec := testutils.CreateTestDraftRecord(owner, name)
	rec.CurrentHealth = 40
	rec.CurrentStress = 2
	rec.States = []string{"wounded", "tired"}
	rec.Effects = []string{"blessed"}
	return rec
}

func (s *ContractTestSuite) TestCreateThenGet() {
	created, err := s.repo.Create(s.ctx, s.draft("owner-1", "Mira"))
	s.Require().NoError(err)

	s.NotEmpty(created.ID)
	s.False(created.CreatedAt.IsZero())
	s.Equal(created.CreatedAt, created.UpdatedAt)
	s.Equal(46, created.MaxHealth)
	s.Equal(24, created.MaxStress)

	got, err := s.repo.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, got)
}

func (s *ContractTestSuite) TestCreateNormalizesDerivedValues() {
	rec := s.draft("owner-1", "Liar")
	rec.MaxHealth = 999
	rec.CurrentHealth = 500

	created, err := s.repo.Create(s.ctx, rec)
	s.Require().NoError(err)

	s.Equal(46, created.MaxHealth)
	s.Equal(46, created.CurrentHealth)
}

func (s *ContractTestSuite) TestUpdateKeepsCreatedAt() {
	created, err := s.repo.Create(s.ctx, s.draft("owner-1", "Mira"))
	s.Require().NoError(err)

	edit := created.Clone()
	edit.Name = "Mira the Bold"
	edit.Attributes.Willpower = 2
	edit.CurrentStress = 6
	edit.PortraitRef = "portrait-1"

	updated, err := s.repo.Update(s.ctx, edit)
	s.Require().NoError(err)

	s.Equal(created.CreatedAt, updated.CreatedAt)
	s.True(updated.UpdatedAt.After(created.UpdatedAt))
	s.Equal(34, updated.MaxHealth)
	s.Equal(6, updated.MaxStress)

	got, err := s.repo.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(updated, got)
	s.Equal("Mira the Bold", got.Name)
	s.Equal("portrait-1", got.PortraitRef)
	s.Equal([]string{"wounded", "tired"}, got.States)
}

func (s *ContractTestSuite) TestUpdateMissingIsNotFound() {
	rec := s.draft("owner-1", "Ghost")
	rec.ID = "does-not-exist"

	_, err := s.repo.Update(s.ctx, rec)

	s.True(dnderr.IsNotFound(err))
}

func (s *ContractTestSuite) TestDelete() {
	created, err := s.repo.Create(s.ctx, s.draft("owner-1", "Mira"))
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Delete(s.ctx, created.ID))

	_, err = s.repo.Get(s.ctx, created.ID)
	s.True(dnderr.IsNotFound(err))
	s.True(dnderr.IsNotFound(s.repo.Delete(s.ctx, created.ID)))
}

func (s *ContractTestSuite) TestListByOwnerScopesAndOrders() {
	first, err := s.repo.Create(s.ctx, s.draft("owner-1", "First"))
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, s.draft("owner-2", "Someone Else"))
	s.Require().NoError(err)
	second, err := s.repo.Create(s.ctx, s.draft("owner-1", "Second"))
	s.Require().NoError(err)

	records, err := s.repo.ListByOwner(s.ctx, "owner-1")
	s.Require().NoError(err)

	s.Require().Len(records, 2)
	s.Equal(first.ID, records[0].ID)
	s.Equal(second.ID, records[1].ID)

	empty, err := s.repo.ListByOwner(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *ContractTestSuite) TestCreateWithExplicitIDTwice() {
	rec := s.draft("owner-1", "Fixed")
	rec.ID = "fixed-id"

	_, err := s.repo.Create(s.ctx, rec)
	s.Require().NoError(err)

	_, err = s.repo.Create(s.ctx, rec)
	s.True(dnderr.IsAlreadyExists(err))
}

func TestInMemoryRepositoryContract(t *testing.T) {
	suite.Run(t, &ContractTestSuite{
		newRepo: func(t *testing.T, clock TimeProvider) Repository {
			return NewInMemoryRepository(&InMemoryRepoConfig{TimeProvider: clock})
		},
	})
}

func TestSQLiteRepositoryContract(t *testing.T) {
	suite.Run(t, &ContractTestSuite{
		newRepo: func(t *testing.T, clock TimeProvider) Repository {
			repo, err := OpenSQLite(&SQLiteRepoConfig{
				Path:         filepath.Join(t.TempDir(), "characters.db"),
				TimeProvider: clock,
			})
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	})
}
