package characters

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	mockcharacters "github.com/KirkDiggler/charsheet/internal/repositories/characters/mock"
	mockuuid "github.com/KirkDiggler/charsheet/internal/uuid/mocks"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RedisRepoTestSuite struct {
	suite.Suite
	client        *redis.Client
	mock          redismock.ClientMock
	mockCtrl      *gomock.Controller
	uuidGenerator *mockuuid.MockGenerator
	timeProvider  *mockcharacters.MockTimeProvider
	repo          Repository
	now           time.Time
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.client, s.mock = redismock.NewClientMock()
	s.mockCtrl = gomock.NewController(s.T())
	s.uuidGenerator = mockuuid.NewMockGenerator(s.mockCtrl)
	s.timeProvider = mockcharacters.NewMockTimeProvider(s.mockCtrl)
	s.repo = NewRedisRepository(&RedisRepoConfig{
		Client:        s.client,
		UUIDGenerator: s.uuidGenerator,
		TimeProvider:  s.timeProvider,
	})
	s.now = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RedisRepoTestSuite) stored(id, ownerID string, createdAt time.Time) *character.Record {
	return &character.Record{
		ID:            id,
		OwnerID:       ownerID,
		Name:          "Mira",
		Attributes:    character.AttributeSet{Strength: 10, Agility: 5, Perception: 5, Willpower: 8},
		MaxHealth:     46,
		MaxStress:     24,
		CurrentHealth: 46,
		CurrentStress: 3,
		States:        []string{"wounded"},
		Effects:       []string{},
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func (s *RedisRepoTestSuite) encode(rec *character.Record) string {
	data, err := json.Marshal(toData(rec))
	s.Require().NoError(err)
	return string(data)
}

func (s *RedisRepoTestSuite) TestCreate_AssignsIDAndTimestamps() {
	ctx := context.Background()
	draft := &character.Record{
		OwnerID:       "owner-1",
		Name:          "Mira",
		Attributes:    character.AttributeSet{Strength: 10, Agility: 5, Perception: 5, Willpower: 8},
		CurrentHealth: 46,
		CurrentStress: 3,
		States:        []string{"wounded"},
	}
	expected := s.stored("char-1", "owner-1", s.now)

	s.uuidGenerator.EXPECT().New().Return("char-1")
	s.timeProvider.EXPECT().Now().Return(s.now)
	s.mock.ExpectSet("character:char-1", s.encode(expected), 0).SetVal("OK")
	s.mock.ExpectSAdd("owner:owner-1:characters", "char-1").SetVal(1)

	echo, err := s.repo.Create(ctx, draft)

	s.Require().NoError(err)
	s.Equal(expected, echo)
	s.Empty(draft.ID, "the caller's record is not modified")
}

func (s *RedisRepoTestSuite) TestCreate_DefaultsMissingAttributes() {
	ctx := context.Background()
	draft := &character.Record{OwnerID: "owner-1", Name: "Blank"}
	expected := &character.Record{
		ID:            "char-2",
		OwnerID:       "owner-1",
		Name:          "Blank",
		Attributes:    character.DefaultAttributeSet(),
		MaxHealth:     14,
		MaxStress:     3,
		CurrentHealth: 0,
		States:        []string{},
		Effects:       []string{},
		CreatedAt:     s.now,
		UpdatedAt:     s.now,
	}

	s.uuidGenerator.EXPECT().New().Return("char-2")
	s.timeProvider.EXPECT().Now().Return(s.now)
	s.mock.ExpectSet("character:char-2", s.encode(expected), 0).SetVal("OK")
	s.mock.ExpectSAdd("owner:owner-1:characters", "char-2").SetVal(1)

	echo, err := s.repo.Create(ctx, draft)

	s.Require().NoError(err)
	s.Equal(character.DefaultAttributeSet(), echo.Attributes)
	s.Equal(14, echo.MaxHealth)
}

func (s *RedisRepoTestSuite) TestCreate_ExistingIDIsRejected() {
	ctx := context.Background()
	rec := s.stored("fixed", "owner-1", time.Time{})

	s.mock.ExpectExists("character:fixed").SetVal(1)

	_, err := s.repo.Create(ctx, rec)

	s.True(dnderr.IsAlreadyExists(err))
}

func (s *RedisRepoTestSuite) TestCreate_PipelineFailureIsTransport() {
	ctx := context.Background()
	draft := s.stored("", "owner-1", time.Time{})
	expected := s.stored("char-3", "owner-1", s.now)

	s.uuidGenerator.EXPECT().New().Return("char-3")
	s.timeProvider.EXPECT().Now().Return(s.now)
	s.mock.ExpectSet("character:char-3", s.encode(expected), 0).SetErr(errors.New("connection reset"))

	_, err := s.repo.Create(ctx, draft)

	s.True(dnderr.IsTransport(err))
	s.Equal("create", dnderr.GetMeta(err)[dnderr.MetaOperation])
}

func (s *RedisRepoTestSuite) TestCreate_InputValidation() {
	ctx := context.Background()

	_, err := s.repo.Create(ctx, nil)
	s.True(dnderr.IsInvalidArgument(err))

	_, err = s.repo.Create(ctx, &character.Record{Name: "No Owner"})
	s.True(dnderr.IsInvalidArgument(err))

	_, err = s.repo.Create(ctx, &character.Record{OwnerID: "owner-1", Name: "  "})
	s.True(dnderr.IsValidation(err))

	_, err = s.repo.Create(ctx, &character.Record{OwnerID: "owner-1", Name: "Big", Attributes: character.AttributeSet{Strength: 25}})
	s.True(dnderr.IsValidation(err))
	s.Equal(string(character.AttributeStrength), dnderr.Field(err))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	rec := s.stored("char-1", "owner-1", s.now)

	s.mock.ExpectGet("character:char-1").SetVal(s.encode(rec))

	got, err := s.repo.Get(ctx, "char-1")

	s.Require().NoError(err)
	s.Equal(rec, got)
}

func (s *RedisRepoTestSuite) TestGet_Errors() {
	ctx := context.Background()

	s.mock.ExpectGet("character:missing").RedisNil()
	_, err := s.repo.Get(ctx, "missing")
	s.True(dnderr.IsNotFound(err))
	s.Equal("missing", dnderr.GetMeta(err)[dnderr.MetaID])

	s.mock.ExpectGet("character:char-1").SetErr(errors.New("i/o timeout"))
	_, err = s.repo.Get(ctx, "char-1")
	s.True(dnderr.IsTransport(err))

	_, err = s.repo.Get(ctx, "")
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestUpdate_PreservesCreatedAt() {
	ctx := context.Background()
	created := s.now.Add(-time.Hour)
	existing := s.stored("char-1", "owner-1", created)

	edited := existing.Clone()
	edited.CurrentStress = 10
	edited.CreatedAt = time.Time{}

	expected := existing.Clone()
	expected.CurrentStress = 10
	expected.UpdatedAt = s.now

	s.mock.ExpectGet("character:char-1").SetVal(s.encode(existing))
	s.timeProvider.EXPECT().Now().Return(s.now)
	s.mock.ExpectSet("character:char-1", s.encode(expected), 0).SetVal("OK")

	echo, err := s.repo.Update(ctx, edited)

	s.Require().NoError(err)
	s.Equal(created, echo.CreatedAt)
	s.Equal(s.now, echo.UpdatedAt)
	s.Equal(10, echo.CurrentStress)
}

func (s *RedisRepoTestSuite) TestUpdate_MovesOwnerIndex() {
	ctx := context.Background()
	existing := s.stored("char-1", "owner-1", s.now)

	moved := existing.Clone()
	moved.OwnerID = "owner-2"

	expected := moved.Clone()
	expected.UpdatedAt = s.now

	s.mock.ExpectGet("character:char-1").SetVal(s.encode(existing))
	s.timeProvider.EXPECT().Now().Return(s.now)
	s.mock.ExpectSet("character:char-1", s.encode(expected), 0).SetVal("OK")
	s.mock.ExpectSRem("owner:owner-1:characters", "char-1").SetVal(1)
	s.mock.ExpectSAdd("owner:owner-2:characters", "char-1").SetVal(1)

	_, err := s.repo.Update(ctx, moved)
	s.NoError(err)
}

func (s *RedisRepoTestSuite) TestUpdate_MissingIsNotFound() {
	ctx := context.Background()

	s.mock.ExpectGet("character:gone").RedisNil()

	_, err := s.repo.Update(ctx, s.stored("gone", "owner-1", s.now))

	s.True(dnderr.IsNotFound(err))
	s.False(dnderr.IsTransport(err))

	_, err = s.repo.Update(ctx, s.stored("", "owner-1", s.now))
	s.True(dnderr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestDelete() {
	ctx := context.Background()
	existing := s.stored("char-1", "owner-1", s.now)

	s.mock.ExpectGet("character:char-1").SetVal(s.encode(existing))
	s.mock.ExpectDel("character:char-1").SetVal(1)
	s.mock.ExpectSRem("owner:owner-1:characters", "char-1").SetVal(1)

	s.NoError(s.repo.Delete(ctx, "char-1"))

	s.mock.ExpectGet("character:char-1").RedisNil()
	s.True(dnderr.IsNotFound(s.repo.Delete(ctx, "char-1")))
}

func (s *RedisRepoTestSuite) TestListByOwner_SkipsStaleIndexEntries() {
	ctx := context.Background()
	older := s.stored("b-older", "owner-1", s.now.Add(-time.Minute))
	newer := s.stored("a-newer", "owner-1", s.now)

	s.mock.MatchExpectationsInOrder(false)
	s.mock.ExpectSMembers("owner:owner-1:characters").SetVal([]string{"a-newer", "b-older", "deleted"})
	s.mock.ExpectGet("character:a-newer").SetVal(s.encode(newer))
	s.mock.ExpectGet("character:b-older").SetVal(s.encode(older))
	s.mock.ExpectGet("character:deleted").RedisNil()

	records, err := s.repo.ListByOwner(ctx, "owner-1")

	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("b-older", records[0].ID)
	s.Equal("a-newer", records[1].ID)
}

func (s *RedisRepoTestSuite) TestListByOwner_Errors() {
	ctx := context.Background()

	s.mock.ExpectSMembers("owner:owner-1:characters").SetErr(errors.New("connection refused"))
	_, err := s.repo.ListByOwner(ctx, "owner-1")
	s.True(dnderr.IsTransport(err))

	_, err = s.repo.ListByOwner(ctx, "")
	s.True(dnderr.IsInvalidArgument(err))
}
