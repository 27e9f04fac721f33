package characters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS characters (
	id             TEXT PRIMARY KEY,
	owner_id       TEXT NOT NULL,
	name           TEXT NOT NULL,
	strength       INTEGER NOT NULL DEFAULT 1,
	agility        INTEGER NOT NULL DEFAULT 1,
	perception     INTEGER NOT NULL DEFAULT 1,
	willpower      INTEGER NOT NULL DEFAULT 1,
	max_health     INTEGER NOT NULL,
	max_stress     INTEGER NOT NULL,
	current_health INTEGER NOT NULL,
	current_stress INTEGER NOT NULL,
	states_json    TEXT NOT NULL DEFAULT '[]',
	effects_json   TEXT NOT NULL DEFAULT '[]',
	portrait_ref   TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_characters_owner ON characters(owner_id, created_at);
`

const sqliteColumns = `id, owner_id, name, strength, agility, perception, willpower,
	max_health, max_stress, current_health, current_stress,
	states_json, effects_json, portrait_ref, created_at, updated_at`

// SQLiteRepository persists characters in a single SQLite table
type SQLiteRepository struct {
	sqlDB         *sql.DB
	uuidGenerator uuid.Generator
	timeProvider  TimeProvider
}

// SQLiteRepoConfig holds configuration for the SQLite repository
type SQLiteRepoConfig struct {
	Path          string
	UUIDGenerator uuid.Generator
	TimeProvider  TimeProvider
}

// OpenSQLite opens (creating if needed) and migrates a SQLite character store
func OpenSQLite(cfg *SQLiteRepoConfig) (*SQLiteRepository, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("SQLiteRepoConfig cannot be nil")
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, dnderr.InvalidArgument("storage path is required")
	}
	if cfg.UUIDGenerator == nil {
		cfg.UUIDGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = NewTimeProvider()
	}

	dsn := filepath.Clean(cfg.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		sqlDB:         sqlDB,
		uuidGenerator: cfg.UUIDGenerator,
		timeProvider:  cfg.TimeProvider,
	}, nil
}

// Close releases the underlying SQLite connection
func (s *SQLiteRepository) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create stores a new character
func (s *SQLiteRepository) Create(ctx context.Context, rec *character.Record) (*character.Record, error) {
	data, err := prepare(rec, false)
	if err != nil {
		return nil, err
	}
	if data.ID == "" {
		data.ID = s.uuidGenerator.New()
	}
	data.CreatedAt = s.timeProvider.Now().UTC().Truncate(time.Millisecond)
	data.UpdatedAt = data.CreatedAt

	states, effects, err := encodeTags(data)
	if err != nil {
		return nil, err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO characters (`+sqliteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.ID, data.OwnerID, data.Name,
		data.Attributes.Strength, data.Attributes.Agility, data.Attributes.Perception, data.Attributes.Willpower,
		data.MaxHealth, data.MaxStress, data.CurrentHealth, data.CurrentStress,
		states, effects, data.PortraitRef,
		data.CreatedAt.UnixMilli(), data.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, dnderr.AlreadyExistsf("character with ID '%s' already exists", data.ID).
				WithMeta(dnderr.MetaID, data.ID)
		}
		return nil, dnderr.Transport(fmt.Errorf("insert character: %w", err), "create").
			WithMeta(dnderr.MetaID, data.ID)
	}

	return data, nil
}

// Get retrieves a character by ID
func (s *SQLiteRepository) Get(ctx context.Context, id string) (*character.Record, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("character ID is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM characters WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("get character: %w", err), "get").
			WithMeta(dnderr.MetaID, id)
	}
	return rec, nil
}

// ListByOwner retrieves all characters for a specific owner, oldest first
func (s *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*character.Record, error) {
	if ownerID == "" {
		return nil, dnderr.InvalidArgument("owner ID is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM characters WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("list characters: %w", err), "list")
	}
	defer rows.Close()

	records := make([]*character.Record, 0)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, dnderr.Transport(fmt.Errorf("scan character: %w", scanErr), "list")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dnderr.Transport(fmt.Errorf("iterate characters: %w", err), "list")
	}

	return records, nil
}

// Update replaces an existing character, preserving its creation time
func (s *SQLiteRepository) Update(ctx context.Context, rec *character.Record) (*character.Record, error) {
	data, err := prepare(rec, true)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, data.ID)
	if err != nil {
		return nil, dnderr.Transport(err, "update")
	}
	data.CreatedAt = existing.CreatedAt
	data.UpdatedAt = s.timeProvider.Now().UTC().Truncate(time.Millisecond)

	states, effects, err := encodeTags(data)
	if err != nil {
		return nil, err
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE characters SET owner_id = ?, name = ?, strength = ?, agility = ?, perception = ?, willpower = ?,
		 max_health = ?, max_stress = ?, current_health = ?, current_stress = ?,
		 states_json = ?, effects_json = ?, portrait_ref = ?, updated_at = ?
		 WHERE id = ?`,
		data.OwnerID, data.Name,
		data.Attributes.Strength, data.Attributes.Agility, data.Attributes.Perception, data.Attributes.Willpower,
		data.MaxHealth, data.MaxStress, data.CurrentHealth, data.CurrentStress,
		states, effects, data.PortraitRef, data.UpdatedAt.UnixMilli(),
		data.ID,
	)
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("update character: %w", err), "update").
			WithMeta(dnderr.MetaID, data.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound(data.ID)
	}

	return data, nil
}

// Delete removes a character
func (s *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dnderr.InvalidArgument("character ID is required")
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return dnderr.Transport(fmt.Errorf("delete character: %w", err), "delete").
			WithMeta(dnderr.MetaID, id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*character.Record, error) {
	var (
		rec                  character.Record
		states, effects      string
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.Name,
		&rec.Attributes.Strength, &rec.Attributes.Agility, &rec.Attributes.Perception, &rec.Attributes.Willpower,
		&rec.MaxHealth, &rec.MaxStress, &rec.CurrentHealth, &rec.CurrentStress,
		&states, &effects, &rec.PortraitRef,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(states), &rec.States); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}
	if err := json.Unmarshal([]byte(effects), &rec.Effects); err != nil {
		return nil, fmt.Errorf("decode effects: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	rec.Normalize()
	return &rec, nil
}

func encodeTags(rec *character.Record) (string, string, error) {
	states, err := json.Marshal(rec.States)
	if err != nil {
		return "", "", fmt.Errorf("encode states: %w", err)
	}
	effects, err := json.Marshal(rec.Effects)
	if err != nil {
		return "", "", fmt.Errorf("encode effects: %w", err)
	}
	return string(states), string(effects), nil
}
