package characters

import (
	"sort"
	"strings"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
)

// prepare validates an inbound record and returns a normalized copy the store can own
func prepare(rec *character.Record, requireID bool) (*character.Record, error) {
	if rec == nil {
		return nil, dnderr.InvalidArgument("character cannot be nil")
	}
	if requireID && rec.ID == "" {
		return nil, dnderr.InvalidArgument("character ID is required")
	}
	if rec.OwnerID == "" {
		return nil, dnderr.InvalidArgument("character owner ID is required")
	}
	if strings.TrimSpace(rec.Name) == "" {
		return nil, dnderr.Validation(character.FieldName, dnderr.ReasonRequired, "name is required").
			WithMeta(dnderr.MetaID, rec.ID)
	}

	out := rec.Clone()
	out.Normalize()
	if err := out.Attributes.Validate(); err != nil {
		return nil, dnderr.Wrapf(err, "invalid attributes on character '%s'", rec.ID).
			WithMeta(dnderr.MetaID, rec.ID)
	}
	return out, nil
}

func notFound(id string) error {
	return dnderr.NotFoundf("character with ID '%s' not found", id).
		WithMeta(dnderr.MetaID, id)
}

// sortRecords orders records by creation time, then ID
func sortRecords(recs []*character.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
}
