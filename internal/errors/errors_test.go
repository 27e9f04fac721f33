package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation_CarriesFieldAndReason(t *testing.T) {
	err := dnderr.Validation("strength", dnderr.ReasonNumeric, "strength must be a whole number")

	assert.True(t, dnderr.IsValidation(err))
	assert.True(t, dnderr.IsLocal(err))
	assert.Equal(t, "strength", dnderr.Field(err))
	assert.Equal(t, dnderr.ReasonNumeric, dnderr.Reason(err))
	assert.Equal(t, "strength must be a whole number", err.Error())
}

func TestWrap_PreservesCodeAndMeta(t *testing.T) {
	inner := dnderr.NotFoundf("character with ID '%s' not found", "abc").
		WithMeta(dnderr.MetaID, "abc")

	wrapped := dnderr.Wrap(inner, "load failed")

	require.NotNil(t, wrapped)
	assert.True(t, dnderr.IsNotFound(wrapped))
	assert.Equal(t, "abc", dnderr.GetMeta(wrapped)[dnderr.MetaID])
	assert.Equal(t, "load failed: character with ID 'abc' not found", wrapped.Error())

	// meta is copied, not shared
	wrapped.WithMeta("extra", true)
	_, leaked := inner.Meta["extra"]
	assert.False(t, leaked)
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, dnderr.Wrap(nil, "nothing"))
	assert.Nil(t, dnderr.Transport(nil, "save"))
}

func TestTransport(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransport bool
		wantNotFound  bool
	}{
		{
			name:          "plain failure becomes unavailable",
			err:           fmt.Errorf("dial tcp: connection refused"),
			wantTransport: true,
		},
		{
			name:         "not found keeps its code",
			err:          dnderr.NotFound("gone"),
			wantNotFound: true,
		},
		{
			name:          "wrapped std error",
			err:           fmt.Errorf("pipeline: %w", stderrors.New("i/o timeout")),
			wantTransport: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dnderr.Transport(tt.err, "update")

			assert.Equal(t, tt.wantTransport, dnderr.IsTransport(err))
			assert.Equal(t, tt.wantNotFound, dnderr.IsNotFound(err))
			assert.Equal(t, "update", dnderr.GetMeta(err)[dnderr.MetaOperation])
			assert.False(t, dnderr.IsLocal(err))
		})
	}
}

func TestGetCode_ForeignError(t *testing.T) {
	assert.Equal(t, dnderr.CodeUnknown, dnderr.GetCode(stderrors.New("boom")))
	assert.Nil(t, dnderr.GetMeta(stderrors.New("boom")))
	assert.Empty(t, dnderr.Field(stderrors.New("boom")))
}
