package validate

import (
	"errors"
	"testing"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=5"`
	Priority int       `json:"priority" validate:"gte=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sampleRequest{ID: uuid.New(), Name: "ok"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sampleRequest{Name: "too long", Priority: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Message, "id: is required")
	assert.Contains(t, de.Message, "name: must be at most 5 characters")
	assert.Contains(t, de.Message, "priority: must be greater than or equal to 0")
}
