package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	verr := &ValidationError{}
	require.NoError(t, verr.OrNil())

	verr.Add("email", "email is required")
	verr.Add("client_id", "client is required")
	err := fmt.Errorf("create client: %w", verr.OrNil())

	require.ErrorIs(t, err, ErrValidation)
	var target *ValidationError
	require.True(t, errors.As(err, &target))
	require.Len(t, target.Fields, 2)
	require.Equal(t, "validation failed: client_id: client is required; email: email is required", verr.Error())
}

func TestConversionConflictError(t *testing.T) {
	err := fmt.Errorf("convert: %w", &ConversionConflictError{EstimateID: "e1", InvoiceID: "i9"})
	require.ErrorIs(t, err, ErrConversionConflict)
	var conflict *ConversionConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "i9", conflict.InvoiceID)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	require.False(t, ok)

	ctx := ContextWithIdentity(context.Background(), Identity{UserID: "u1", SessionID: "s1"})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", id.OwnerID())
	require.Equal(t, AnonymousOwner, Identity{Anonymous: true}.OwnerID())
}

func TestPagination(t *testing.T) {
	p := NewPagination(3, 10, 45)
	require.Equal(t, 5, p.TotalPages)
	require.Equal(t, 20, p.Offset())
	require.Equal(t, 0, NewPagination(0, 0, 0).Offset())
}
