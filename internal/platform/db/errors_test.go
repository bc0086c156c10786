package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert client: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}
	serial := fmt.Errorf("lock estimate: %w", &pgconn.PgError{Code: "40001"})

	require.True(t, IsUniqueViolation(unique))
	require.False(t, IsUniqueViolation(fk))
	require.True(t, IsForeignKeyViolation(fk))
	require.True(t, IsSerializationFailure(serial))
	require.False(t, IsSerializationFailure(errors.New("boom")))
	require.False(t, IsUniqueViolation(nil))
}
