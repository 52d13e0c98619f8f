package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.InsertAuditEntry(ctx, "reservation_created", `{"reservation_id":1}`))
	require.NoError(t, db.InsertAuditEntry(ctx, "reservation_canceled", `{"reservation_id":1}`))

	entries, err := db.ListAuditEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first
	assert.Equal(t, "reservation_canceled", entries[0].EventType)
	assert.Equal(t, "reservation_created", entries[1].EventType)

	limited, err := db.ListAuditEntries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
