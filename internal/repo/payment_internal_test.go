package repo

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

func TestInsertCallback_SkipsConflicts(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)

	stmt := insertCallback(db, &models.PaymentCallback{
		IdempotencyKey: models.CallbackKey("ORD-1", models.OutcomeSuccess),
		OrderCode:      "ORD-1",
		Outcome:        models.OutcomeSuccess,
		Source:         "ipn",
	}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, "DO NOTHING")
}
