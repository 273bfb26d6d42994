package services

import (
	"fmt"
	"strings"
	"testing"

	"payme-merchant/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Single connection keeps the shared in-memory database alive and
	// serializes sqlite access under concurrent tests
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.Transaction{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, amount int64) *models.Order {
	t.Helper()

	order := &models.Order{
		ProductIDs: `["p1","p2"]`,
		Amount:     amount,
		State:      models.OrderStateWaitingPay,
		UserID:     "u1",
		Phone:      "998901234567",
	}
	require.NoError(t, db.Create(order).Error)
	return order
}
