package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/marketplace-core/internal/db"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedListing(t *testing.T, gdb *gorm.DB, id string, allowOffers bool) *model.Listing {
	t.Helper()
	l := &model.Listing{
		ID:             id,
		SellerID:       "seller",
		Title:          "Listing " + id,
		Price:          1000,
		Type:           model.ListingTypeAuction,
		AllowBestOffer: allowOffers,
		Status:         model.ListingStatusActive,
		ExpiresAt:      testNow.Add(72 * time.Hour),
	}
	require.NoError(t, gdb.Create(l).Error)
	return l
}
