package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"contest-hub-system/models"
)

// newTestDB opens a fresh in-memory database with the full schema. A single
// connection keeps concurrent transactions serialized the way the tests
// expect.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.Participation{},
		&models.Submission{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, name, role string) models.User {
	t.Helper()
	user := models.User{Email: email, Name: name, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedContest(t *testing.T, db *gorm.DB, creator, status string, deadline time.Time) models.Contest {
	t.Helper()
	contest := models.Contest{
		ID:           uuid.NewString(),
		Slug:         "test-contest",
		Name:         "Test Contest",
		Type:         "design",
		PrizeMoney:   250,
		CreatorEmail: creator,
		Status:       status,
		Deadline:     deadline,
	}
	require.NoError(t, db.Create(&contest).Error)
	return contest
}
