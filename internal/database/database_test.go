package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&DatabaseConfig{Type: "sqlite", DataDir: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestOpenUnsupportedType(t *testing.T) {
	_, err := Open(&DatabaseConfig{Type: "oracle"})
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, RunMigrations(db))
	assert.True(t, db.Migrator().HasTable(&SavedPalette{}))
	assert.True(t, db.Migrator().HasTable(&RenderRecord{}))
}

func TestPaletteService(t *testing.T) {
	svc := NewPaletteService(openTestDB(t))

	created, err := svc.CreatePalette(" Sunset ", "warm tones", []string{"#ff8800", "#220044"})
	require.NoError(t, err)
	assert.Equal(t, "sunset", created.Name)

	_, err = svc.CreatePalette("SUNSET", "", []string{"#000000"})
	assert.True(t, errors.Is(err, ErrPaletteExists))

	_, err = svc.CreatePalette("empty", "", nil)
	assert.Error(t, err)

	got, err := svc.GetPaletteByName("Sunset")
	require.NoError(t, err)
	colors, err := got.HexColors()
	require.NoError(t, err)
	assert.Equal(t, []string{"#ff8800", "#220044"}, colors)

	_, err = svc.CreatePalette("amber", "", []string{"#ffbf00"})
	require.NoError(t, err)
	list, err := svc.ListPalettes()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amber", list[0].Name)

	require.NoError(t, svc.DeletePalette("amber"))
	assert.True(t, errors.Is(svc.DeletePalette("amber"), ErrNotFound))
	_, err = svc.GetPaletteByName("amber")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRenderRecordService(t *testing.T) {
	svc := NewRenderRecordService(openTestDB(t))

	old := &RenderRecord{PaletteName: "bw", Width: 4, Height: 4, Depth: 1, StrengthDivisor: 2, CreatedAt: time.Now().Add(-72 * time.Hour)}
	fresh := &RenderRecord{PaletteName: "eink7", Width: 8, Height: 8, Depth: 2, StrengthDivisor: 7}
	require.NoError(t, svc.CreateRecord(old))
	require.NoError(t, svc.CreateRecord(fresh))

	records, total, err := svc.ListRecords(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)
	assert.Equal(t, fresh.ID, records[0].ID)

	got, err := svc.GetRecord(old.ID)
	require.NoError(t, err)
	assert.Equal(t, "bw", got.PaletteName)

	ids, err := svc.DeleteOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, old.ID, ids[0])

	_, err = svc.GetRecord(old.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
