package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centromex/foodwaste/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.ReplaceAll(context.Background(), fixture()))
	return db
}

func TestDBReplaceAllAndLoad(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(fixture(), got, equateEmpty); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestDBReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	bad := fixture()
	bad.Claims = append(bad.Claims, bad.Claims[0]) // duplicate claim id

	require.Error(t, db.ReplaceAll(ctx, bad))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(fixture(), got, equateEmpty); diff != "" {
		t.Errorf("failed ReplaceAll changed data (-want +got):\n%s", diff)
	}
}

func TestDBSaveListings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	ls, err := db.LoadListings(ctx)
	require.NoError(t, err)
	ls = ls[1:]
	ls[0].Quantity = 0

	require.NoError(t, db.SaveListings(ctx, ls))

	got, err := db.LoadListings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].FoodID)
	assert.Equal(t, int64(0), got[0].Quantity)

	snap, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Claims, 2, "claims untouched by listing writes")
}

func TestDBRowWrites(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	l := models.Listing{
		FoodID: 3, FoodName: "Idli", Quantity: 4,
		ExpiryDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ProviderID: 1, ProviderType: "Restaurant", Location: "Pune",
		FoodType: models.FoodVegan, MealType: models.MealBreakfast,
	}
	require.NoError(t, db.InsertListing(ctx, l))
	assert.ErrorIs(t, db.InsertListing(ctx, l), ErrDuplicateRow)

	require.NoError(t, db.UpdateListingQuantity(ctx, 3, 40))
	assert.ErrorIs(t, db.UpdateListingQuantity(ctx, 300, 1), ErrNoRow)
	assert.Error(t, db.UpdateListingQuantity(ctx, 3, -1), "check constraint")

	ls, err := db.LoadListings(ctx)
	require.NoError(t, err)
	require.Len(t, ls, 3)
	l.Quantity = 40
	if diff := cmp.Diff(l, ls[2]); diff != "" {
		t.Errorf("inserted listing mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, db.DeleteListing(ctx, 1))
	assert.ErrorIs(t, db.DeleteListing(ctx, 1), ErrNoRow)

	snap, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Listings, 2)
	assert.Len(t, snap.Claims, 2)
}

func TestDBReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "food.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.ReplaceAll(ctx, fixture()))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	ls, err := db.LoadListings(ctx)
	require.NoError(t, err)
	assert.Len(t, ls, 2)
}
