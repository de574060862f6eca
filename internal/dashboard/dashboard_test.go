package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/catalog"
	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/listings"
	"github.com/centromex/foodwaste/internal/models"
)

var expiry = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

func snapshot() *models.Snapshot {
	return &models.Snapshot{
		Providers: []models.Provider{
			{ID: 1, Name: "Gupta Foods", Type: "Restaurant", City: "Pune", Contact: "111"},
			{ID: 2, Name: "Fresh Mart", Type: "Supermarket", City: "Delhi", Contact: "222"},
		},
		Receivers: []models.Receiver{{ID: 1, Name: "Shelter One", City: "Pune"}},
		Listings: []models.Listing{
			{FoodID: 1, FoodName: "Rice", Quantity: 5, ExpiryDate: expiry, ProviderID: 1, ProviderType: "Restaurant",
				Location: "Pune", FoodType: models.FoodVegetarian, MealType: models.MealLunch},
			{FoodID: 2, FoodName: "Curry", Quantity: 7, ExpiryDate: expiry, ProviderID: 2, ProviderType: "Supermarket",
				Location: "Delhi", FoodType: models.FoodNonVegetarian, MealType: models.MealDinner},
		},
		Claims: []models.Claim{
			{ID: 1, FoodID: 1, ReceiverID: 1, Status: models.ClaimCompleted, Timestamp: expiry},
		},
	}
}

func TestFilterAndContacts(t *testing.T) {
	ctx := context.Background()
	svc := New(db.NewMemory(snapshot()), zap.NewNop())

	rows, err := svc.Filter(ctx, listings.FilterSpec{City: "Pune"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].FoodID)

	contacts, err := svc.Contacts(ctx, listings.FilterSpec{City: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{{ProviderID: 1, Name: "Gupta Foods", Contact: "111"}}, contacts)

	contacts, err = svc.ContactsFor(ctx, []int64{2})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Mart", contacts[0].Name)

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Pune"}, opts.Cities)

	all, err := svc.Listings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReportsIgnoreFilters(t *testing.T) {
	ctx := context.Background()
	svc := New(db.NewMemory(snapshot()), nil)

	_, err := svc.Filter(ctx, listings.FilterSpec{City: "Pune"})
	require.NoError(t, err)

	tbl, err := svc.Report(ctx, "total-quantity")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(12)}}, tbl.Rows)

	tables, err := svc.Reports(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, len(catalog.Names()))
}

func TestReportUnknown(t *testing.T) {
	svc := New(db.NewMemory(snapshot()), zap.NewNop())

	_, err := svc.Report(context.Background(), "waste-by-planet")
	assert.ErrorIs(t, err, catalog.ErrUnknownReport)
}

func TestMutationsAreVisibleToReads(t *testing.T) {
	ctx := context.Background()
	svc := New(db.NewMemory(snapshot()), zap.NewNop())

	require.NoError(t, svc.UpdateQuantity(ctx, 2, 20))
	tbl, err := svc.Report(ctx, "total-quantity")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(25)}}, tbl.Rows)

	require.NoError(t, svc.DeleteListing(ctx, 1))
	rows, err := svc.Filter(ctx, listings.FilterSpec{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, svc.DeleteListing(ctx, 1), listings.ErrNotFound)
}

func TestCreateAssignsIDOnlyForMemory(t *testing.T) {
	ctx := context.Background()
	l := models.Listing{
		FoodName: "Idli", Quantity: 3, ExpiryDate: expiry, ProviderID: 1,
		Location: "Pune", FoodType: models.FoodVegan, MealType: models.MealBreakfast,
	}

	created, err := New(db.NewMemory(snapshot()), zap.NewNop()).CreateListing(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.FoodID)

	csvStore, err := db.NewCSV(filepath.Join(t.TempDir(), "csv"), db.CSVFiles{})
	require.NoError(t, err)
	require.NoError(t, csvStore.ReplaceAll(ctx, snapshot()))

	_, err = New(csvStore, zap.NewNop()).CreateListing(ctx, l)
	assert.ErrorIs(t, err, listings.ErrValidation)
}

type brokenStore struct {
	db.Store
}

var errBroken = errors.New("broken")

func (brokenStore) Load(context.Context) (*models.Snapshot, error) {
	return nil, errBroken
}

func TestLoadErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc := New(brokenStore{Store: db.NewMemory(nil)}, zap.NewNop())

	_, err := svc.Filter(ctx, listings.FilterSpec{})
	assert.ErrorIs(t, err, errBroken)

	_, err = svc.Report(ctx, "top-cities")
	assert.ErrorIs(t, err, errBroken)

	_, err = svc.Reports(ctx)
	assert.ErrorIs(t, err, errBroken)
}
