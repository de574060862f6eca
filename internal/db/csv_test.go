package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centromex/foodwaste/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewCSV(t.TempDir(), CSVFiles{})
	require.NoError(t, err)

	require.NoError(t, c.ReplaceAll(ctx, fixture()))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(fixture(), got, equateEmpty); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVSaveListingsOnlyTouchesListings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewCSV(dir, CSVFiles{})
	require.NoError(t, err)
	require.NoError(t, c.ReplaceAll(ctx, fixture()))

	before, err := os.ReadFile(filepath.Join(dir, DefaultCSVFiles.Claims))
	require.NoError(t, err)

	ls, err := c.LoadListings(ctx)
	require.NoError(t, err)
	ls[0].Quantity = 42
	require.NoError(t, c.SaveListings(ctx, ls[:1]))

	got, err := c.LoadListings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].Quantity)

	after, err := os.ReadFile(filepath.Join(dir, DefaultCSVFiles.Claims))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temp files left behind")
}

func TestCSVReplaceAllLeavesTablesOnFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewCSV(dir, CSVFiles{})
	require.NoError(t, err)
	require.NoError(t, c.ReplaceAll(ctx, fixture()))

	providersFile := filepath.Join(dir, DefaultCSVFiles.Providers)
	before, err := os.ReadFile(providersFile)
	require.NoError(t, err)

	claimsFile := filepath.Join(dir, DefaultCSVFiles.Claims)
	require.NoError(t, os.Remove(claimsFile))
	require.NoError(t, os.Mkdir(claimsFile, 0o755))

	snap := fixture()
	snap.Providers[0].Name = "Renamed"
	assert.Error(t, c.ReplaceAll(ctx, snap))

	after, err := os.ReadFile(providersFile)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestRestoreTables(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.csv")
	added := filepath.Join(dir, "added.csv")
	writeFile(t, dir, "kept.csv", "new\n")
	writeFile(t, dir, "added.csv", "new\n")

	restoreTables([]*staged{
		{path: kept, old: []byte("old\n"), existed: true},
		{path: added},
	})

	got, err := os.ReadFile(kept)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))

	_, err = os.Stat(added)
	assert.True(t, os.IsNotExist(err))
}

func TestCSVReadsDatasetQuirks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultCSVFiles.Providers,
		"\ufeffProvider_ID,Name,Type,Address,City,Contact\n"+
			"1,Gupta Foods,Restaurant,\"12 Main St, Pune\",Pune,+91 111\n")
	writeFile(t, dir, DefaultCSVFiles.Receivers,
		"Receiver_ID,Name,Type,City,Contact\n"+
			"3,Shelter One,Shelter,Pune,\n")
	writeFile(t, dir, DefaultCSVFiles.Listings,
		"Food_ID,Food_Name,Quantity,Expiry_Date,Provider_ID,Provider_Type,Location,Food_Type,Meal_Type\n"+
			"7.0, Bread ,12.0,3/17/2025,1,Restaurant,Pune,Vegan,Snacks\n")
	writeFile(t, dir, DefaultCSVFiles.Claims,
		"Claim_ID,Food_ID,Receiver_ID,Status,Timestamp\n"+
			"1,7,3,Pending,2025-03-05 14:30:00\n"+
			"2,7,3,Completed,\n")

	c, err := NewCSV(dir, CSVFiles{})
	require.NoError(t, err)

	snap, err := c.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Providers, 1)
	assert.Equal(t, models.Provider{ID: 1, Name: "Gupta Foods", Type: "Restaurant", City: "Pune", Contact: "+91 111"}, snap.Providers[0])
	assert.Equal(t, "Shelter", snap.Receivers[0].Type)
	assert.Empty(t, snap.Receivers[0].Contact)

	require.Len(t, snap.Listings, 1)
	l := snap.Listings[0]
	assert.Equal(t, int64(7), l.FoodID)
	assert.Equal(t, "Bread", l.FoodName)
	assert.Equal(t, int64(12), l.Quantity)
	assert.True(t, l.ExpiryDate.Equal(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)))

	require.Len(t, snap.Claims, 2)
	assert.True(t, snap.Claims[0].Timestamp.Equal(time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC)))
	assert.True(t, snap.Claims[1].Timestamp.IsZero())
}

func TestCSVMissingFilesAreEmptyTables(t *testing.T) {
	c, err := NewCSV(filepath.Join(t.TempDir(), "fresh"), CSVFiles{Listings: "listings.csv"})
	require.NoError(t, err)

	snap, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Providers)
	assert.Empty(t, snap.Listings)
}

func TestCSVBadNumberReportsLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultCSVFiles.Listings,
		"Food_ID,Food_Name,Quantity\n"+
			"1,Rice,5\n"+
			"2,Soup,lots\n")

	c, err := NewCSV(dir, CSVFiles{})
	require.NoError(t, err)

	_, err = c.LoadListings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "Quantity")
}

func TestNewCSVRequiresDir(t *testing.T) {
	_, err := NewCSV("", CSVFiles{})
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-17", time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)},
		{"2025-03-17 08:15:00", time.Date(2025, 3, 17, 8, 15, 0, 0, time.UTC)},
		{"2025-03-17T08:15:00", time.Date(2025, 3, 17, 8, 15, 0, 0, time.UTC)},
		{"3/17/2025 8:15", time.Date(2025, 3, 17, 8, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := ParseTime("next tuesday")
	assert.Error(t, err)
}
