package catalog

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centromex/foodwaste/internal/models"
)

func listing(id, qty, provider int64, city string, food models.FoodType, meal models.MealType) models.Listing {
	return models.Listing{
		FoodID:       id,
		FoodName:     "Rice",
		Quantity:     qty,
		ExpiryDate:   time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		ProviderID:   provider,
		ProviderType: "Restaurant",
		Location:     city,
		FoodType:     food,
		MealType:     meal,
	}
}

func claim(id, food, receiver int64, status models.ClaimStatus, ts time.Time) models.Claim {
	return models.Claim{ID: id, FoodID: food, ReceiverID: receiver, Status: status, Timestamp: ts}
}

func TestProvidersPerCity(t *testing.T) {
	providers := []models.Provider{
		{ID: 1, Name: "A", City: "pune"},
		{ID: 2, Name: "B", City: " Pune "},
		{ID: 2, Name: "B again", City: "PUNE"},
		{ID: 3, Name: "C", City: "Delhi"},
	}

	got := ProvidersPerCity(providers)

	want := []CityCount{{City: "DELHI", Count: 1}, {City: "PUNE", Count: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ProvidersPerCity mismatch (-want +got):\n%s", diff)
	}
}

func TestReceiversPerCity(t *testing.T) {
	receivers := []models.Receiver{
		{ID: 10, City: "Mumbai"},
		{ID: 11, City: "mumbai"},
		{ID: 12, City: "Agra"},
	}

	got := ReceiversPerCity(receivers)

	want := []CityCount{{City: "AGRA", Count: 1}, {City: "MUMBAI", Count: 2}}
	assert.Equal(t, want, got)
}

func TestQuantityPerProviderType(t *testing.T) {
	ls := []models.Listing{
		{FoodID: 1, Quantity: 10, ProviderType: "Restaurant"},
		{FoodID: 2, Quantity: 5, ProviderType: "Supermarket"},
		{FoodID: 3, Quantity: 5, ProviderType: "Grocery Store"},
		{FoodID: 4, Quantity: 0, ProviderType: "Restaurant"},
	}

	got := QuantityPerProviderType(ls)

	want := []TypeQuantity{
		{ProviderType: "Restaurant", TotalQuantity: 10},
		{ProviderType: "Grocery Store", TotalQuantity: 5},
		{ProviderType: "Supermarket", TotalQuantity: 5},
	}
	assert.Equal(t, want, got)
}

func TestClaimsPerReceiver(t *testing.T) {
	claims := []models.Claim{
		{ID: 1, FoodID: 1, ReceiverID: 7},
		{ID: 2, FoodID: 2, ReceiverID: 3},
		{ID: 3, FoodID: 3, ReceiverID: 7},
		{ID: 4, FoodID: 4, ReceiverID: 5},
	}

	got := ClaimsPerReceiver(claims)

	want := []ReceiverClaims{
		{ReceiverID: 7, TotalClaims: 2},
		{ReceiverID: 3, TotalClaims: 1},
		{ReceiverID: 5, TotalClaims: 1},
	}
	assert.Equal(t, want, got)
}

func TestTotalQuantity(t *testing.T) {
	assert.Equal(t, int64(0), TotalQuantity(nil))

	ls := []models.Listing{{Quantity: 5}, {Quantity: 20}, {Quantity: 0}}
	assert.Equal(t, int64(25), TotalQuantity(ls))
}

func TestQuantityPerProvider(t *testing.T) {
	ls := []models.Listing{
		{FoodID: 1, ProviderID: 2, Quantity: 4},
		{FoodID: 2, ProviderID: 1, Quantity: 6},
		{FoodID: 3, ProviderID: 2, Quantity: 2},
		{FoodID: 4, ProviderID: 3, Quantity: 1},
	}

	got := QuantityPerProvider(ls)

	want := []ProviderQuantity{
		{ProviderID: 1, TotalQuantity: 6},
		{ProviderID: 2, TotalQuantity: 6},
		{ProviderID: 3, TotalQuantity: 1},
	}
	assert.Equal(t, want, got)
}

func TestTopCities(t *testing.T) {
	t.Run("keeps exactly five with alphabetical ties at the cut", func(t *testing.T) {
		var ls []models.Listing
		add := func(city string, n int) {
			for range n {
				ls = append(ls, models.Listing{FoodID: int64(len(ls) + 1), Location: city})
			}
		}
		add("Pune", 3)
		add("Delhi", 2)
		add("Agra", 1)
		add("Mumbai", 1)
		add("Chennai", 1)
		add("Bhopal", 1)
		add("Kochi", 1)

		got := TopCities(ls)

		require.Len(t, got, TopCitiesLimit)
		want := []CityListings{
			{City: "Pune", TotalListings: 3},
			{City: "Delhi", TotalListings: 2},
			{City: "Agra", TotalListings: 1},
			{City: "Bhopal", TotalListings: 1},
			{City: "Chennai", TotalListings: 1},
		}
		assert.Equal(t, want, got)
	})

	t.Run("fewer cities than the limit", func(t *testing.T) {
		got := TopCities([]models.Listing{{FoodID: 1, Location: "Pune"}})
		assert.Equal(t, []CityListings{{City: "Pune", TotalListings: 1}}, got)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, TopCities(nil))
	})
}

func TestFoodTypes(t *testing.T) {
	ls := []models.Listing{
		{FoodID: 1, FoodType: models.FoodVegan},
		{FoodID: 2, FoodType: models.FoodVegetarian},
		{FoodID: 3, FoodType: models.FoodVegan},
		{FoodID: 4, FoodType: models.FoodNonVegetarian},
	}

	got := FoodTypes(ls)

	want := []FoodTypeCount{
		{FoodType: models.FoodVegan, Count: 2},
		{FoodType: models.FoodNonVegetarian, Count: 1},
		{FoodType: models.FoodVegetarian, Count: 1},
	}
	assert.Equal(t, want, got)
}

func TestClaimsPerFood(t *testing.T) {
	// food 99 has no listing; the claim still counts
	claims := []models.Claim{
		{ID: 1, FoodID: 99},
		{ID: 2, FoodID: 4},
		{ID: 3, FoodID: 99},
	}

	got := ClaimsPerFood(claims)

	want := []FoodClaims{{FoodID: 99, Count: 2}, {FoodID: 4, Count: 1}}
	assert.Equal(t, want, got)
}

func TestClaimsByStatus(t *testing.T) {
	t.Run("percentages sum to about 100", func(t *testing.T) {
		claims := []models.Claim{
			{ID: 1, Status: models.ClaimCompleted},
			{ID: 2, Status: models.ClaimPending},
			{ID: 3, Status: models.ClaimCancelled},
		}

		got := ClaimsByStatus(claims)

		require.Len(t, got, 3)
		var sum float64
		for _, s := range got {
			assert.Equal(t, 33.33, s.Percentage)
			sum += s.Percentage
		}
		assert.InDelta(t, 100, sum, 0.05)
		// equal shares fall back to status order
		assert.Equal(t, models.ClaimCancelled, got[0].Status)
		assert.Equal(t, models.ClaimCompleted, got[1].Status)
		assert.Equal(t, models.ClaimPending, got[2].Status)
	})

	t.Run("ordered by share", func(t *testing.T) {
		claims := []models.Claim{
			{ID: 1, Status: models.ClaimPending},
			{ID: 2, Status: models.ClaimCompleted},
			{ID: 3, Status: models.ClaimCompleted},
			{ID: 4, Status: models.ClaimCompleted},
		}

		got := ClaimsByStatus(claims)

		want := []StatusShare{
			{Status: models.ClaimCompleted, Count: 3, Percentage: 75},
			{Status: models.ClaimPending, Count: 1, Percentage: 25},
		}
		assert.Equal(t, want, got)
	})

	t.Run("no claims", func(t *testing.T) {
		got := ClaimsByStatus(nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestAvgQuantityPerReceiver(t *testing.T) {
	ls := []models.Listing{
		{FoodID: 1, Quantity: 10},
		{FoodID: 2, Quantity: 5},
		{FoodID: 3, Quantity: 4},
	}
	claims := []models.Claim{
		{ID: 1, FoodID: 1, ReceiverID: 1},
		{ID: 2, FoodID: 2, ReceiverID: 1},
		{ID: 3, FoodID: 3, ReceiverID: 2},
		{ID: 4, FoodID: 42, ReceiverID: 3}, // listing deleted
	}

	got := AvgQuantityPerReceiver(claims, ls)

	want := []ReceiverAverage{
		{ReceiverID: 1, AvgQuantity: 7.5},
		{ReceiverID: 2, AvgQuantity: 4},
	}
	assert.Equal(t, want, got)
}

func TestClaimsPerMealType(t *testing.T) {
	ls := []models.Listing{
		{FoodID: 1, MealType: models.MealDinner},
		{FoodID: 2, MealType: models.MealBreakfast},
	}
	claims := []models.Claim{
		{ID: 1, FoodID: 1},
		{ID: 2, FoodID: 2},
		{ID: 3, FoodID: 1},
		{ID: 4, FoodID: 9},
	}

	got := ClaimsPerMealType(claims, ls)

	want := []MealClaims{
		{MealType: models.MealDinner, Count: 2},
		{MealType: models.MealBreakfast, Count: 1},
	}
	assert.Equal(t, want, got)
}

func TestQuantityDonatedPerProvider(t *testing.T) {
	providers := []models.Provider{
		{ID: 1, Name: "Gupta Foods"},
		{ID: 2, Name: "Fresh Mart"},
	}
	ls := []models.Listing{
		{FoodID: 1, ProviderID: 1, Quantity: 3},
		{FoodID: 2, ProviderID: 2, Quantity: 8},
		{FoodID: 3, ProviderID: 1, Quantity: 5},
		{FoodID: 4, ProviderID: 77, Quantity: 100}, // unknown provider
	}

	got := QuantityDonatedPerProvider(ls, providers)

	want := []ProviderDonation{
		{ProviderID: 1, Name: "Gupta Foods", TotalQuantity: 8},
		{ProviderID: 2, Name: "Fresh Mart", TotalQuantity: 8},
	}
	assert.Equal(t, want, got)
}

func TestQuantityClaimedPerReceiver(t *testing.T) {
	receivers := []models.Receiver{
		{ID: 1, Name: "Shelter One"},
		{ID: 2, Name: "Food Bank"},
	}
	ls := []models.Listing{
		{FoodID: 1, Quantity: 10},
		{FoodID: 2, Quantity: 3},
	}
	claims := []models.Claim{
		{ID: 1, FoodID: 1, ReceiverID: 2},
		{ID: 2, FoodID: 2, ReceiverID: 1},
		{ID: 3, FoodID: 2, ReceiverID: 2},
		{ID: 4, FoodID: 5, ReceiverID: 1}, // no listing
		{ID: 5, FoodID: 1, ReceiverID: 9}, // no receiver
	}

	got := QuantityClaimedPerReceiver(claims, ls, receivers)

	want := []ReceiverQuantity{
		{ReceiverID: 2, Name: "Food Bank", TotalQuantity: 13},
		{ReceiverID: 1, Name: "Shelter One", TotalQuantity: 3},
	}
	assert.Equal(t, want, got)
}

func TestMonthlyClaimVolume(t *testing.T) {
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 30, 0, 0, time.UTC)
	}
	claims := []models.Claim{
		claim(1, 1, 1, models.ClaimPending, at(2025, time.March, 5)),
		claim(2, 1, 1, models.ClaimPending, at(2024, time.December, 31)),
		claim(3, 1, 1, models.ClaimPending, at(2025, time.March, 20)),
		claim(4, 1, 1, models.ClaimPending, at(2025, time.January, 1)),
		claim(5, 1, 1, models.ClaimPending, time.Time{}),
	}

	got := MonthlyClaimVolume(claims)

	want := []MonthlyClaims{
		{Year: 2024, Month: 12, TotalClaims: 1},
		{Year: 2025, Month: 1, TotalClaims: 1},
		{Year: 2025, Month: 3, TotalClaims: 2},
	}
	assert.Equal(t, want, got)
}

func TestJoinsUseFirstListingForDuplicateIDs(t *testing.T) {
	ls := []models.Listing{
		listing(1, 10, 1, "Pune", models.FoodVegan, models.MealLunch),
		listing(1, 99, 1, "Pune", models.FoodVegan, models.MealDinner),
	}
	claims := []models.Claim{claim(1, 1, 1, models.ClaimCompleted, time.Time{})}

	assert.Equal(t, []ReceiverAverage{{ReceiverID: 1, AvgQuantity: 10}}, AvgQuantityPerReceiver(claims, ls))
	assert.Equal(t, []MealClaims{{MealType: models.MealLunch, Count: 1}}, ClaimsPerMealType(claims, ls))
}
