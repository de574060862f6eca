package catalog

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/centromex/foodwaste/internal/models"
)

// Equal aggregates are ordered by ascending group key so every report is
// deterministic regardless of input row order.

type CityCount struct {
	City  string
	Count int
}

// ProvidersPerCity counts distinct providers per normalized city.
func ProvidersPerCity(providers []models.Provider) []CityCount {
	seen := make(map[string]map[int64]struct{})
	for _, p := range providers {
		city := normalizeCity(p.City)
		if seen[city] == nil {
			seen[city] = make(map[int64]struct{})
		}
		seen[city][p.ID] = struct{}{}
	}
	return cityCounts(seen)
}

// ReceiversPerCity counts distinct receivers per normalized city.
func ReceiversPerCity(receivers []models.Receiver) []CityCount {
	seen := make(map[string]map[int64]struct{})
	for _, r := range receivers {
		city := normalizeCity(r.City)
		if seen[city] == nil {
			seen[city] = make(map[int64]struct{})
		}
		seen[city][r.ID] = struct{}{}
	}
	return cityCounts(seen)
}

func normalizeCity(city string) string {
	return strings.ToUpper(strings.TrimSpace(city))
}

func cityCounts(seen map[string]map[int64]struct{}) []CityCount {
	out := make([]CityCount, 0, len(seen))
	for city, ids := range seen {
		out = append(out, CityCount{City: city, Count: len(ids)})
	}
	slices.SortFunc(out, func(a, b CityCount) int {
		return cmp.Compare(a.City, b.City)
	})
	return out
}

type TypeQuantity struct {
	ProviderType  string
	TotalQuantity int64
}

// QuantityPerProviderType sums listed quantity by provider type.
func QuantityPerProviderType(listings []models.Listing) []TypeQuantity {
	sums := make(map[string]int64)
	for _, l := range listings {
		sums[l.ProviderType] += l.Quantity
	}
	out := make([]TypeQuantity, 0, len(sums))
	for t, q := range sums {
		out = append(out, TypeQuantity{ProviderType: t, TotalQuantity: q})
	}
	slices.SortFunc(out, func(a, b TypeQuantity) int {
		return cmp.Or(cmp.Compare(b.TotalQuantity, a.TotalQuantity), cmp.Compare(a.ProviderType, b.ProviderType))
	})
	return out
}

type ReceiverClaims struct {
	ReceiverID  int64
	TotalClaims int
}

// ClaimsPerReceiver counts claim rows per receiver id.
func ClaimsPerReceiver(claims []models.Claim) []ReceiverClaims {
	counts := make(map[int64]int)
	for _, c := range claims {
		counts[c.ReceiverID]++
	}
	out := make([]ReceiverClaims, 0, len(counts))
	for id, n := range counts {
		out = append(out, ReceiverClaims{ReceiverID: id, TotalClaims: n})
	}
	slices.SortFunc(out, func(a, b ReceiverClaims) int {
		return cmp.Or(cmp.Compare(b.TotalClaims, a.TotalClaims), cmp.Compare(a.ReceiverID, b.ReceiverID))
	})
	return out
}

// TotalQuantity is the plain sum of Quantity over every listing.
func TotalQuantity(listings []models.Listing) int64 {
	var total int64
	for _, l := range listings {
		total += l.Quantity
	}
	return total
}

type ProviderQuantity struct {
	ProviderID    int64
	TotalQuantity int64
}

// QuantityPerProvider sums listed quantity by provider id.
func QuantityPerProvider(listings []models.Listing) []ProviderQuantity {
	sums := make(map[int64]int64)
	for _, l := range listings {
		sums[l.ProviderID] += l.Quantity
	}
	out := make([]ProviderQuantity, 0, len(sums))
	for id, q := range sums {
		out = append(out, ProviderQuantity{ProviderID: id, TotalQuantity: q})
	}
	slices.SortFunc(out, func(a, b ProviderQuantity) int {
		return cmp.Or(cmp.Compare(b.TotalQuantity, a.TotalQuantity), cmp.Compare(a.ProviderID, b.ProviderID))
	})
	return out
}

// TopCitiesLimit is how many cities TopCities keeps.
const TopCitiesLimit = 5

type CityListings struct {
	City          string
	TotalListings int
}

// TopCities returns the TopCitiesLimit locations with the most listings.
// Ties at the cut are decided alphabetically.
func TopCities(listings []models.Listing) []CityListings {
	counts := make(map[string]int)
	for _, l := range listings {
		counts[l.Location]++
	}
	out := make([]CityListings, 0, len(counts))
	for city, n := range counts {
		out = append(out, CityListings{City: city, TotalListings: n})
	}
	slices.SortFunc(out, func(a, b CityListings) int {
		return cmp.Or(cmp.Compare(b.TotalListings, a.TotalListings), cmp.Compare(a.City, b.City))
	})
	if len(out) > TopCitiesLimit {
		out = out[:TopCitiesLimit]
	}
	return out
}

type FoodTypeCount struct {
	FoodType models.FoodType
	Count    int
}

// FoodTypes counts listings by food type.
func FoodTypes(listings []models.Listing) []FoodTypeCount {
	counts := make(map[models.FoodType]int)
	for _, l := range listings {
		counts[l.FoodType]++
	}
	out := make([]FoodTypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, FoodTypeCount{FoodType: t, Count: n})
	}
	slices.SortFunc(out, func(a, b FoodTypeCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.FoodType, b.FoodType))
	})
	return out
}

type FoodClaims struct {
	FoodID int64
	Count  int
}

// ClaimsPerFood counts claim rows per food id. Claims on deleted
// listings still count.
func ClaimsPerFood(claims []models.Claim) []FoodClaims {
	counts := make(map[int64]int)
	for _, c := range claims {
		counts[c.FoodID]++
	}
	out := make([]FoodClaims, 0, len(counts))
	for id, n := range counts {
		out = append(out, FoodClaims{FoodID: id, Count: n})
	}
	slices.SortFunc(out, func(a, b FoodClaims) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.FoodID, b.FoodID))
	})
	return out
}

type StatusShare struct {
	Status     models.ClaimStatus
	Count      int
	Percentage float64
}

// ClaimsByStatus counts claims per status with the share of all claims,
// rounded to two decimals.
func ClaimsByStatus(claims []models.Claim) []StatusShare {
	if len(claims) == 0 {
		return []StatusShare{}
	}
	counts := make(map[models.ClaimStatus]int)
	for _, c := range claims {
		counts[c.Status]++
	}
	total := float64(len(claims))
	out := make([]StatusShare, 0, len(counts))
	for s, n := range counts {
		out = append(out, StatusShare{Status: s, Count: n, Percentage: round2(float64(n) * 100 / total)})
	}
	slices.SortFunc(out, func(a, b StatusShare) int {
		return cmp.Or(cmp.Compare(b.Percentage, a.Percentage), cmp.Compare(a.Status, b.Status))
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type ReceiverAverage struct {
	ReceiverID  int64
	AvgQuantity float64
}

// AvgQuantityPerReceiver averages the quantity of the listings each
// receiver claimed. Claims whose listing is gone are dropped.
func AvgQuantityPerReceiver(claims []models.Claim, listings []models.Listing) []ReceiverAverage {
	byFood := indexListings(listings)
	type acc struct {
		sum int64
		n   int
	}
	accs := make(map[int64]*acc)
	for _, c := range claims {
		l, ok := byFood[c.FoodID]
		if !ok {
			continue
		}
		a := accs[c.ReceiverID]
		if a == nil {
			a = &acc{}
			accs[c.ReceiverID] = a
		}
		a.sum += l.Quantity
		a.n++
	}
	out := make([]ReceiverAverage, 0, len(accs))
	for id, a := range accs {
		out = append(out, ReceiverAverage{ReceiverID: id, AvgQuantity: float64(a.sum) / float64(a.n)})
	}
	slices.SortFunc(out, func(a, b ReceiverAverage) int {
		return cmp.Or(cmp.Compare(b.AvgQuantity, a.AvgQuantity), cmp.Compare(a.ReceiverID, b.ReceiverID))
	})
	return out
}

type MealClaims struct {
	MealType models.MealType
	Count    int
}

// ClaimsPerMealType counts claims by the meal type of the claimed listing.
func ClaimsPerMealType(claims []models.Claim, listings []models.Listing) []MealClaims {
	byFood := indexListings(listings)
	counts := make(map[models.MealType]int)
	for _, c := range claims {
		if l, ok := byFood[c.FoodID]; ok {
			counts[l.MealType]++
		}
	}
	out := make([]MealClaims, 0, len(counts))
	for m, n := range counts {
		out = append(out, MealClaims{MealType: m, Count: n})
	}
	slices.SortFunc(out, func(a, b MealClaims) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.MealType, b.MealType))
	})
	return out
}

type ProviderDonation struct {
	ProviderID    int64
	Name          string
	TotalQuantity int64
}

// QuantityDonatedPerProvider sums listed quantity per known provider.
// Listings whose provider is missing are dropped.
func QuantityDonatedPerProvider(listings []models.Listing, providers []models.Provider) []ProviderDonation {
	byID := make(map[int64]models.Provider, len(providers))
	for _, p := range providers {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = p
		}
	}
	sums := make(map[int64]int64)
	for _, l := range listings {
		if _, ok := byID[l.ProviderID]; ok {
			sums[l.ProviderID] += l.Quantity
		}
	}
	out := make([]ProviderDonation, 0, len(sums))
	for id, q := range sums {
		out = append(out, ProviderDonation{ProviderID: id, Name: byID[id].Name, TotalQuantity: q})
	}
	slices.SortFunc(out, func(a, b ProviderDonation) int {
		return cmp.Or(cmp.Compare(b.TotalQuantity, a.TotalQuantity), cmp.Compare(a.ProviderID, b.ProviderID))
	})
	return out
}

type ReceiverQuantity struct {
	ReceiverID    int64
	Name          string
	TotalQuantity int64
}

// QuantityClaimedPerReceiver sums the quantity of claimed listings per
// known receiver. A claim needs both its listing and its receiver.
func QuantityClaimedPerReceiver(claims []models.Claim, listings []models.Listing, receivers []models.Receiver) []ReceiverQuantity {
	byFood := indexListings(listings)
	byID := make(map[int64]models.Receiver, len(receivers))
	for _, r := range receivers {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = r
		}
	}
	sums := make(map[int64]int64)
	for _, c := range claims {
		l, ok := byFood[c.FoodID]
		if !ok {
			continue
		}
		if _, ok := byID[c.ReceiverID]; !ok {
			continue
		}
		sums[c.ReceiverID] += l.Quantity
	}
	out := make([]ReceiverQuantity, 0, len(sums))
	for id, q := range sums {
		out = append(out, ReceiverQuantity{ReceiverID: id, Name: byID[id].Name, TotalQuantity: q})
	}
	slices.SortFunc(out, func(a, b ReceiverQuantity) int {
		return cmp.Or(cmp.Compare(b.TotalQuantity, a.TotalQuantity), cmp.Compare(a.ReceiverID, b.ReceiverID))
	})
	return out
}

type MonthlyClaims struct {
	Year        int
	Month       int
	TotalClaims int
}

// MonthlyClaimVolume counts claims per calendar month of their timestamp.
// Claims without a timestamp are skipped.
func MonthlyClaimVolume(claims []models.Claim) []MonthlyClaims {
	type ym struct{ y, m int }
	counts := make(map[ym]int)
	for _, c := range claims {
		if c.Timestamp.IsZero() {
			continue
		}
		counts[ym{c.Timestamp.Year(), int(c.Timestamp.Month())}]++
	}
	out := make([]MonthlyClaims, 0, len(counts))
	for k, n := range counts {
		out = append(out, MonthlyClaims{Year: k.y, Month: k.m, TotalClaims: n})
	}
	slices.SortFunc(out, func(a, b MonthlyClaims) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out
}

func indexListings(listings []models.Listing) map[int64]models.Listing {
	byFood := make(map[int64]models.Listing, len(listings))
	for _, l := range listings {
		if _, dup := byFood[l.FoodID]; !dup {
			byFood[l.FoodID] = l
		}
	}
	return byFood
}
