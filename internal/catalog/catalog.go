// Package catalog holds the fixed set of aggregate reports shown on the
// dashboard. Every report is a pure function of a full snapshot; filters
// applied to the listing view never reach it.
package catalog

import (
	"errors"
	"fmt"

	"github.com/centromex/foodwaste/internal/models"
)

// ErrUnknownReport is returned when a report name is not in the catalog.
var ErrUnknownReport = errors.New("unknown report")

// Table is a report result in column/row form. Cells hold string, int,
// int64 or float64 values.
type Table struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]any
}

// Report is one named catalog entry.
type Report struct {
	Name    string
	Title   string
	Columns []string
	build   func(*models.Snapshot) [][]any
}

// Run evaluates the report against snap.
func (r Report) Run(snap *models.Snapshot) Table {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	rows := r.build(snap)
	if rows == nil {
		rows = [][]any{}
	}
	return Table{Name: r.Name, Title: r.Title, Columns: r.Columns, Rows: rows}
}

// Catalog order is display order.
var reports = []Report{
	{
		Name:    "providers-per-city",
		Title:   "Provider count per city",
		Columns: []string{"City", "Provider_Count"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(ProvidersPerCity(s.Providers), func(r CityCount) []any {
				return []any{r.City, r.Count}
			})
		},
	},
	{
		Name:    "receivers-per-city",
		Title:   "Receiver count per city",
		Columns: []string{"City", "Receiver_Count"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(ReceiversPerCity(s.Receivers), func(r CityCount) []any {
				return []any{r.City, r.Count}
			})
		},
	},
	{
		Name:    "quantity-per-provider-type",
		Title:   "Total quantity per provider type",
		Columns: []string{"Provider_Type", "Total_Quantity"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(QuantityPerProviderType(s.Listings), func(r TypeQuantity) []any {
				return []any{r.ProviderType, r.TotalQuantity}
			})
		},
	},
	{
		Name:    "claims-per-receiver",
		Title:   "Total claims per receiver",
		Columns: []string{"Receiver_ID", "Total_Claims"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(ClaimsPerReceiver(s.Claims), func(r ReceiverClaims) []any {
				return []any{r.ReceiverID, r.TotalClaims}
			})
		},
	},
	{
		Name:    "total-quantity",
		Title:   "Total food quantity listed",
		Columns: []string{"Total_Food_Quantity"},
		build: func(s *models.Snapshot) [][]any {
			return [][]any{{TotalQuantity(s.Listings)}}
		},
	},
	{
		Name:    "quantity-per-provider",
		Title:   "Total food quantity available per provider",
		Columns: []string{"Provider_ID", "Total_Food_Quantity_Available"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(QuantityPerProvider(s.Listings), func(r ProviderQuantity) []any {
				return []any{r.ProviderID, r.TotalQuantity}
			})
		},
	},
	{
		Name:    "top-cities",
		Title:   "Top 5 cities by total listings",
		Columns: []string{"City", "Total_Listings"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(TopCities(s.Listings), func(r CityListings) []any {
				return []any{r.City, r.TotalListings}
			})
		},
	},
	{
		Name:    "food-types",
		Title:   "Most commonly available food types",
		Columns: []string{"Food_Type", "Listing_Count"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(FoodTypes(s.Listings), func(r FoodTypeCount) []any {
				return []any{string(r.FoodType), r.Count}
			})
		},
	},
	{
		Name:    "claims-per-food",
		Title:   "Number of food claims made for each food item",
		Columns: []string{"Food_ID", "Claim_Count"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(ClaimsPerFood(s.Claims), func(r FoodClaims) []any {
				return []any{r.FoodID, r.Count}
			})
		},
	},
	{
		Name:    "claims-by-status",
		Title:   "Percentage of food claims by status",
		Columns: []string{"Status", "Claim_Count", "Percentage"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(ClaimsByStatus(s.Claims), func(r StatusShare) []any {
				return []any{string(r.Status), r.Count, r.Percentage}
			})
		},
	},
	{
		Name:    "avg-quantity-per-receiver",
		Title:   "Average quantity of food claimed per receiver",
		Columns: []string{"Receiver_ID", "Avg_Quantity_Claimed"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(AvgQuantityPerReceiver(s.Claims, s.Listings), func(r ReceiverAverage) []any {
				return []any{r.ReceiverID, r.AvgQuantity}
			})
		},
	},
	{
		Name:    "claims-per-meal-type",
		Title:   "Most claimed meal type",
		Columns: []string{"Meal_Type", "Claim_Count"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(ClaimsPerMealType(s.Claims, s.Listings), func(r MealClaims) []any {
				return []any{string(r.MealType), r.Count}
			})
		},
	},
	{
		Name:    "quantity-donated-per-provider",
		Title:   "Total quantity of food donated by each provider",
		Columns: []string{"Provider_ID", "Provider_Name", "Total_Quantity_Donated"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(QuantityDonatedPerProvider(s.Listings, s.Providers), func(r ProviderDonation) []any {
				return []any{r.ProviderID, r.Name, r.TotalQuantity}
			})
		},
	},
	{
		Name:    "quantity-claimed-per-receiver",
		Title:   "Receivers by total quantity of food claimed",
		Columns: []string{"Receiver_ID", "Receiver_Name", "Total_Quantity_Claimed"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(QuantityClaimedPerReceiver(s.Claims, s.Listings, s.Receivers), func(r ReceiverQuantity) []any {
				return []any{r.ReceiverID, r.Name, r.TotalQuantity}
			})
		},
	},
	{
		Name:    "monthly-claims",
		Title:   "Monthly total claims",
		Columns: []string{"Claim_Year", "Claim_Month", "Total_Claims"},
		build: func(s *models.Snapshot) [][]any {
			return rowsOf(MonthlyClaimVolume(s.Claims), func(r MonthlyClaims) []any {
				return []any{r.Year, r.Month, r.TotalClaims}
			})
		},
	},
}

func rowsOf[T any](items []T, row func(T) []any) [][]any {
	out := make([][]any, 0, len(items))
	for _, it := range items {
		out = append(out, row(it))
	}
	return out
}

// All returns every report in display order.
func All() []Report {
	return append([]Report(nil), reports...)
}

// Names returns the report names in display order.
func Names() []string {
	names := make([]string, len(reports))
	for i, r := range reports {
		names[i] = r.Name
	}
	return names
}

// Lookup finds a report by name.
func Lookup(name string) (Report, error) {
	for _, r := range reports {
		if r.Name == name {
			return r, nil
		}
	}
	return Report{}, fmt.Errorf("%w: %q", ErrUnknownReport, name)
}

// Run evaluates the named report against snap.
func Run(name string, snap *models.Snapshot) (Table, error) {
	r, err := Lookup(name)
	if err != nil {
		return Table{}, err
	}
	return r.Run(snap), nil
}

// RunAll evaluates every report against the same snapshot.
func RunAll(snap *models.Snapshot) []Table {
	tables := make([]Table, 0, len(reports))
	for _, r := range reports {
		tables = append(tables, r.Run(snap))
	}
	return tables
}
