package listings

import (
	"slices"
	"strings"

	"github.com/centromex/foodwaste/internal/models"
)

// Wildcard matches every value of a filter field. An empty field is a
// wildcard too.
const Wildcard = "All"

// FilterSpec selects listings by exact match on each set field.
type FilterSpec struct {
	City         string
	ProviderName string
	FoodType     string
	MealType     string
}

func active(v string) bool {
	return v != "" && v != Wildcard
}

// IsEmpty reports whether the spec matches every listing.
func (f FilterSpec) IsEmpty() bool {
	return !active(f.City) && !active(f.ProviderName) && !active(f.FoodType) && !active(f.MealType)
}

// Apply returns the listings matching every active field of spec, in source
// order. ProviderName matches any provider with that exact name.
func Apply(snap *models.Snapshot, spec FilterSpec) []models.Listing {
	var providerIDs map[int64]struct{}
	if active(spec.ProviderName) {
		providerIDs = make(map[int64]struct{})
		for _, p := range snap.Providers {
			if p.Name == spec.ProviderName {
				providerIDs[p.ID] = struct{}{}
			}
		}
		if len(providerIDs) == 0 {
			return []models.Listing{}
		}
	}

	out := make([]models.Listing, 0, len(snap.Listings))
	for _, l := range snap.Listings {
		if active(spec.City) && l.Location != spec.City {
			continue
		}
		if providerIDs != nil {
			if _, ok := providerIDs[l.ProviderID]; !ok {
				continue
			}
		}
		if active(spec.FoodType) && string(l.FoodType) != spec.FoodType {
			continue
		}
		if active(spec.MealType) && string(l.MealType) != spec.MealType {
			continue
		}
		out = append(out, l)
	}
	return out
}

// FilterOptions are the selectable values for each filter field.
type FilterOptions struct {
	Cities        []string
	ProviderNames []string
	FoodTypes     []string
	MealTypes     []string
}

// Options collects the sorted distinct non-empty values per filter field.
func Options(snap *models.Snapshot) FilterOptions {
	var cities, names, foods, meals []string
	for _, l := range snap.Listings {
		cities = append(cities, l.Location)
		foods = append(foods, string(l.FoodType))
		meals = append(meals, string(l.MealType))
	}
	for _, p := range snap.Providers {
		names = append(names, p.Name)
	}
	return FilterOptions{
		Cities:        distinct(cities),
		ProviderNames: distinct(names),
		FoodTypes:     distinct(foods),
		MealTypes:     distinct(meals),
	}
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ProviderIDs returns the distinct provider ids referenced by listings, in
// first-seen order.
func ProviderIDs(listings []models.Listing) []int64 {
	seen := make(map[int64]struct{}, len(listings))
	var ids []int64
	for _, l := range listings {
		if _, ok := seen[l.ProviderID]; ok {
			continue
		}
		seen[l.ProviderID] = struct{}{}
		ids = append(ids, l.ProviderID)
	}
	return ids
}

// Contacts returns contact details for the providers in ids, in provider
// table order.
func Contacts(providers []models.Provider, ids []int64) []models.Contact {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := []models.Contact{}
	for _, p := range providers {
		if _, ok := want[p.ID]; ok {
			out = append(out, models.Contact{ProviderID: p.ID, Name: p.Name, Contact: p.Contact})
		}
	}
	return out
}
