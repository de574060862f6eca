package models

import "time"

type FoodType string

const (
	FoodVegetarian    FoodType = "Vegetarian"
	FoodNonVegetarian FoodType = "Non-Vegetarian"
	FoodVegan         FoodType = "Vegan"
)

// FoodTypes lists the accepted food types in display order.
var FoodTypes = []FoodType{FoodVegetarian, FoodNonVegetarian, FoodVegan}

type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnacks    MealType = "Snacks"
)

// MealTypes lists the accepted meal types in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnacks}

type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "Pending"
	ClaimCompleted ClaimStatus = "Completed"
	ClaimCancelled ClaimStatus = "Cancelled"
)

// Provider is a donating organization
type Provider struct {
	ID      int64
	Name    string
	Type    string // Restaurant, Supermarket, Grocery Store...
	City    string
	Contact string
}

// Receiver is an organization or person collecting food
type Receiver struct {
	ID      int64
	Name    string
	Type    string // optional in source data
	City    string
	Contact string // optional in source data
}

// Listing is one donated food item available for claiming
type Listing struct {
	FoodID       int64
	FoodName     string
	Quantity     int64
	ExpiryDate   time.Time
	ProviderID   int64
	ProviderType string // copied from the provider when the dataset was built
	Location     string // city
	FoodType     FoodType
	MealType     MealType
}

// Claim is a receiver's request for a listing
type Claim struct {
	ID         int64
	FoodID     int64
	ReceiverID int64
	Status     ClaimStatus
	Timestamp  time.Time
}

// Contact is the subset of a provider shown next to filtered listings
type Contact struct {
	ProviderID int64
	Name       string
	Contact    string
}

// Snapshot holds the full content of all four tables at one point in time.
type Snapshot struct {
	Providers []Provider
	Receivers []Receiver
	Listings  []Listing
	Claims    []Claim
}

// Clone returns a deep copy; none of the row types hold pointers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	return &Snapshot{
		Providers: append([]Provider(nil), s.Providers...),
		Receivers: append([]Receiver(nil), s.Receivers...),
		Listings:  append([]Listing(nil), s.Listings...),
		Claims:    append([]Claim(nil), s.Claims...),
	}
}
