// Package dashboard is the core contract consumed by the presentation
// shells. Every read reloads the tables from the store.
package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/catalog"
	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/listings"
	"github.com/centromex/foodwaste/internal/models"
)

// Service wires the store, filter engine, catalog and mutator together.
type Service struct {
	store   db.Store
	mutator *listings.Mutator
	logger  *zap.Logger
}

// New creates a Service over store. Food ids are auto-assigned on create
// only when the store is ephemeral.
func New(store db.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		mutator: listings.NewMutator(store, logger.Named("mutator"), db.Ephemeral(store)),
		logger:  logger,
	}
}

func (s *Service) snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}
	return snap, nil
}

// FilterOptions returns the selectable values of each filter field.
func (s *Service) FilterOptions(ctx context.Context) (listings.FilterOptions, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return listings.FilterOptions{}, err
	}
	return listings.Options(snap), nil
}

// Listings returns the full, unfiltered listings table.
func (s *Service) Listings(ctx context.Context) ([]models.Listing, error) {
	return s.store.LoadListings(ctx)
}

// Filter returns the listings matching spec.
func (s *Service) Filter(ctx context.Context, spec listings.FilterSpec) ([]models.Listing, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := listings.Apply(snap, spec)
	s.logger.Debug("Listings filtered",
		zap.String("city", spec.City),
		zap.String("provider", spec.ProviderName),
		zap.String("food_type", spec.FoodType),
		zap.String("meal_type", spec.MealType),
		zap.Int("matched", len(rows)))
	return rows, nil
}

// Contacts returns contact details for the providers of the listings
// matching spec.
func (s *Service) Contacts(ctx context.Context, spec listings.FilterSpec) ([]models.Contact, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ids := listings.ProviderIDs(listings.Apply(snap, spec))
	return listings.Contacts(snap.Providers, ids), nil
}

// ContactsFor returns contact details for the given provider ids.
func (s *Service) ContactsFor(ctx context.Context, providerIDs []int64) ([]models.Contact, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return listings.Contacts(snap.Providers, providerIDs), nil
}

// Report runs one catalog report against the full tables.
func (s *Service) Report(ctx context.Context, name string) (catalog.Table, error) {
	r, err := catalog.Lookup(name)
	if err != nil {
		return catalog.Table{}, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return catalog.Table{}, err
	}
	return r.Run(snap), nil
}

// Reports runs every catalog report against one snapshot.
func (s *Service) Reports(ctx context.Context) ([]catalog.Table, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.RunAll(snap), nil
}

// CreateListing stores a new listing.
func (s *Service) CreateListing(ctx context.Context, l models.Listing) (models.Listing, error) {
	return s.mutator.Create(ctx, l)
}

// UpdateQuantity sets the quantity of an existing listing.
func (s *Service) UpdateQuantity(ctx context.Context, foodID, quantity int64) error {
	return s.mutator.UpdateQuantity(ctx, foodID, quantity)
}

// DeleteListing removes a listing.
func (s *Service) DeleteListing(ctx context.Context, foodID int64) error {
	return s.mutator.Delete(ctx, foodID)
}
