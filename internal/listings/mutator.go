package listings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/models"
)

// ListingStore is the part of db.Store the mutator writes through.
type ListingStore interface {
	LoadListings(ctx context.Context) ([]models.Listing, error)
	SaveListings(ctx context.Context, listings []models.Listing) error
}

// rowWriter is implemented by backends that can change a single row
// instead of rewriting the table.
type rowWriter interface {
	InsertListing(ctx context.Context, l models.Listing) error
	UpdateListingQuantity(ctx context.Context, foodID, quantity int64) error
	DeleteListing(ctx context.Context, foodID int64) error
}

// Mutator applies create, update and delete to the listings table. Each
// call reads the current table, changes it and writes it back while holding
// the mutator's lock, so writes from one process never interleave.
type Mutator struct {
	mu     sync.Mutex
	store  ListingStore
	logger *zap.Logger
	autoID bool
}

// NewMutator creates a mutator over store. With autoID a zero Food_ID on
// create is replaced by max+1; only use it for ephemeral stores.
func NewMutator(store ListingStore, logger *zap.Logger, autoID bool) *Mutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mutator{store: store, logger: logger, autoID: autoID}
}

// Create adds l to the listings table and returns the stored row.
func (m *Mutator) Create(ctx context.Context, l models.Listing) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := m.begin("create")

	current, err := m.store.LoadListings(ctx)
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to load listings: %w", err)
	}

	if l.FoodID == 0 && m.autoID {
		l.FoodID = nextID(current)
	}
	if err := Validate(l); err != nil {
		return models.Listing{}, err
	}
	if indexOf(current, l.FoodID) >= 0 {
		return models.Listing{}, fmt.Errorf("%w: %d", ErrDuplicateKey, l.FoodID)
	}

	if rw, ok := m.store.(rowWriter); ok {
		err = rw.InsertListing(ctx, l)
		if errors.Is(err, db.ErrDuplicateRow) {
			return models.Listing{}, fmt.Errorf("%w: %d", ErrDuplicateKey, l.FoodID)
		}
	} else {
		err = m.store.SaveListings(ctx, append(current, l))
	}
	if err != nil {
		return models.Listing{}, fmt.Errorf("failed to save listing %d: %w", l.FoodID, err)
	}

	op.Info("Listing created", zap.Int64("food_id", l.FoodID), zap.Int64("quantity", l.Quantity))
	return l, nil
}

// UpdateQuantity sets the quantity of listing foodID.
func (m *Mutator) UpdateQuantity(ctx context.Context, foodID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative, got %d", ErrValidation, quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	op := m.begin("update")

	current, err := m.store.LoadListings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}
	i := indexOf(current, foodID)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, foodID)
	}
	previous := current[i].Quantity

	if rw, ok := m.store.(rowWriter); ok {
		err = rw.UpdateListingQuantity(ctx, foodID, quantity)
		if errors.Is(err, db.ErrNoRow) {
			return fmt.Errorf("%w: %d", ErrNotFound, foodID)
		}
	} else {
		current[i].Quantity = quantity
		err = m.store.SaveListings(ctx, current)
	}
	if err != nil {
		return fmt.Errorf("failed to save listing %d: %w", foodID, err)
	}

	op.Info("Listing quantity updated",
		zap.Int64("food_id", foodID),
		zap.Int64("from", previous),
		zap.Int64("to", quantity))
	return nil
}

// Delete removes listing foodID. Claims that reference it are kept.
func (m *Mutator) Delete(ctx context.Context, foodID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := m.begin("delete")

	current, err := m.store.LoadListings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}
	i := indexOf(current, foodID)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, foodID)
	}

	if rw, ok := m.store.(rowWriter); ok {
		err = rw.DeleteListing(ctx, foodID)
		if errors.Is(err, db.ErrNoRow) {
			return fmt.Errorf("%w: %d", ErrNotFound, foodID)
		}
	} else {
		err = m.store.SaveListings(ctx, slices.Delete(current, i, i+1))
	}
	if err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", foodID, err)
	}

	op.Info("Listing deleted", zap.Int64("food_id", foodID))
	return nil
}

func (m *Mutator) begin(action string) *zap.Logger {
	return m.logger.With(zap.String("op", action), zap.String("op_id", uuid.NewString()))
}

// Validate checks the field rules for a listing about to be stored.
func Validate(l models.Listing) error {
	switch {
	case l.FoodID <= 0:
		return fmt.Errorf("%w: food id must be positive", ErrValidation)
	case strings.TrimSpace(l.FoodName) == "":
		return fmt.Errorf("%w: food name is required", ErrValidation)
	case l.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative, got %d", ErrValidation, l.Quantity)
	case l.ExpiryDate.IsZero():
		return fmt.Errorf("%w: expiry date is required", ErrValidation)
	case l.ProviderID <= 0:
		return fmt.Errorf("%w: provider id must be positive", ErrValidation)
	case strings.TrimSpace(l.Location) == "":
		return fmt.Errorf("%w: location is required", ErrValidation)
	case !slices.Contains(models.FoodTypes, l.FoodType):
		return fmt.Errorf("%w: unknown food type %q", ErrValidation, l.FoodType)
	case !slices.Contains(models.MealTypes, l.MealType):
		return fmt.Errorf("%w: unknown meal type %q", ErrValidation, l.MealType)
	}
	return nil
}

func indexOf(listings []models.Listing, foodID int64) int {
	return slices.IndexFunc(listings, func(l models.Listing) bool {
		return l.FoodID == foodID
	})
}

func nextID(listings []models.Listing) int64 {
	var highest int64
	for _, l := range listings {
		if l.FoodID > highest {
			highest = l.FoodID
		}
	}
	return highest + 1
}
