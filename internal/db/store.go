package db

import (
	"context"
	"fmt"

	"github.com/centromex/foodwaste/internal/models"
)

// Store is the persistence contract shared by every backend.
// Only the listings table is ever written after seeding.
type Store interface {
	// Load returns a full snapshot of all four tables
	Load(ctx context.Context) (*models.Snapshot, error)

	// LoadListings returns only the listings table
	LoadListings(ctx context.Context) ([]models.Listing, error)

	// SaveListings replaces the listings table with the given rows
	SaveListings(ctx context.Context, listings []models.Listing) error

	// ReplaceAll overwrites every table, used for seeding and import.
	// Either every table is replaced or none is.
	ReplaceAll(ctx context.Context, snap *models.Snapshot) error

	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend  string
	DBPath   string
	CSVDir   string
	CSVFiles CSVFiles
}

// Open returns the backend named in opts. The memory backend starts from
// the CSV dataset in opts.CSVDir when one is set; its edits never reach
// those files.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		if opts.CSVDir == "" {
			return NewMemory(nil), nil
		}
		snap, err := newCSV(opts.CSVDir, opts.CSVFiles).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
		return NewMemory(snap), nil
	case BackendCSV:
		return NewCSV(opts.CSVDir, opts.CSVFiles)
	case BackendSQLite:
		return New(opts.DBPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

// Ephemeral reports whether writes to s are lost when the process exits.
func Ephemeral(s Store) bool {
	_, ok := s.(*Memory)
	return ok
}

// Copy loads everything from src and writes it into dst.
func Copy(ctx context.Context, dst, src Store) (*models.Snapshot, error) {
	snap, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	if err := dst.ReplaceAll(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to write destination: %w", err)
	}
	return snap, nil
}
