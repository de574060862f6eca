package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/centromex/foodwaste/internal/models"
)

// ErrNoRow is returned by row-level writes that matched nothing.
var ErrNoRow = errors.New("no matching row")

// ErrDuplicateRow is returned when an insert hits an existing primary key.
var ErrDuplicateRow = errors.New("duplicate primary key")

// DB is the relational backend, one SQLite file holding all four tables.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=off&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS providers (
		provider_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		provider_type TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS receivers (
		receiver_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		receiver_type TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS listings (
		food_id INTEGER PRIMARY KEY,
		food_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		expiry_date DATE,
		provider_id INTEGER NOT NULL,
		provider_type TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		food_type TEXT NOT NULL DEFAULT '',
		meal_type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS claims (
		claim_id INTEGER PRIMARY KEY,
		food_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		timestamp DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(location);
	CREATE INDEX IF NOT EXISTS idx_listings_provider ON listings(provider_id);
	CREATE INDEX IF NOT EXISTS idx_claims_food ON claims(food_id);
	CREATE INDEX IF NOT EXISTS idx_claims_receiver ON claims(receiver_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Load reads all four tables
func (db *DB) Load(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	var err error

	if snap.Providers, err = db.loadProviders(ctx); err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}
	if snap.Receivers, err = db.loadReceivers(ctx); err != nil {
		return nil, fmt.Errorf("failed to load receivers: %w", err)
	}
	if snap.Listings, err = db.LoadListings(ctx); err != nil {
		return nil, err
	}
	if snap.Claims, err = db.loadClaims(ctx); err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}

	return &snap, nil
}

func (db *DB) loadProviders(ctx context.Context) ([]models.Provider, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT provider_id, name, provider_type, city, contact FROM providers ORDER BY provider_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.City, &p.Contact); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	return providers, rows.Err()
}

func (db *DB) loadReceivers(ctx context.Context) ([]models.Receiver, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT receiver_id, name, receiver_type, city, contact FROM receivers ORDER BY receiver_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receivers []models.Receiver
	for rows.Next() {
		var r models.Receiver
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.City, &r.Contact); err != nil {
			return nil, err
		}
		receivers = append(receivers, r)
	}

	return receivers, rows.Err()
}

// LoadListings reads the listings table ordered by food id
func (db *DB) LoadListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT food_id, food_name, quantity, expiry_date, provider_id, provider_type,
		        location, food_type, meal_type
		 FROM listings ORDER BY food_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var expiry sql.NullTime
		err := rows.Scan(
			&l.FoodID, &l.FoodName, &l.Quantity, &expiry, &l.ProviderID, &l.ProviderType,
			&l.Location, &l.FoodType, &l.MealType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		if expiry.Valid {
			l.ExpiryDate = expiry.Time
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

func (db *DB) loadClaims(ctx context.Context) ([]models.Claim, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT claim_id, food_id, receiver_id, status, timestamp FROM claims ORDER BY claim_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var c models.Claim
		var ts sql.NullTime
		if err := rows.Scan(&c.ID, &c.FoodID, &c.ReceiverID, &c.Status, &ts); err != nil {
			return nil, err
		}
		if ts.Valid {
			c.Timestamp = ts.Time
		}
		claims = append(claims, c)
	}

	return claims, rows.Err()
}

// SaveListings replaces the whole listings table in one transaction
func (db *DB) SaveListings(ctx context.Context, listings []models.Listing) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceListings(ctx, tx, listings); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceListings(ctx context.Context, tx *sql.Tx, listings []models.Listing) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM listings`); err != nil {
		return fmt.Errorf("failed to clear listings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertListingSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.ExecContext(ctx, listingArgs(l)...); err != nil {
			return fmt.Errorf("failed to insert listing %d: %w", l.FoodID, err)
		}
	}
	return nil
}

const insertListingSQL = `INSERT INTO listings
	(food_id, food_name, quantity, expiry_date, provider_id, provider_type, location, food_type, meal_type)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func listingArgs(l models.Listing) []any {
	var expiry any
	if !l.ExpiryDate.IsZero() {
		expiry = l.ExpiryDate
	}
	return []any{
		l.FoodID, l.FoodName, l.Quantity, expiry, l.ProviderID, l.ProviderType,
		l.Location, string(l.FoodType), string(l.MealType),
	}
}

// InsertListing adds a single listing row
func (db *DB) InsertListing(ctx context.Context, l models.Listing) error {
	_, err := db.conn.ExecContext(ctx, insertListingSQL, listingArgs(l)...)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return ErrDuplicateRow
	}
	return err
}

// UpdateListingQuantity sets the quantity of one listing
func (db *DB) UpdateListingQuantity(ctx context.Context, foodID, quantity int64) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET quantity = ? WHERE food_id = ?`, quantity, foodID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteListing removes one listing. Claims referencing it are left alone.
func (db *DB) DeleteListing(ctx context.Context, foodID int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM listings WHERE food_id = ?`, foodID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoRow
	}
	return nil
}

// ReplaceAll overwrites every table with the contents of snap
func (db *DB) ReplaceAll(ctx context.Context, snap *models.Snapshot) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"providers", "receivers", "claims"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Providers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO providers (provider_id, name, provider_type, city, contact) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Type, p.City, p.Contact,
		)
		if err != nil {
			return fmt.Errorf("failed to insert provider %d: %w", p.ID, err)
		}
	}

	for _, r := range snap.Receivers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO receivers (receiver_id, name, receiver_type, city, contact) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Type, r.City, r.Contact,
		)
		if err != nil {
			return fmt.Errorf("failed to insert receiver %d: %w", r.ID, err)
		}
	}

	if err := replaceListings(ctx, tx, snap.Listings); err != nil {
		return err
	}

	for _, c := range snap.Claims {
		var ts any
		if !c.Timestamp.IsZero() {
			ts = c.Timestamp
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO claims (claim_id, food_id, receiver_id, status, timestamp) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.FoodID, c.ReceiverID, string(c.Status), ts,
		)
		if err != nil {
			return fmt.Errorf("failed to insert claim %d: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}
