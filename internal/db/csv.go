package db

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/centromex/foodwaste/internal/models"
)

// CSVFiles names the four files inside a CSV directory.
type CSVFiles struct {
	Providers string `yaml:"providers"`
	Receivers string `yaml:"receivers"`
	Listings  string `yaml:"listings"`
	Claims    string `yaml:"claims"`
}

// DefaultCSVFiles are the file names used by the cleaned dataset.
var DefaultCSVFiles = CSVFiles{
	Providers: "new_providers_data.csv",
	Receivers: "new_receivers_data.csv",
	Listings:  "new_food_listing_data.csv",
	Claims:    "new_claims_data.csv",
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

var timeLayouts = []string{
	timestampLayout,
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"1/2/2006",
}

var (
	providerHeader = []string{"Provider_ID", "Name", "Provider_Type", "City", "Contact"}
	receiverHeader = []string{"Receiver_ID", "Name", "Receiver_Type", "City", "Contact"}
	listingHeader  = []string{"Food_ID", "Food_Name", "Quantity", "Expiry_Date", "Provider_ID", "Provider_Type", "Location", "Food_Type", "Meal_Type"}
	claimHeader    = []string{"Claim_ID", "Food_ID", "Receiver_ID", "Status", "Timestamp"}
)

// CSV is the flat-file backend: one CSV file per table inside dir.
// Every load re-reads the files; saves replace a file atomically.
type CSV struct {
	dir   string
	files CSVFiles
	mu    sync.Mutex
}

// NewCSV opens a CSV directory, creating it if it does not exist.
// Missing files read as empty tables.
func NewCSV(dir string, files CSVFiles) (*CSV, error) {
	if dir == "" {
		return nil, errors.New("csv directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}
	return newCSV(dir, files), nil
}

func newCSV(dir string, files CSVFiles) *CSV {
	if files.Providers == "" {
		files.Providers = DefaultCSVFiles.Providers
	}
	if files.Receivers == "" {
		files.Receivers = DefaultCSVFiles.Receivers
	}
	if files.Listings == "" {
		files.Listings = DefaultCSVFiles.Listings
	}
	if files.Claims == "" {
		files.Claims = DefaultCSVFiles.Claims
	}
	return &CSV{dir: dir, files: files}
}

func (c *CSV) path(name string) string {
	return filepath.Join(c.dir, name)
}

func (c *CSV) Load(ctx context.Context) (*models.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snap models.Snapshot

	err := readTable(c.path(c.files.Providers), func(r record) error {
		p := models.Provider{
			Name:    r.str("Name"),
			Type:    r.str("Provider_Type", "Type"),
			City:    r.str("City"),
			Contact: r.str("Contact"),
		}
		var err error
		if p.ID, err = r.integer("Provider_ID"); err != nil {
			return err
		}
		snap.Providers = append(snap.Providers, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readTable(c.path(c.files.Receivers), func(r record) error {
		rc := models.Receiver{
			Name:    r.str("Name"),
			Type:    r.str("Receiver_Type", "Type"),
			City:    r.str("City"),
			Contact: r.str("Contact"),
		}
		var err error
		if rc.ID, err = r.integer("Receiver_ID"); err != nil {
			return err
		}
		snap.Receivers = append(snap.Receivers, rc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snap.Listings, err = c.loadListings(); err != nil {
		return nil, err
	}

	err = readTable(c.path(c.files.Claims), func(r record) error {
		cl := models.Claim{Status: models.ClaimStatus(r.str("Status"))}
		var err error
		if cl.ID, err = r.integer("Claim_ID"); err != nil {
			return err
		}
		if cl.FoodID, err = r.integer("Food_ID"); err != nil {
			return err
		}
		if cl.ReceiverID, err = r.integer("Receiver_ID"); err != nil {
			return err
		}
		if cl.Timestamp, err = r.timestamp("Timestamp"); err != nil {
			return err
		}
		snap.Claims = append(snap.Claims, cl)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

func (c *CSV) LoadListings(ctx context.Context) ([]models.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadListings()
}

func (c *CSV) loadListings() ([]models.Listing, error) {
	var listings []models.Listing
	err := readTable(c.path(c.files.Listings), func(r record) error {
		l := models.Listing{
			FoodName:     r.str("Food_Name"),
			ProviderType: r.str("Provider_Type"),
			Location:     r.str("Location"),
			FoodType:     models.FoodType(r.str("Food_Type")),
			MealType:     models.MealType(r.str("Meal_Type")),
		}
		var err error
		if l.FoodID, err = r.integer("Food_ID"); err != nil {
			return err
		}
		if l.Quantity, err = r.integer("Quantity"); err != nil {
			return err
		}
		if l.ProviderID, err = r.integer("Provider_ID"); err != nil {
			return err
		}
		if l.ExpiryDate, err = r.timestamp("Expiry_Date"); err != nil {
			return err
		}
		listings = append(listings, l)
		return nil
	})
	return listings, err
}

func (c *CSV) SaveListings(ctx context.Context, listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeTable(c.path(c.files.Listings), listingHeader, listingRows(listings))
}

// ReplaceAll stages all four files before renaming any of them into place.
// If a rename fails, the tables already renamed get their old content back.
func (c *CSV) ReplaceAll(ctx context.Context, snap *models.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	providers := make([][]string, 0, len(snap.Providers))
	for _, p := range snap.Providers {
		providers = append(providers, []string{fmtInt(p.ID), p.Name, p.Type, p.City, p.Contact})
	}

	receivers := make([][]string, 0, len(snap.Receivers))
	for _, r := range snap.Receivers {
		receivers = append(receivers, []string{fmtInt(r.ID), r.Name, r.Type, r.City, r.Contact})
	}

	claims := make([][]string, 0, len(snap.Claims))
	for _, cl := range snap.Claims {
		claims = append(claims, []string{
			fmtInt(cl.ID), fmtInt(cl.FoodID), fmtInt(cl.ReceiverID), string(cl.Status),
			fmtTime(cl.Timestamp, timestampLayout),
		})
	}

	return replaceTables([]table{
		{path: c.path(c.files.Providers), header: providerHeader, rows: providers},
		{path: c.path(c.files.Receivers), header: receiverHeader, rows: receivers},
		{path: c.path(c.files.Listings), header: listingHeader, rows: listingRows(snap.Listings)},
		{path: c.path(c.files.Claims), header: claimHeader, rows: claims},
	})
}

func (c *CSV) Close() error {
	return nil
}

func listingRows(listings []models.Listing) [][]string {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			fmtInt(l.FoodID), l.FoodName, fmtInt(l.Quantity), fmtTime(l.ExpiryDate, dateLayout),
			fmtInt(l.ProviderID), l.ProviderType, l.Location, string(l.FoodType), string(l.MealType),
		})
	}
	return rows
}

// record is one CSV row addressed by header name.
type record struct {
	file   string
	line   int
	index  map[string]int
	fields []string
}

// str returns the first of names present in the header, trimmed.
func (r record) str(names ...string) string {
	for _, name := range names {
		if i, ok := r.index[name]; ok && i < len(r.fields) {
			return strings.TrimSpace(r.fields[i])
		}
	}
	return ""
}

func (r record) integer(name string) (int64, error) {
	s := r.str(name)
	if s == "" {
		return 0, nil
	}
	// pandas writes integer columns with NaN as floats
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: invalid %s %q", filepath.Base(r.file), r.line, name, s)
	}
	return n, nil
}

func (r record) timestamp(name string) (time.Time, error) {
	s := r.str(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s line %d: invalid %s: %w", filepath.Base(r.file), r.line, name, err)
	}
	return t, nil
}

// ParseTime accepts the date and timestamp layouts seen in the dataset.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func readTable(path string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for line := 2; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := fn(record{file: path, line: line, index: index, fields: fields}); err != nil {
			return err
		}
	}
}

func encodeTable(path string, header []string, rows [][]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return &buf, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	buf, err := encodeTable(path, header, rows)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

type table struct {
	path   string
	header []string
	rows   [][]string
}

// staged is a table written to tmp, waiting to be renamed over path.
type staged struct {
	path    string
	tmp     string
	old     []byte
	existed bool
}

func replaceTables(tables []table) error {
	pending := make([]*staged, 0, len(tables))
	defer func() {
		for _, p := range pending {
			if p.tmp != "" {
				os.Remove(p.tmp)
			}
		}
	}()

	for _, t := range tables {
		p, err := stageTable(t)
		if p != nil {
			pending = append(pending, p)
		}
		if err != nil {
			return err
		}
	}

	for i, p := range pending {
		if err := atomic.ReplaceFile(p.tmp, p.path); err != nil {
			restoreTables(pending[:i])
			return fmt.Errorf("failed to replace %s: %w", p.path, err)
		}
		p.tmp = ""
	}
	return nil
}

func stageTable(t table) (*staged, error) {
	p := &staged{path: t.path}
	old, err := os.ReadFile(t.path)
	switch {
	case err == nil:
		p.old, p.existed = old, true
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", t.path, err)
	}

	buf, err := encodeTable(t.path, t.header, t.rows)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", t.path, err)
	}
	p.tmp = f.Name()
	_, err = io.Copy(f, buf)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return p, fmt.Errorf("failed to stage %s: %w", t.path, err)
	}
	return p, nil
}

// restoreTables puts back the content tables had before a failed replace.
func restoreTables(done []*staged) {
	for _, p := range done {
		if p.existed {
			atomic.WriteFile(p.path, bytes.NewReader(p.old))
		} else {
			os.Remove(p.path)
		}
	}
}

func fmtInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func fmtTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
