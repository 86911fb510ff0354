// Package store owns the on-disk data layout: the master catalog CSV, the
// per-retailer listing CSVs with timestamped backups, the manual price
// override table, and an optional SQLite mirror for ad hoc querying. All
// writes are backup-then-replace; the CSV files stay the source of truth.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/errors"
	"github.com/cigarscout/cigarscout/pkg/logging"
)

const (
	// backupTimeFormat names backup files name_backup_YYYYMMDD_HHMMSS.csv.
	backupTimeFormat = "20060102_150405"

	dirPermissions = 0o755
)

// Store reads and writes the catalog data directory.
type Store struct {
	masterPath  string
	listingsDir string
	logger      zerolog.Logger

	// now is swapped in tests so backup names are predictable.
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the backup timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store over a master catalog CSV and a listings directory.
func New(masterPath, listingsDir string, opts ...Option) *Store {
	s := &Store{
		masterPath:  masterPath,
		listingsDir: listingsDir,
		logger:      *logging.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadMaster reads the master catalog. A missing or malformed file is a
// configuration error: nothing downstream can run without the catalog.
func (s *Store) LoadMaster() (*catalog.Catalog, error) {
	f, err := os.Open(s.masterPath)
	if err != nil {
		return nil, &errors.ConfigError{
			Component: "master catalog",
			Message:   "cannot open " + s.masterPath,
			Err:       err,
		}
	}
	defer func() { _ = f.Close() }()

	header, records, err := readCSV(f)
	if err != nil {
		return nil, &errors.ConfigError{
			Component: "master catalog",
			Message:   "malformed CSV in " + s.masterPath,
			Err:       err,
		}
	}

	master, err := catalog.FromCSVRecords(header, records)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("products", master.Len()).Str("path", s.masterPath).
		Msg("loaded master catalog")
	return master, nil
}

// LoadListings reads one retailer's listing file. A retailer with no file
// yet starts with an empty slate.
func (s *Store) LoadListings(retailer string) ([]catalog.Listing, error) {
	path := s.listingPath(retailer)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	header, records, err := readCSV(f)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	if len(header) == 0 {
		return nil, nil
	}

	listings := make([]catalog.Listing, 0, len(records))
	for _, record := range records {
		listings = append(listings, catalog.ListingFromRecord(retailer, record))
	}
	return listings, nil
}

// SaveListings writes one retailer's listing file. The previous file is
// kept as a timestamped backup before the replacement lands; the write
// itself goes through a temp file and rename.
func (s *Store) SaveListings(retailer string, listings []catalog.Listing) error {
	if err := os.MkdirAll(s.listingsDir, dirPermissions); err != nil {
		return errors.WrapIO("create", s.listingsDir, err)
	}

	path := s.listingPath(retailer)
	if backup, err := s.backup(path); err != nil {
		return err
	} else if backup != "" {
		s.logger.Debug().Str("retailer", retailer).Str("backup", backup).
			Msg("backed up listing file")
	}

	tmp, err := os.CreateTemp(s.listingsDir, retailer+"_*.csv.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp listing file", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	werr := w.Write(catalog.ListingColumns)
	for i := range listings {
		if werr != nil {
			break
		}
		werr = w.Write(listings[i].Record())
	}
	w.Flush()
	if werr == nil {
		werr = w.Error()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", path, werr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("replace", path, err)
	}
	s.logger.Info().Str("retailer", retailer).Int("listings", len(listings)).
		Msg("saved listing file")
	return nil
}

// Retailers lists the retailer keys that already have a listing file.
func (s *Store) Retailers() ([]string, error) {
	entries, err := os.ReadDir(s.listingsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", s.listingsDir, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(name, "_listings.csv")
		if !ok || base == "" {
			continue
		}
		keys = append(keys, base)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListingPath returns the retailer's CSV path. Exported for log lines.
func (s *Store) ListingPath(retailer string) string {
	return s.listingPath(retailer)
}

func (s *Store) listingPath(retailer string) string {
	return filepath.Join(s.listingsDir, retailer+"_listings.csv")
}

// backup copies path aside as name_backup_YYYYMMDD_HHMMSS.csv. A missing
// source file is not an error; first saves have nothing to keep.
func (s *Store) backup(path string) (string, error) {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.WrapIO("open", path, err)
	}
	defer func() { _ = src.Close() }()

	stamp := s.now().Format(backupTimeFormat)
	ext := filepath.Ext(path)
	backupPath := fmt.Sprintf("%s_backup_%s%s", path[:len(path)-len(ext)], stamp, ext)

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", errors.WrapIO("create", backupPath, err)
	}
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(backupPath)
		return "", errors.WrapIO("write", backupPath, err)
	}
	return backupPath, nil
}

// readCSV reads a header row and the remaining records. Listing and
// catalog files are small enough to read whole.
func readCSV(r io.Reader) (header []string, records [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}
