package store

import (
	"context"
	"database/sql"
	"time"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"

	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/errors"
)

// Mirror keeps a queryable SQLite copy of the CSV data. The CSVs stay the
// source of truth; the mirror is rebuilt from them after each run, so its
// writes replace rather than merge.
type Mirror struct {
	db *sql.DB
}

const mirrorSchema = `
CREATE TABLE IF NOT EXISTS master_products (
	cigar_id     TEXT PRIMARY KEY,
	product_name TEXT NOT NULL,
	brand        TEXT NOT NULL,
	line         TEXT NOT NULL,
	wrapper      TEXT NOT NULL,
	vitola       TEXT NOT NULL,
	size         TEXT NOT NULL,
	box_qty      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS listings (
	retailer         TEXT NOT NULL,
	cigar_id         TEXT NOT NULL,
	url              TEXT NOT NULL,
	title            TEXT NOT NULL,
	brand            TEXT NOT NULL,
	line             TEXT NOT NULL,
	wrapper          TEXT NOT NULL,
	vitola           TEXT NOT NULL,
	size             TEXT NOT NULL,
	box_qty          INTEGER NOT NULL,
	price            REAL NOT NULL,
	original_price   REAL,
	discount_percent REAL,
	in_stock         INTEGER NOT NULL,
	orphaned         INTEGER NOT NULL,
	promo_applied    INTEGER NOT NULL,
	PRIMARY KEY (retailer, url)
);
CREATE INDEX IF NOT EXISTS idx_listings_cigar_id ON listings (cigar_id);

CREATE TABLE IF NOT EXISTS price_overrides (
	url            TEXT PRIMARY KEY,
	price          REAL NOT NULL,
	original_price REAL,
	in_stock       INTEGER NOT NULL,
	verified_at    TEXT,
	method         TEXT NOT NULL
);
`

// OpenMirror opens (and migrates) the SQLite mirror at path. Use
// ":memory:" in tests.
func OpenMirror(path string) (*Mirror, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	if _, err := db.Exec(mirrorSchema); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("migrate", path, err)
	}
	return &Mirror{db: db}, nil
}

// Close releases the database handle.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// SyncMaster replaces the master_products table with the catalog contents.
func (m *Mirror) SyncMaster(ctx context.Context, master catalog.Reader) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM master_products`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO master_products
				(cigar_id, product_name, brand, line, wrapper, vitola, size, box_qty)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range master.Products() {
			_, err := stmt.ExecContext(ctx, p.ID.String(), p.CanonicalName(),
				p.Brand, p.Line, p.Wrapper, p.Vitola, p.Size, p.BoxQty)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SyncListings replaces one retailer's rows in the listings table.
func (m *Mirror) SyncListings(ctx context.Context, retailer string, listings []catalog.Listing) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE retailer = ?`, retailer); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO listings
				(retailer, cigar_id, url, title, brand, line, wrapper, vitola, size,
				 box_qty, price, original_price, discount_percent, in_stock, orphaned, promo_applied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i := range listings {
			l := &listings[i]
			_, err := stmt.ExecContext(ctx,
				l.Retailer, l.CigarID.String(), l.URL, l.Title, l.Brand, l.Line,
				l.Wrapper, l.Vitola, l.Size, l.BoxQty, l.Price,
				nullFloat(l.OriginalPrice), nullFloat(l.DiscountPercent),
				l.InStock, l.Orphaned, l.PromotionsApplied)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SyncOverrides replaces the price_overrides table.
func (m *Mirror) SyncOverrides(ctx context.Context, overrides Overrides) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM price_overrides`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO price_overrides (url, price, original_price, in_stock, verified_at, method)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, o := range overrides {
			var verified any
			if !o.VerifiedAt.IsZero() {
				verified = o.VerifiedAt.UTC().Format(time.RFC3339)
			}
			_, err := stmt.ExecContext(ctx, o.URL, o.Price,
				nullFloat(o.OriginalPrice), o.InStock, verified, o.Method)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CountListings returns the number of mirrored rows for a retailer, or all
// retailers when the key is empty.
func (m *Mirror) CountListings(ctx context.Context, retailer string) (int, error) {
	var (
		count int
		err   error
	)
	if retailer == "" {
		err = m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count)
	} else {
		err = m.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM listings WHERE retailer = ?`, retailer).Scan(&count)
	}
	return count, err
}

func (m *Mirror) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
