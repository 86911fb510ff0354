// Package runner orchestrates one update run: for each retailer it loads
// the profile and listing file, fetches and extracts every tracked URL,
// applies manual price overrides, reconciles against the master catalog,
// and persists the result. Retailers run in parallel; each retailer's
// listing file has exactly one writer.
package runner

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cigarscout/cigarscout/internal/fetch"
	"github.com/cigarscout/cigarscout/internal/store"
	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/errors"
	"github.com/cigarscout/cigarscout/pkg/extract"
	"github.com/cigarscout/cigarscout/pkg/logging"
	"github.com/cigarscout/cigarscout/pkg/profile"
	"github.com/cigarscout/cigarscout/pkg/reconcile"
)

// PageFetcher retrieves one retailer page. Satisfied by fetch.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// HostPacer accepts per-host request spacing. Satisfied by fetch.Fetcher;
// fetchers without it keep their own pacing.
type HostPacer interface {
	SetHostInterval(host string, d time.Duration)
}

// ListingStore is the slice of store.Store the runner needs.
type ListingStore interface {
	LoadListings(retailer string) ([]catalog.Listing, error)
	SaveListings(retailer string, listings []catalog.Listing) error
}

// RetailerSummary is the outcome of one retailer's update.
type RetailerSummary struct {
	Retailer     string `json:"retailer"`
	Listings     int    `json:"listings"`
	Updated      int    `json:"updated"`
	Failed       int    `json:"failed"`
	ManualReview int    `json:"manual_review"`
	Orphaned     int    `json:"orphaned"`
	Overridden   int    `json:"overridden"`
	Changes      int    `json:"changes"`

	// Err is set when the retailer could not run at all (missing profile,
	// unreadable listing file). Per-listing failures land in Failed.
	Err error `json:"-"`
}

// RunSummary aggregates a whole run.
type RunSummary struct {
	Retailers    []RetailerSummary `json:"retailers"`
	Updated      int               `json:"updated"`
	Failed       int               `json:"failed"`
	ManualReview int               `json:"manual_review"`
	Orphaned     int               `json:"orphaned"`
}

// NeedsManualReview reports whether any listing in the run is waiting on a
// human.
func (s *RunSummary) NeedsManualReview() bool {
	return s.ManualReview > 0
}

// Err returns the first retailer-level error, if any.
func (s *RunSummary) Err() error {
	for _, r := range s.Retailers {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Runner drives update runs.
type Runner struct {
	store     ListingStore
	fetcher   PageFetcher
	master    catalog.Reader
	profiles  map[string]*profile.Profile
	overrides store.Overrides
	mirror    *store.Mirror
	parallel  int
	logger    zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithOverrides installs the manual price override table.
func WithOverrides(overrides store.Overrides) Option {
	return func(r *Runner) { r.overrides = overrides }
}

// WithMirror enables the SQLite mirror sync after each retailer save.
func WithMirror(m *store.Mirror) Option {
	return func(r *Runner) { r.mirror = m }
}

// WithParallelism caps how many retailers update concurrently.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner.
func New(st ListingStore, fetcher PageFetcher, master catalog.Reader,
	profiles map[string]*profile.Profile, opts ...Option) *Runner {
	r := &Runner{
		store:     st,
		fetcher:   fetcher,
		master:    master,
		profiles:  profiles,
		overrides: store.Overrides{},
		parallel:  4,
		logger:    *logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run updates the given retailers in parallel and returns the aggregated
// summary. A retailer-level failure does not stop the others; it is
// recorded on that retailer's summary.
func (r *Runner) Run(ctx context.Context, retailers []string) *RunSummary {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.parallel)

	var mu sync.Mutex
	summary := &RunSummary{}

	for _, retailer := range retailers {
		retailer := retailer
		group.Go(func() error {
			rs := r.updateRetailer(ctx, retailer)
			mu.Lock()
			summary.Retailers = append(summary.Retailers, rs)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(summary.Retailers, func(i, j int) bool {
		return summary.Retailers[i].Retailer < summary.Retailers[j].Retailer
	})
	for _, rs := range summary.Retailers {
		summary.Updated += rs.Updated
		summary.Failed += rs.Failed
		summary.ManualReview += rs.ManualReview
		summary.Orphaned += rs.Orphaned
	}
	return summary
}

// updateRetailer runs one retailer end to end. It is the single writer for
// that retailer's listing file.
func (r *Runner) updateRetailer(ctx context.Context, retailer string) RetailerSummary {
	rs := RetailerSummary{Retailer: retailer}
	logger := r.logger.With().Str("retailer", retailer).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	prof, ok := r.profiles[retailer]
	if !ok {
		rs.Err = errors.NewConfigError("runner", "no profile for retailer "+retailer, nil)
		logger.Error().Err(rs.Err).Msg("skipping retailer")
		return rs
	}

	listings, err := r.store.LoadListings(retailer)
	if err != nil {
		rs.Err = err
		logger.Error().Err(err).Msg("cannot load listings")
		return rs
	}
	rs.Listings = len(listings)
	if len(listings) == 0 {
		logger.Info().Msg("no listings to update")
		return rs
	}

	r.paceHosts(prof, listings)

	engine := extract.New(prof)
	reconciler := reconcile.New(r.master)

	updated := make([]catalog.Listing, 0, len(listings))
	for i := range listings {
		if ctx.Err() != nil {
			rs.Err = ctx.Err()
			return rs
		}
		l := r.updateListing(ctx, engine, reconciler, listings[i], &rs)
		updated = append(updated, l)
	}

	if err := r.store.SaveListings(retailer, updated); err != nil {
		rs.Err = err
		logger.Error().Err(err).Msg("cannot save listings")
		return rs
	}

	if r.mirror != nil {
		if err := r.mirror.SyncListings(ctx, retailer, updated); err != nil {
			logger.Warn().Err(err).Msg("mirror sync failed")
		}
	}

	logger.Info().
		Int("listings", rs.Listings).
		Int("updated", rs.Updated).
		Int("failed", rs.Failed).
		Int("manual_review", rs.ManualReview).
		Int("orphaned", rs.Orphaned).
		Msg("retailer update complete")
	return rs
}

// paceHosts applies the profile's rate limit to every host the retailer's
// listings point at, so a strict retailer is fetched no faster than its
// profile allows.
func (r *Runner) paceHosts(prof *profile.Profile, listings []catalog.Listing) {
	pacer, ok := r.fetcher.(HostPacer)
	if !ok {
		return
	}
	interval := prof.RateLimit()
	if interval <= 0 {
		return
	}
	seen := make(map[string]struct{}, 1)
	for i := range listings {
		u, err := url.Parse(listings[i].URL)
		if err != nil || u.Host == "" {
			continue
		}
		if _, done := seen[u.Host]; done {
			continue
		}
		seen[u.Host] = struct{}{}
		pacer.SetHostInterval(u.Host, interval)
	}
}

func (r *Runner) updateListing(ctx context.Context,
	engine *extract.Engine, reconciler *reconcile.Reconciler,
	l catalog.Listing, rs *RetailerSummary) catalog.Listing {

	llog := logging.FromContext(logging.WithListing(ctx, l.URL))

	_, hasOverride := r.overrides[l.URL]

	var result *extract.Result
	page, err := r.fetcher.Fetch(ctx, l.URL)
	switch {
	case err == nil:
		res := engine.Extract(page.Body)
		result = &res
	case errors.IsBlocked(err):
		rs.Failed++
		// A verified override already covers this listing; the block is
		// only worth a human's time without one.
		if hasOverride {
			llog.Warn().Err(err).Msg("retailer blocked the fetch, manual override covers it")
		} else {
			rs.ManualReview++
			llog.Warn().Err(err).Msg("retailer blocked the fetch, needs manual review")
		}
	default:
		rs.Failed++
		llog.Warn().Err(err).Msg("fetch failed")
	}

	// A manual override trumps whatever extraction produced: the human
	// already verified the price.
	overridden := r.overrides.Apply(&l)
	if overridden {
		rs.Overridden++
		result = nil
		llog.Info().Float64("price", l.Price).Msg("applied manual price override")
	}

	if result != nil && !result.AutomationEligible() {
		rs.ManualReview++
		llog.Warn().
			Str("confidence", string(result.Confidence)).
			Int("issues", len(result.Issues)).
			Msg("extraction needs manual review")
		// Keep the old transactional values rather than publishing a
		// low-confidence record.
		result = nil
	}

	outcome := reconciler.Reconcile(l, result)
	if outcome.Orphaned {
		rs.Orphaned++
		llog.Warn().Msg("cigar_id not in master catalog")
	}
	if result != nil || overridden {
		rs.Updated++
	}
	for _, change := range outcome.Changes {
		rs.Changes++
		llog.Info().
			Str("field", change.Field).
			Str("old", change.Old).
			Str("new", change.New).
			Msg("descriptive field synced from master")
	}
	return outcome.Listing
}
