package cmd

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cigarscout/cigarscout/internal/fetch"
	"github.com/cigarscout/cigarscout/internal/runner"
	"github.com/cigarscout/cigarscout/internal/store"
	"github.com/cigarscout/cigarscout/pkg/errors"
	"github.com/cigarscout/cigarscout/pkg/logging"
	"github.com/cigarscout/cigarscout/pkg/profile"
)

var updateAll bool

var updateCmd = &cobra.Command{
	Use:   "update [retailer]",
	Short: "Fetch, extract, and reconcile retailer listings",
	Long: `Update fetches every tracked product page for the given retailer,
extracts price, stock, and quantity, applies manual price overrides, and
reconciles the listings against the master catalog before saving.

With --all, every retailer that has both a profile and a listing file is
updated; retailers run in parallel.`,
	Example: `  cigarscout update smoke_shop
  cigarscout update --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateAll == (len(args) == 1) {
			return fmt.Errorf("pass exactly one retailer or --all")
		}

		st := store.New(cfg.MasterPath, cfg.ListingsDir)
		master, err := st.LoadMaster()
		if err != nil {
			return err
		}
		profiles, err := profile.LoadDir(cfg.ProfilesDir)
		if err != nil {
			return err
		}
		overrides, err := store.LoadOverrides(cfg.OverridesPath)
		if err != nil {
			return err
		}

		retailers := args
		if updateAll {
			retailers, err = allRetailers(st, profiles)
			if err != nil {
				return err
			}
			if len(retailers) == 0 {
				return errors.NewConfigError("update",
					"no retailer has both a profile and a listing file", nil)
			}
		} else if _, ok := profiles[retailers[0]]; !ok {
			return errors.NewConfigError("update",
				"no profile for retailer "+retailers[0], nil)
		}

		fetchOpts := []fetch.Option{
			fetch.WithClient(&http.Client{Timeout: cfg.RequestTimeout}),
			fetch.WithMaxAttempts(cfg.MaxAttempts),
		}
		if cfg.UserAgent != "" {
			fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.UserAgent))
		}

		runOpts := []runner.Option{
			runner.WithOverrides(overrides),
			runner.WithParallelism(cfg.MaxParallelRetailers),
		}
		var mirror *store.Mirror
		if cfg.MirrorPath != "" {
			mirror, err = store.OpenMirror(cfg.MirrorPath)
			if err != nil {
				return err
			}
			defer func() { _ = mirror.Close() }()
			runOpts = append(runOpts, runner.WithMirror(mirror))
		}

		r := runner.New(st, fetch.New(fetchOpts...), master, profiles, runOpts...)
		summary := r.Run(cmd.Context(), retailers)

		if mirror != nil {
			if err := mirror.SyncMaster(cmd.Context(), master); err != nil {
				logging.Warn().Err(err).Msg("master mirror sync failed")
			}
			if err := mirror.SyncOverrides(cmd.Context(), overrides); err != nil {
				logging.Warn().Err(err).Msg("override mirror sync failed")
			}
		}

		printRunSummary(cmd, summary)

		if err := summary.Err(); err != nil {
			return err
		}
		if summary.NeedsManualReview() {
			return &exitError{
				code: ExitManualReview,
				msg: fmt.Sprintf("%d listing(s) need manual review",
					summary.ManualReview),
			}
		}
		return nil
	},
}

// allRetailers returns the keys that have both a profile and a listing
// file, so --all never invents work for a half-configured retailer.
func allRetailers(st *store.Store, profiles map[string]*profile.Profile) ([]string, error) {
	withFiles, err := st.Retailers()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, key := range withFiles {
		if _, ok := profiles[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func printRunSummary(cmd *cobra.Command, summary *runner.RunSummary) {
	out := cmd.OutOrStdout()
	for _, rs := range summary.Retailers {
		if rs.Err != nil {
			fmt.Fprintf(out, "%s: failed: %v\n", rs.Retailer, rs.Err)
			continue
		}
		fmt.Fprintf(out, "%s: %d listings, %d updated, %d failed, %d manual review, %d orphaned\n",
			rs.Retailer, rs.Listings, rs.Updated, rs.Failed, rs.ManualReview, rs.Orphaned)
	}
	fmt.Fprintf(out, "total: %d updated, %d failed, %d manual review, %d orphaned\n",
		summary.Updated, summary.Failed, summary.ManualReview, summary.Orphaned)
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateAll, "all", false,
		"update every retailer with a profile and a listing file")
}
