package cmd

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cigarscout/cigarscout/internal/store"
	"github.com/cigarscout/cigarscout/pkg/audit"
	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/errors"
)

var auditOutput string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check every listing file against the master catalog",
	Long: `Audit reads every retailer listing file and reports, without
modifying anything, where descriptive fields have drifted from the master
catalog, which listings are orphaned, and which have no cigar_id at all.
Retailers are ranked by how much fixing they need.

Running audit twice over unchanged files produces the identical report.`,
	Example: `  cigarscout audit
  cigarscout audit --output findings.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st := store.New(cfg.MasterPath, cfg.ListingsDir)
		master, err := st.LoadMaster()
		if err != nil {
			return err
		}

		retailers, err := st.Retailers()
		if err != nil {
			return err
		}
		var listings []catalog.Listing
		for _, retailer := range retailers {
			rows, err := st.LoadListings(retailer)
			if err != nil {
				return err
			}
			listings = append(listings, rows...)
		}

		report := audit.New(master).Run(listings)

		if err := report.Render(cmd.OutOrStdout()); err != nil {
			return err
		}
		if auditOutput != "" {
			if err := writeFindingsCSV(auditOutput, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nwrote findings to %s\n", auditOutput)
		}

		if !report.Clean() {
			return &exitError{
				code: ExitManualReview,
				msg:  fmt.Sprintf("%d finding(s) need attention", report.TotalFindings),
			}
		}
		return nil
	},
}

func writeFindingsCSV(path string, report *audit.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	w := csv.NewWriter(f)
	werr := w.WriteAll(report.Records())
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return errors.WrapIO("write", path, werr)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "",
		"also write the findings as CSV to this path")
}
