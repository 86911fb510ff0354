package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List and validate retailer profiles",
	Long: `Profiles loads every retailer profile from the profiles directory,
validates it, and prints the key settings. A malformed profile fails the
command; this is the quick check to run after editing profile YAML.`,
	Example: `  cigarscout profiles`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profiles, err := profile.LoadDir(cfg.ProfilesDir)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RETAILER\tDISPLAY NAME\tPRICE RANGE\tQTY RANGE\tSTOCK RULES\tRATE LIMIT")
		for _, key := range profile.Keys(profiles) {
			p := profiles[key]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\t%d\t%s\n",
				p.RetailerKey,
				p.DisplayName,
				priceRange(p),
				p.BoxQtyBounds.Min, p.BoxQtyBounds.Max,
				len(p.StockRules),
				p.RateLimit())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d profile(s) loaded from %s\n",
			len(profiles), cfg.ProfilesDir)
		return nil
	},
}

func priceRange(p *profile.Profile) string {
	if p.PriceBounds.Max == nil {
		return fmt.Sprintf("$%.0f+", p.PriceBounds.Min)
	}
	return fmt.Sprintf("$%.0f-$%.0f", p.PriceBounds.Min, *p.PriceBounds.Max)
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
