package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/jobmanager/helper/internal/helper"
	"github.com/spf13/cobra"
)

var errNotices = errors.New("licence operation failed")

var (
	licenceKey   string
	licenceEmail string
	statusJSON   bool
)

var licenceCmd = &cobra.Command{
	Use:     "licence",
	Aliases: []string{"license"},
	Short:   "Manage add-on licences",
}

var licenceActivateCmd = &cobra.Command{
	Use:   "activate <product-slug>",
	Short: "Activate a licence key for an installed add-on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return manageLicence(cmd, a, helper.LicenceRequest{
				Action:      helper.ActionActivate,
				ProductSlug: args[0],
				LicenceKey:  licenceKey,
				Email:       licenceEmail,
			})
		})
	},
}

var licenceDeactivateCmd = &cobra.Command{
	Use:   "deactivate <product-slug>",
	Short: "Deactivate the licence of an installed add-on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return manageLicence(cmd, a, helper.LicenceRequest{
				Action:      helper.ActionDeactivate,
				ProductSlug: args[0],
			})
		})
	},
}

var licenceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the licence state of managed add-ons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			statuses := a.helper.Statuses(cmd.Context())
			out := cmd.OutOrStdout()
			if statusJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}
			if len(statuses) == 0 {
				fmt.Fprintln(out, "No managed add-ons installed.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PRODUCT\tVERSION\tACTIVE\tLICENCE\tEMAIL\tERRORS\tACTION")
			for _, s := range statuses {
				licence := "none"
				if s.LicenceActive {
					licence = s.LicenceKey
				}
				action := s.LicenceLink
				if action == "" {
					action = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%d\t%s\n", s.ProductSlug, s.Version, s.Active, licence, s.Email, len(s.Errors), action)
			}
			return tw.Flush()
		})
	},
}

func init() {
	licenceActivateCmd.Flags().StringVar(&licenceKey, "key", "", "Licence key")
	licenceActivateCmd.Flags().StringVar(&licenceEmail, "email", "", "Email address the licence was purchased with")
	licenceStatusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print JSON")

	licenceCmd.AddCommand(licenceActivateCmd)
	licenceCmd.AddCommand(licenceDeactivateCmd)
	licenceCmd.AddCommand(licenceStatusCmd)
}

func manageLicence(cmd *cobra.Command, a *app, req helper.LicenceRequest) error {
	n := helper.NewNotices()
	if !a.helper.ManageLicence(cmd.Context(), n, req) {
		return fmt.Errorf("%q is not an active managed add-on", req.ProductSlug)
	}
	if printNotices(cmd.OutOrStdout(), n) {
		return errNotices
	}
	return nil
}
