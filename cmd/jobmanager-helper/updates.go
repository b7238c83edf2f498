package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/jobmanager/helper/internal/helper"
	"github.com/spf13/cobra"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Add-on update checks",
}

var updatesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the licensing server for add-on updates and store the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			n := helper.NewNotices()
			transient, err := a.helper.RefreshUpdates(cmd.Context(), n, a.transients, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printNotices(out, n)

			if len(transient.Response) == 0 {
				fmt.Fprintln(out, "All managed add-ons are up to date.")
				return nil
			}
			filenames := make([]string, 0, len(transient.Response))
			for filename := range transient.Response {
				filenames = append(filenames, filename)
			}
			sort.Strings(filenames)
			for _, filename := range filenames {
				fmt.Fprintf(out, "%s: %s -> %s\n", filename, transient.Checked[filename], transient.Response[filename].NewVersion())
			}
			return nil
		})
	},
}

func init() {
	updatesCmd.AddCommand(updatesCheckCmd)
}
