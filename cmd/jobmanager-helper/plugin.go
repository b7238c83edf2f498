package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/plugins"
	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Enable, disable and list installed add-ons",
}

var pluginActivateCmd = &cobra.Command{
	Use:   "activate <dir>",
	Short: "Enable an installed add-on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			filename := pluginFilename(args[0])
			changed, err := a.inventory.SetActive(filename, true)
			if err != nil {
				return err
			}
			if changed {
				a.helper.PluginActivated(cmd.Context(), filename)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s enabled\n", filename)
			return nil
		})
	},
}

var pluginDeactivateCmd = &cobra.Command{
	Use:   "deactivate <dir>",
	Short: "Disable an installed add-on, releasing its licence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			filename := pluginFilename(args[0])
			changed, err := a.inventory.SetActive(filename, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if changed {
				n := helper.NewNotices()
				a.helper.PluginDeactivated(cmd.Context(), n, filename)
				printNotices(out, n)
			}
			fmt.Fprintf(out, "%s disabled\n", filename)
			return nil
		})
	},
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed add-ons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			installed, err := a.inventory.Plugins()
			if err != nil {
				return err
			}
			filenames := make([]string, 0, len(installed))
			for filename := range installed {
				filenames = append(filenames, filename)
			}
			sort.Strings(filenames)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILENAME\tNAME\tVERSION\tPRODUCT\tACTIVE")
			for _, filename := range filenames {
				p := installed[filename]
				product := p.Product
				if product == "" {
					product = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", filename, p.Name, p.Version, product, p.Active)
			}
			return tw.Flush()
		})
	},
}

func init() {
	pluginCmd.AddCommand(pluginActivateCmd)
	pluginCmd.AddCommand(pluginDeactivateCmd)
	pluginCmd.AddCommand(pluginListCmd)
}

// pluginFilename accepts either an add-on directory or its full filename.
func pluginFilename(arg string) string {
	arg = strings.TrimSuffix(arg, "/")
	if strings.HasSuffix(arg, "/"+plugins.ManifestFile) {
		return arg
	}
	return arg + "/" + plugins.ManifestFile
}
