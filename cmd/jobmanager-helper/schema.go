package main

import (
	"encoding/json"

	"github.com/jobmanager/helper/internal/rest"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print REST resource schemas",
}

var schemaJobTypesCmd = &cobra.Command{
	Use:   "job-types",
	Short: "Print the job-types custom field schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rest.BuildSchema(rest.NewEnvironment(), "job-types", rest.JobTypesCustomFields{}))
	},
}

func init() {
	schemaCmd.AddCommand(schemaJobTypesCmd)
}
