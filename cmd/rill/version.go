package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rill/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show rill build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v := strings.TrimSpace(version.Version)
		if v == "" {
			v = "dev"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rill %s\n", v)
		if commit := strings.TrimSpace(version.GitCommit); commit != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
		}
		if date := strings.TrimSpace(version.BuildDate); date != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "built:  %s\n", date)
		}
		return nil
	},
}
