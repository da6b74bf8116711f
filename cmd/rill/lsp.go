package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rill/internal/lsp"
)

var lspTrace bool

func init() {
	lspCmd.Flags().BoolVar(&lspTrace, "trace", false, "log batch and analysis activity to stderr")
}

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the rill language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		MaxDiagnostics: maxDiagnostics,
		Trace:          lspTrace,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
