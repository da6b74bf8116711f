package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rill/internal/analysis"
	"rill/internal/fsops"
	"rill/internal/project"
	"rill/internal/source"
	"rill/internal/typecheck"
	"rill/internal/workspace"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	pathColor    = color.New(color.FgCyan)
)

var checkCmd = &cobra.Command{
	Use:          "check [path]",
	Short:        "Check every workspace file once and report diagnostics",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	configureColor(cmd)

	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	root, err := filepath.Abs(start)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", start, err)
	}

	var cfg project.Config
	if manifest, ok, err := project.LoadManifest(root); err != nil {
		return err
	} else if ok {
		root = manifest.Root
		cfg = manifest.Config
	}

	paths, err := collectPaths(root, cfg)
	if err != nil {
		return err
	}

	batch := workspace.FileUpdates{Epoch: 1}
	for _, path := range paths {
		f, err := source.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		batch.Files = append(batch.Files, f)
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	engine := typecheck.NewEngine(typecheck.EngineOptions{Jobs: jobs})
	run := engine.Run(analysis.NewSnapshot(), batch)

	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	errorCount, warningCount := printDiagnostics(run.Diagnostics, maxDiagnostics)

	fmt.Printf("checked %d files: %d errors, %d warnings\n", len(batch.Files), errorCount, warningCount)
	if errorCount > 0 {
		return fmt.Errorf("check failed with %d errors", errorCount)
	}
	return nil
}

func collectPaths(root string, cfg project.Config) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	return fsops.WalkFiles(root, cfg.Workspace.IgnoreAbsolute, cfg.Workspace.Ignore)
}

func printDiagnostics(diags []analysis.Diagnostic, limit int) (errorCount, warningCount int) {
	shown := 0
	for _, d := range diags {
		label := warningColor.Sprint("warning")
		if d.Severity == analysis.SeverityError {
			label = errorColor.Sprint("error")
			errorCount++
		} else {
			warningCount++
		}
		if limit > 0 && shown >= limit {
			continue
		}
		shown++
		fmt.Printf("%s:%d:%d: %s[%s]: %s\n",
			pathColor.Sprint(d.Path), d.StartLine, d.StartCol, label, d.Code, d.Message)
	}
	if limit > 0 && errorCount+warningCount > limit {
		fmt.Printf("... and %d more\n", errorCount+warningCount-limit)
	}
	return errorCount, warningCount
}
