package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/observability"
)

var (
	exportAll         bool
	exportDir         string
	exportConcurrency int
)

var exportCmd = &cobra.Command{
	Use:   "export [form-id...]",
	Short: "Download form answers as export-<formName>.xlsx",
	Long:  `Download the spreadsheet export of the given forms, or of every form with --all. A failed export writes no file.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every form")
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", ".", "Directory to write exports to")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 4, "Number of simultaneous downloads")
	addCredentialFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if !exportAll && len(args) == 0 {
		return fmt.Errorf("pass one or more form ids, or --all")
	}

	ctx := cmd.Context()
	cfg, err := cliConfig()
	if err != nil {
		return err
	}
	client, err := apiLogin(ctx, cfg, credentials())
	if err != nil {
		return err
	}

	raw, err := client.ListForms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list forms: %w", err)
	}
	names := make(map[string]string, len(raw))
	ids := args
	if exportAll {
		ids = nil
	}
	for _, f := range raw {
		names[f.ID] = f.Name
		if exportAll {
			ids = append(ids, f.ID)
		}
	}

	results, err := exportForms(ctx, client, ids, names, exportDir, exportConcurrency)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintExportResults(results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d exports failed", failed, len(results))
	}
	return nil
}

// formExporter downloads one form export.
type formExporter interface {
	ExportForm(ctx context.Context, id string) ([]byte, error)
}

// exportForms downloads ids into dir, at most concurrency at a time. Each form gets
// its own result; one failure does not stop the others.
func exportForms(ctx context.Context, src formExporter, ids []string, names map[string]string, dir string, concurrency int) ([]observability.ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]observability.ExportResult, len(ids))
	used := make(map[string]bool, len(ids))
	for i, id := range ids {
		name := names[id]
		if name == "" {
			name = id
		}
		path := filepath.Join(dir, api.ExportFilename(name))
		// Two forms may share a name.
		if used[path] {
			path = filepath.Join(dir, api.ExportFilename(name+"-"+id))
		}
		used[path] = true
		results[i] = observability.ExportResult{FormName: name, Path: path}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			res := &results[i]
			data, err := src.ExportForm(gctx, id)
			if err != nil {
				res.Err = errors.New(api.UserMessage(err))
				return nil
			}
			if err := os.WriteFile(res.Path, data, 0o644); err != nil {
				res.Err = fmt.Errorf("failed to write %s: %w", res.Path, err)
				return nil
			}
			res.Bytes = len(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
