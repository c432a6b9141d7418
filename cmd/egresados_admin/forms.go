package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/egresados-admin/internal/observability"
	"github.com/jonathan/egresados-admin/internal/types"
)

var formsCmd = &cobra.Command{
	Use:   "forms [form-id]",
	Short: "List forms, or summarize the answers of one form",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runForms,
}

func init() {
	addCredentialFlags(formsCmd)
	rootCmd.AddCommand(formsCmd)
}

func runForms(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := cliConfig()
	if err != nil {
		return err
	}
	client, err := apiLogin(ctx, cfg, credentials())
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if len(args) == 0 {
		raw, err := client.ListForms(ctx)
		if err != nil {
			return fmt.Errorf("failed to list forms: %w", err)
		}
		printer.PrintFormList(types.ProjectForms(raw))
		return nil
	}

	form, err := client.GetForm(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load form %s: %w", args[0], err)
	}
	if form == nil {
		return fmt.Errorf("form %s not found", args[0])
	}
	printer.PrintFormSummary(form)
	return nil
}
