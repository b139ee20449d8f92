package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/attachtrack/attachtrack/internal/app/importer"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/bootstrap"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/spf13/cobra"
)

// ingestFn runs one roster upload through a built service
type ingestFn func(ctx context.Context, svc *services.RosterIngestService, records []services.RosterRecord) (*services.IngestResult, error)

func newImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load a roster from a CSV file",
		Long: `Bulk-load students or supervisors from a CSV file with a header row.

Columns: registrationNo (students) or staffNo (supervisors), firstname,
lastname, othernames (optional), phone, email.`,
	}

	var file string
	var approve bool
	studentsCmd := &cobra.Command{
		Use:   "students",
		Short: "Import students",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, file, importer.StudentKeyColumn,
				func(ctx context.Context, svc *services.RosterIngestService, records []services.RosterRecord) (*services.IngestResult, error) {
					return svc.IngestStudents(ctx, records, approve)
				})
		},
	}
	studentsCmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	studentsCmd.Flags().BoolVar(&approve, "approve", false, "mark the imported students as approved")
	_ = studentsCmd.MarkFlagRequired("file")

	supervisorsCmd := &cobra.Command{
		Use:   "supervisors",
		Short: "Import supervisors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, file, importer.SupervisorKeyColumn,
				func(ctx context.Context, svc *services.RosterIngestService, records []services.RosterRecord) (*services.IngestResult, error) {
					return svc.IngestSupervisors(ctx, records)
				})
		},
	}
	supervisorsCmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	_ = supervisorsCmd.MarkFlagRequired("file")

	importCmd.AddCommand(studentsCmd, supervisorsCmd)
	return importCmd
}

func runImport(cmd *cobra.Command, file, keyColumn string, ingest ingestFn) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	records, err := importer.ReadRoster(f, keyColumn)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	cfg, lgr, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := bootstrap.OpenStore(cmd.Context(), cfg, lgr)
	if err != nil {
		return err
	}
	defer closeStore()

	deps, err := bootstrap.BuildDependencies(cfg, store, lgr)
	if err != nil {
		return err
	}
	defer deps.Close()

	result, err := ingest(cmd.Context(), deps.IngestService, records)
	if err != nil {
		if msg, ok := apperrors.Message(err); ok {
			return fmt.Errorf("import rejected: %s", msg)
		}
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

// printResult writes "OK" or a table of the skipped records
func printResult(out io.Writer, result *services.IngestResult) error {
	fmt.Fprintf(out, "Created: %d\n", result.Created)
	if result.OK() {
		fmt.Fprintln(out, "OK")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tREASON")
	for _, e := range result.Errors {
		fmt.Fprintf(tw, "%s\t%s\n", e.Key, e.Reason)
	}
	return tw.Flush()
}
