package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"quizrank-service/internal/config"
	"quizrank-service/internal/domain"
	"quizrank-service/internal/export"
)

// NewReportCmd renders the activity or performance report to a file.
func NewReportCmd(configPath *string) *cobra.Command {
	var (
		kind   string
		format string
		output string
		days   int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the activity or performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return writeReport(cmd.Context(), cfg, kind, format, output, days)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "activity", "report to export: activity or performance")
	cmd.Flags().StringVar(&format, "format", "xlsx", "output format: xlsx or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <kind>-report.<format>)")
	cmd.Flags().IntVar(&days, "days", 0, "restrict the activity report to the trailing days")
	return cmd
}

// writeReport reads attempts from Postgres; in-memory mode has nothing to report.
func writeReport(ctx context.Context, cfg config.Config, kind, format, output string, days int) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var table export.Table
	switch kind {
	case "activity":
		var rows []domain.ActivityRow
		if days > 0 {
			rows, err = service.RecentActivityReport(ctx, days)
		} else {
			rows, err = service.ActivityReport(ctx)
		}
		if err != nil {
			return err
		}
		table = export.ActivityTable(rows)
	case "performance":
		rows, err := service.PerformanceReport(ctx)
		if err != nil {
			return err
		}
		table = export.PerformanceTable(rows)
	default:
		return fmt.Errorf("unknown report %q (want activity or performance)", kind)
	}

	if output == "" {
		output = kind + "-report." + string(f)
	}
	file, err := os.Create(output)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := export.Write(file, f, table); err != nil {
		return err
	}
	log.Printf("report %s written to %s (%d rows)", kind, output, len(table.Rows))
	return nil
}
