package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Beekeepers-Inc/rats/internal/session"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV or spreadsheet file into a fresh session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			stop := streamProgress(sess)
			result, err := sess.ImportFile(cmd.Context(), args[0], table)
			stop()
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Table name (defaults to the file stem)")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Print the leading rows of a file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := session.PreviewFile(args[0], rows)
			if err != nil {
				return err
			}

			printPreview(os.Stdout, preview)
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", session.DefaultPreviewRows, "Number of sample rows")
	return cmd
}

// printPreview renders a preview as an aligned text table.
func printPreview(out io.Writer, p *session.PreviewData) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(p.Columns, "\t"))
	for _, row := range p.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	fmt.Fprintf(out, "%d rows total\n", p.TotalRows)
}

func newStatsCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Import a file and print its column statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			stop := streamProgress(sess)
			imported, err := sess.ImportFile(cmd.Context(), args[0], table)
			stop()
			if err != nil {
				return err
			}

			stats, err := sess.GetTableStatistics(cmd.Context(), imported.TableName)
			if err != nil {
				return err
			}

			return printJSON(stats)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Table name (defaults to the file stem)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		out      string
		format   string
		noHeader bool
		sheet    string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Import a file and export it as CSV or xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unsupported export format: %s", format)
			}

			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			stop := streamProgress(sess)
			imported, err := sess.ImportFile(cmd.Context(), args[0], "")
			stop()
			if err != nil {
				return err
			}

			var result *session.ExportResult
			if format == "csv" {
				result, err = sess.ExportToCSV(cmd.Context(), imported.TableName, out, !noHeader)
			} else {
				result, err = sess.ExportToExcel(cmd.Context(), imported.TableName, out, sheet)
			}
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Destination path (required)")
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or xlsx")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Omit the header row (CSV only)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name for xlsx export")
	cmd.MarkFlagRequired("out")
	return cmd
}
