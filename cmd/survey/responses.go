package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/internal/config"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/spf13/cobra"
)

var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "List stored responses",
	Long: `Reads the responses back from the configured sink. The CSV layout
matches the response sheet: Timestamp, one column per question id, then
Path_Taken.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		sink, _ := cmd.Flags().GetString("sink")

		st, err := buildStack(cmd.Context(), cmd, func(s *config.Settings) {
			if sink != "" {
				s.Sink = sink
			}
		})
		if err != nil {
			return err
		}
		defer st.Close()

		if st.Responses == nil {
			return fmt.Errorf("sink %q cannot be read back", st.Settings.Sink)
		}
		rows, err := st.Responses.ListResponses(cmd.Context())
		if err != nil {
			return err
		}

		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		case "csv":
			return writeCSV(cmd.OutOrStdout(), st.Engine.Graph().IDs(), rows)
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", format)
		}
	},
}

func writeCSV(w io.Writer, ids []string, rows []domain.ResponseRow) error {
	// Columns found in stored rows but no longer in the survey go last.
	ids = slices.Clone(ids)
	var extra []string
	for _, row := range rows {
		for id := range row.Columns {
			if !slices.Contains(ids, id) && !slices.Contains(extra, id) {
				extra = append(extra, id)
			}
		}
	}
	slices.Sort(extra)
	ids = append(ids, extra...)

	cw := csv.NewWriter(w)
	header := append(append([]string{"Timestamp"}, ids...), "Path_Taken")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.Timestamp.UTC().Format(time.RFC3339)}
		for _, id := range ids {
			record = append(record, row.Columns[id])
		}
		record = append(record, row.PathTaken)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	rootCmd.AddCommand(responsesCmd)
	responsesCmd.Flags().StringP("format", "f", "csv", "Output format: csv or json")
	responsesCmd.Flags().String("sink", "", "Override the configured sink (sqlite or remote)")
}
