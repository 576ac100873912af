package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	_ "github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"github.com/spf13/cobra"
)

var topicsOutputFormat string

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the events streamed to browsers on /ws",
	Long: `List the dashboard events published on the internal bus and forwarded to
connected browsers.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics := pubsub.Topics()
		out := cmd.OutOrStdout()

		switch topicsOutputFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Topics []pubsub.TopicInfo `json:"topics"`
				Count  int                `json:"count"`
			}{Topics: topics, Count: len(topics)})
		case "table":
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPAYLOAD\tFIELDS\tDESCRIPTION")
			fmt.Fprintln(w, "----\t-------\t------\t-----------")
			for _, t := range topics {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.TypeName, strings.Join(t.PayloadFields, ","), t.Description)
			}
			return w.Flush()
		default:
			return fmt.Errorf("unknown format %q, expected table or json", topicsOutputFormat)
		}
	},
}

func init() {
	topicsCmd.Flags().StringVarP(&topicsOutputFormat, "format", "f", "table", "output format (table, json)")
	rootCmd.AddCommand(topicsCmd)
}
