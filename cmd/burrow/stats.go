package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/cuemby/burrow/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statsCmd = &cobra.Command{
	Use:   "stats [PATTERN]",
	Short: "Show deployment statistics",
	Long: `Show the statistics of every deployment whose model id matches
PATTERN. PATTERN is a comma separated list of model ids and wildcard
expressions ("elser*,e5"); empty or "_all" matches every deployment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.GetDeploymentStats(pattern)
		if err != nil {
			return fmt.Errorf("failed to get deployment stats: %w", err)
		}
		return printStats(os.Stdout, resp, output)
	},
}

func init() {
	statsCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
	addManagerFlag(statsCmd)
}

func printStats(w io.Writer, resp *types.DeploymentStatsResponse, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		// Round trip through JSON so the YAML keys match the wire format
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	case "table":
		return printStatsTable(w, resp)
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}

func printStatsTable(w io.Writer, resp *types.DeploymentStatsResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tSTATE\tALLOCATION\tNODE\tROUTE\tINFERENCES\tAVG MS\tPENDING\tERRORS")
	for _, s := range resp.Stats {
		allocation := "-"
		if s.AllocationStatus != nil {
			allocation = fmt.Sprintf("%s (%d/%d)", s.AllocationStatus.State,
				s.AllocationStatus.AllocationCount, s.AllocationStatus.TargetAllocationCount)
		}
		state := string(s.State)
		if state == "" {
			state = "-"
		}
		if len(s.NodeStats) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\t-\t-\n", s.ModelID, state, allocation)
			continue
		}
		for i, ns := range s.NodeStats {
			model := s.ModelID
			if i > 0 {
				model, state, allocation = "", "", ""
			}
			switch n := ns.(type) {
			case *types.LiveNodeStats:
				avg := "-"
				if n.AvgInferenceTimeMillis != nil {
					avg = strconv.FormatFloat(*n.AvgInferenceTimeMillis, 'f', 1, 64)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\tstarted\t%d\t%s\t%d\t%d\n",
					model, state, allocation, n.Node.ID, n.InferenceCount, avg, n.PendingCount, n.ErrorCount)
			case *types.NotStartedNodeStats:
				route := string(n.RoutingState)
				if n.Reason != "" {
					route = fmt.Sprintf("%s: %s", route, n.Reason)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t-\t-\t-\t-\n", model, state, allocation, n.Node.ID, route)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range resp.NodeFailures {
		fmt.Fprintf(w, "node failure: %s: %s\n", f.NodeID, f.Reason)
	}
	for _, f := range resp.TaskFailures {
		fmt.Fprintf(w, "task failure: %s/%s: %s\n", f.NodeID, f.ModelID, f.Reason)
	}
	fmt.Fprintf(w, "%d deployment(s)\n", resp.Count)
	return nil
}
