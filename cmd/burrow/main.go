package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cuemby/burrow/pkg/client"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - deployment statistics for model inference clusters",
	Long: `Burrow keeps the assignment metadata of model deployments in a
Raft-replicated store and answers deployment stats requests by fanning
out to the worker nodes that run them.

Nodes that cannot answer are filled in from the routing table, so every
deployment with a route is reported even when part of the cluster is down.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOutput, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{
			Level:      log.ParseLevel(level),
			JSONOutput: jsonOutput,
			Output:     os.Stderr,
		})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Burrow version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(managerCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(assignmentCmd)
}

// Node commands
var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect and remove cluster nodes",
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		nodes, err := c.ListNodes()
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE\tADDRESS\tSTATUS\tLAST HEARTBEAT")
		for _, n := range nodes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				n.ID, n.Name, n.Role, n.Address, n.Status, n.LastHeartbeat.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "remove NODE_ID",
	Short: "Remove a node from the cluster",
	Long: `Remove a node from the node directory. A manager is also removed from
the Raft configuration; the manager serving the request cannot remove
itself. A worker that is still running registers again on its next
heartbeat.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.RemoveNode(args[0])
		if err != nil {
			return fmt.Errorf("failed to remove node: %w", err)
		}
		if resp.VoterRemoved {
			fmt.Printf("✓ Manager removed from Raft: %s\n", args[0])
		}
		if resp.NodeRemoved {
			fmt.Printf("✓ Node removed: %s\n", args[0])
		}
		return nil
	},
}

// Assignment commands
var assignmentCmd = &cobra.Command{
	Use:     "assignment",
	Aliases: []string{"assignments"},
	Short:   "Manage deployment assignments",
}

var assignmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		assignments, err := c.ListAssignments()
		if err != nil {
			return fmt.Errorf("failed to list assignments: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tSTATE\tALLOCATIONS\tTHREADS\tROUTES\tSTARTED")
		for _, a := range assignments {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				a.ModelID(), a.State, a.TaskParams.NumberOfAllocations, a.TaskParams.ThreadsPerAllocation,
				len(a.RoutingTable), a.StartTime.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var assignmentDeleteCmd = &cobra.Command{
	Use:   "delete MODEL_ID",
	Short: "Delete the assignment of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.DeleteAssignment(args[0]); err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}
		fmt.Printf("✓ Assignment deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{nodeListCmd, nodeRemoveCmd, assignmentListCmd, assignmentDeleteCmd} {
		addManagerFlag(cmd)
	}
	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeRemoveCmd)
	assignmentCmd.AddCommand(assignmentListCmd)
	assignmentCmd.AddCommand(assignmentDeleteCmd)
}

func addManagerFlag(cmd *cobra.Command) {
	cmd.Flags().String("manager", "127.0.0.1:8080", "Manager API address")
}

func connect(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("manager")
	c, err := client.NewClient(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to manager: %w", err)
	}
	return c, nil
}
