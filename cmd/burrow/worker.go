package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/worker"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a Burrow worker",
	Long: `Run a Burrow worker. The worker hosts the deployment tasks listed in
--tasks, serves node stats to managers and registers with the manager
given by --manager.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().String("node-id", "", "Unique node ID (required)")
	workerCmd.Flags().String("name", "", "Node name (default: hostname)")
	workerCmd.Flags().String("manager", "127.0.0.1:8080", "Manager API address")
	workerCmd.Flags().String("listen-addr", "0.0.0.0:9090", "Address for the node stats gRPC service")
	workerCmd.Flags().String("advertise-addr", "", "Address managers use to reach this node (default: listen address)")
	workerCmd.Flags().String("health-addr", "127.0.0.1:9101", "Address for health and metrics endpoints")
	workerCmd.Flags().String("token", "", "Worker join token (required)")
	workerCmd.Flags().String("tasks", "", "YAML file of local deployment tasks")
	workerCmd.Flags().StringToString("label", nil, "Node labels (key=value)")
	_ = workerCmd.MarkFlagRequired("node-id")
	_ = workerCmd.MarkFlagRequired("token")
}

func runWorker(cmd *cobra.Command, args []string) error {
	nodeID, _ := cmd.Flags().GetString("node-id")
	name, _ := cmd.Flags().GetString("name")
	managerAddr, _ := cmd.Flags().GetString("manager")
	listenAddr, _ := cmd.Flags().GetString("listen-addr")
	advertiseAddr, _ := cmd.Flags().GetString("advertise-addr")
	healthAddr, _ := cmd.Flags().GetString("health-addr")
	token, _ := cmd.Flags().GetString("token")
	tasksFile, _ := cmd.Flags().GetString("tasks")
	labels, _ := cmd.Flags().GetStringToString("label")

	logger := log.WithComponent("cli")

	var tasks []worker.TaskSpec
	if tasksFile != "" {
		var err error
		tasks, err = worker.LoadTaskFile(tasksFile)
		if err != nil {
			return err
		}
	}

	metrics.SetVersion(Version)
	metrics.SetCriticalComponents("api", "manager")

	w, err := worker.NewWorker(&worker.Config{
		NodeID:        nodeID,
		Name:          name,
		ManagerAddr:   managerAddr,
		ListenAddr:    listenAddr,
		AdvertiseAddr: advertiseAddr,
		JoinToken:     token,
		Labels:        labels,
		Tasks:         tasks,
	})
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())
	healthServer := &http.Server{
		Addr:              healthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("health server error: %w", err)
		}
	}()

	logger.Info().
		Str("node_id", nodeID).
		Str("manager", managerAddr).
		Int("tasks", len(tasks)).
		Msg("Worker is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("Shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("Server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = healthServer.Shutdown(ctx)

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop worker: %w", err)
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}
