package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/burrow/pkg/api"
	"github.com/cuemby/burrow/pkg/deployment"
	"github.com/cuemby/burrow/pkg/dispatch"
	"github.com/cuemby/burrow/pkg/executor"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/manager"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/reconciler"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/spf13/cobra"
)

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Run a Burrow manager",
	Long: `Run a Burrow manager. Without --join the manager bootstraps a new
single-node cluster; with --join it asks the existing leader to add it as
a Raft voter.

The manager serves the gRPC API, the deployment stats service and an HTTP
listener with /health, /ready and /metrics.`,
	RunE: runManager,
}

func init() {
	managerCmd.Flags().String("node-id", "manager-1", "Unique node ID")
	managerCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Address for Raft communication")
	managerCmd.Flags().String("api-addr", "127.0.0.1:8080", "Address for the gRPC API")
	managerCmd.Flags().String("read-only-addr", "", "Optional address for a read-only gRPC API")
	managerCmd.Flags().String("health-addr", "127.0.0.1:9100", "Address for health and metrics endpoints")
	managerCmd.Flags().String("data-dir", "./burrow-data", "Data directory for cluster state")
	managerCmd.Flags().String("join", "", "API address of an existing manager to join")
	managerCmd.Flags().String("token", "", "Manager join token, required with --join")
	managerCmd.Flags().Int("management-threads", executor.DefaultManagementSize(), "Concurrent deployment stats requests")
	managerCmd.Flags().Duration("heartbeat-timeout", reconciler.DefaultHeartbeatTimeout, "Mark a worker down after this long without a heartbeat")
	managerCmd.Flags().Duration("node-timeout", dispatch.DefaultNodeTimeout, "Timeout for a single node stats query")
	managerCmd.Flags().Int("fanout-concurrency", dispatch.DefaultMaxConcurrency, "Nodes queried concurrently per request")
	managerCmd.Flags().Int("conn-cache-size", dispatch.DefaultConnCacheSize, "Node connections kept open")
}

func runManager(cmd *cobra.Command, args []string) error {
	nodeID, _ := cmd.Flags().GetString("node-id")
	bindAddr, _ := cmd.Flags().GetString("bind-addr")
	apiAddr, _ := cmd.Flags().GetString("api-addr")
	readOnlyAddr, _ := cmd.Flags().GetString("read-only-addr")
	healthAddr, _ := cmd.Flags().GetString("health-addr")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	joinAddr, _ := cmd.Flags().GetString("join")
	token, _ := cmd.Flags().GetString("token")
	threads, _ := cmd.Flags().GetInt("management-threads")
	nodeTimeout, _ := cmd.Flags().GetDuration("node-timeout")
	heartbeatTimeout, _ := cmd.Flags().GetDuration("heartbeat-timeout")
	fanout, _ := cmd.Flags().GetInt("fanout-concurrency")
	cacheSize, _ := cmd.Flags().GetInt("conn-cache-size")

	logger := log.WithComponent("cli")
	logger.Info().
		Str("node_id", nodeID).
		Str("raft_addr", bindAddr).
		Str("api_addr", apiAddr).
		Str("data_dir", dataDir).
		Msg("Starting manager")

	api.Version = Version
	metrics.SetVersion(Version)

	mgr, err := manager.NewManager(&manager.Config{
		NodeID:   nodeID,
		BindAddr: bindAddr,
		DataDir:  dataDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}

	if joinAddr == "" {
		err = mgr.Bootstrap()
	} else {
		if token == "" {
			return fmt.Errorf("--token is required with --join")
		}
		err = mgr.Join(joinAddr, token)
	}
	if err != nil {
		return fmt.Errorf("failed to start raft: %w", err)
	}
	metrics.RegisterComponent("raft", true, "raft started")
	metrics.RegisterComponent("storage", true, "bolt store open")

	connector, err := dispatch.NewGRPCConnector(cacheSize)
	if err != nil {
		return err
	}
	dispatcher := dispatch.NewDispatcher(dispatch.Config{
		MaxConcurrency: fanout,
		NodeTimeout:    nodeTimeout,
	}, connector)

	statsService := deployment.NewService(deployment.Config{
		Metadata:   mgr,
		Dispatcher: dispatcher,
		Pool:       executor.NewPool(executor.Management, threads),
		Events:     mgr.GetEventBroker(),
	})

	collector := manager.NewMetricsCollector(mgr)
	collector.Start()

	liveness := reconciler.NewReconciler(mgr, reconciler.Config{HeartbeatTimeout: heartbeatTimeout})
	liveness.Start()

	errCh := make(chan error, 3)

	apiServer := api.NewServer(mgr, statsService)
	lis, err := net.Listen("tcp", apiAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", apiAddr, err)
	}
	go func() {
		if err := apiServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("API server error: %w", err)
		}
	}()
	metrics.RegisterComponent("api", true, fmt.Sprintf("listening on %s", apiAddr))

	var readOnlyServer *api.Server
	if readOnlyAddr != "" {
		readOnlyServer = api.NewServer(mgr, statsService, api.WithReadOnly())
		go func() {
			if err := readOnlyServer.Start(readOnlyAddr); err != nil {
				errCh <- fmt.Errorf("read-only API server error: %w", err)
			}
		}()
	}

	healthServer := api.NewHealthServer(mgr)
	go func() {
		if err := healthServer.Start(healthAddr); err != nil {
			errCh <- fmt.Errorf("health server error: %w", err)
		}
	}()

	if joinAddr == "" {
		if err := issueJoinTokens(mgr); err != nil {
			logger.Warn().Err(err).Msg("Failed to issue join tokens")
		}
	}

	logger.Info().Msg("Manager is running. Press Ctrl+C to stop.")

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

	apiServer.Stop()
	if readOnlyServer != nil {
		readOnlyServer.Stop()
	}
	_ = healthServer.Shutdown(ctx)
	liveness.Stop()
	collector.Stop()
	_ = dispatcher.Close()
	if err := mgr.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

// issueJoinTokens waits for leadership and logs one token per role
func issueJoinTokens(mgr *manager.Manager) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := mgr.WaitForLeader(ctx); err != nil {
		return err
	}

	logger := log.WithComponent("cli")
	for _, role := range []types.NodeRole{types.NodeRoleWorker, types.NodeRoleManager} {
		token, err := mgr.GenerateJoinToken(string(role))
		if err != nil {
			return err
		}
		logger.Info().
			Str("role", string(role)).
			Str("token", token.Token).
			Time("expires_at", token.ExpiresAt).
			Msg("Join token issued")
	}
	return nil
}
