// Command coordinator runs the distributed-lxc coordinator: it accepts
// worker registrations over TCP, places and tracks containers, and serves
// an operator REPL plus a /metrics and /healthz HTTP endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/ahmadhassan44/distributed-lxc/internal/coordinatorsrv"
	"github.com/ahmadhassan44/distributed-lxc/internal/obslog"
	"github.com/ahmadhassan44/distributed-lxc/pkg/config"
	"github.com/spf13/cobra"
)

var (
	port        int
	metricsPort int
	logLevel    string
	logJSON     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Run the distributed-lxc coordinator",
	RunE:  runCoordinator,
}

func init() {
	rootCmd.Flags().IntVar(&port, "port", 0, "TCP port to listen on for worker connections (default from COORDINATOR_PORT env or 8888)")
	rootCmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "HTTP port for /metrics and /healthz (default from METRICS_PORT env or 9090)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	obslog.Init(obslog.Config{Level: obslog.Level(logLevel), JSONOutput: logJSON})
}

func runCoordinator(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if port != 0 {
		cfg.CoordinatorPort = port
	}
	if metricsPort != 0 {
		cfg.MetricsPort = metricsPort
	}

	coordinator := coordinatorsrv.New(cfg)

	go func() {
		if err := coordinator.Serve(); err != nil {
			fmt.Fprintf(os.Stderr, "coordinator: TCP server stopped: %v\n", err)
		}
	}()

	httpServer := coordinatorsrv.NewHTTPServer(coordinator, cfg.MetricsPort)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			fmt.Fprintf(os.Stderr, "coordinator: HTTP server stopped: %v\n", err)
		}
	}()

	repl := coordinatorsrv.NewREPL(coordinator, os.Stdin, os.Stdout)
	repl.Run()

	return coordinator.Close()
}
