// Command worker runs the distributed-lxc worker agent: it registers with
// a coordinator, heartbeats resource samples, and drives a local
// runtime.Driver to service deploy/start/stop/delete commands.
package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/ahmadhassan44/distributed-lxc/internal/obslog"
	"github.com/ahmadhassan44/distributed-lxc/internal/runtime"
	"github.com/ahmadhassan44/distributed-lxc/internal/workeragent"
	"github.com/ahmadhassan44/distributed-lxc/pkg/config"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "worker <coordinator_ip> <coordinator_port>",
	Short: "Run the distributed-lxc worker agent",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorker,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	obslog.Init(obslog.Config{Level: obslog.Level(logLevel), JSONOutput: logJSON})
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	cfg.CoordinatorAddr = net.JoinHostPort(args[0], args[1])

	driver, err := runtime.NewDockerDriver(cfg.MaxContainersPerWorker)
	if err != nil {
		return fmt.Errorf("worker: init runtime driver: %w", err)
	}

	agent := workeragent.New(cfg.CoordinatorAddr, driver, cfg.HeartbeatInterval)

	hostname, _ := os.Hostname()
	ctx := context.Background()
	if err := agent.Connect(ctx, hostname, localIP(), 0); err != nil {
		return err
	}

	agent.Run(ctx)
	return nil
}

// localIP returns the first non-loopback IPv4 address found on the host.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "127.0.0.1"
}
