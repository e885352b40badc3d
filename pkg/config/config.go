package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
)

// Config holds the coordinator and worker agent's tunables, read from the
// environment.
type Config struct {
	// TCP port the coordinator listens on for worker connections.
	CoordinatorPort int

	// HTTP port the coordinator serves /metrics and /healthz on.
	MetricsPort int

	// Maximum number of worker nodes the registry will accept.
	MaxWorkers int

	// How often the reaper sweeps the registry for stale heartbeats.
	ReaperInterval time.Duration

	// How old a worker's last heartbeat may be before the reaper
	// disconnects it.
	HeartbeatTimeout time.Duration

	// How often the worker agent samples resources and sends a heartbeat.
	HeartbeatInterval time.Duration

	// How long the coordinator waits for a DEPLOY_CONTAINER to be
	// acknowledged before giving up on it.
	DeployAckTimeout time.Duration

	// Address the worker agent dials to reach the coordinator.
	CoordinatorAddr string

	// Upper bound on containers a single worker may host.
	MaxContainersPerWorker int
}

// LoadConfig reads configuration from environment variables with sensible
// defaults.
func LoadConfig() *Config {
	return &Config{
		CoordinatorPort:        getEnvAsInt("COORDINATOR_PORT", protocol.DefaultPort),
		MetricsPort:            getEnvAsInt("METRICS_PORT", 9090),
		MaxWorkers:             getEnvAsInt("MAX_WORKERS", 256),
		ReaperInterval:         getEnvAsDuration("REAPER_INTERVAL", 5*time.Second),
		HeartbeatTimeout:       getEnvAsDuration("HEARTBEAT_TIMEOUT", 30*time.Second),
		HeartbeatInterval:      getEnvAsDuration("HEARTBEAT_INTERVAL", 10*time.Second),
		DeployAckTimeout:       getEnvAsDuration("DEPLOY_ACK_TIMEOUT", 60*time.Second),
		CoordinatorAddr:        getEnvAsString("COORDINATOR_ADDR", fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort)),
		MaxContainersPerWorker: getEnvAsInt("MAX_CONTAINERS_PER_WORKER", 32),
	}
}

func getEnvAsString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
