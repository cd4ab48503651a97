package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	// ClusterConfig is the path of the cluster definition YAML file.
	ClusterConfig string
	// LXCPath is the directory holding the cluster's LXC containers.
	LXCPath string
	// RepoDir is where the chef-repo and bootstrap-node script are written.
	RepoDir     string
	ClusterName string
	LogLevel    string
	LogFormat   string
}

func Load() (*Config, error) {
	cfg := &Config{
		ClusterConfig: getEnv("DEVLXC_CLUSTER_CONFIG", "dev-lxc.yml"),
		LXCPath:       getEnv("DEVLXC_LXC_PATH", "/var/lib/lxc"),
		RepoDir:       getEnv("DEVLXC_REPO_DIR", "."),
		ClusterName:   getEnv("DEVLXC_CLUSTER_NAME", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
	}

	return cfg, nil
}

// Validate checks that the settings a command needs are present. The
// "chef-repo" command additionally needs the LXC path and repo dir.
func (c *Config) Validate(command string) error {
	var missing []string
	if c.ClusterConfig == "" {
		missing = append(missing, "DEVLXC_CLUSTER_CONFIG")
	}
	if command == "chef-repo" {
		if c.LXCPath == "" {
			missing = append(missing, "DEVLXC_LXC_PATH")
		}
		if c.RepoDir == "" {
			missing = append(missing, "DEVLXC_REPO_DIR")
		}
	}

	var errs []string
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("missing required settings: %s", strings.Join(missing, ", ")))
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
