package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any env vars that might interfere with defaults.
	os.Unsetenv("DEVLXC_CLUSTER_CONFIG")
	os.Unsetenv("DEVLXC_LXC_PATH")
	os.Unsetenv("DEVLXC_REPO_DIR")
	os.Unsetenv("DEVLXC_CLUSTER_NAME")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("LOG_FORMAT")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "dev-lxc.yml", cfg.ClusterConfig)
	assert.Equal(t, "/var/lib/lxc", cfg.LXCPath)
	assert.Equal(t, ".", cfg.RepoDir)
	assert.Equal(t, "", cfg.ClusterName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("DEVLXC_CLUSTER_CONFIG", "/etc/dev-lxc/tier.yml")
	t.Setenv("DEVLXC_LXC_PATH", "/srv/lxc")
	t.Setenv("DEVLXC_REPO_DIR", "/home/rd/work")
	t.Setenv("DEVLXC_CLUSTER_NAME", "tier")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/dev-lxc/tier.yml", cfg.ClusterConfig)
	assert.Equal(t, "/srv/lxc", cfg.LXCPath)
	assert.Equal(t, "/home/rd/work", cfg.RepoDir)
	assert.Equal(t, "tier", cfg.ClusterName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate_ChefRepo_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("chef-repo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEVLXC_CLUSTER_CONFIG")
	assert.Contains(t, err.Error(), "DEVLXC_LXC_PATH")
	assert.Contains(t, err.Error(), "DEVLXC_REPO_DIR")
}

func TestValidate_Servers_OnlyNeedsClusterConfig(t *testing.T) {
	cfg := &Config{ClusterConfig: "dev-lxc.yml"}
	assert.NoError(t, cfg.Validate("servers"))

	err := (&Config{}).Validate("servers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEVLXC_CLUSTER_CONFIG")
	assert.NotContains(t, err.Error(), "DEVLXC_LXC_PATH")
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := &Config{ClusterConfig: "dev-lxc.yml", LogFormat: "xml"}
	err := cfg.Validate("servers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := &Config{
		ClusterConfig: "dev-lxc.yml",
		LXCPath:       "/var/lib/lxc",
		RepoDir:       ".",
		LogFormat:     "json",
	}

	assert.NoError(t, cfg.Validate("chef-repo"))
	assert.NoError(t, cfg.Validate("servers"))
}
