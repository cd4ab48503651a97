package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/edvin/devlxc/internal/chefrepo"
	"github.com/edvin/devlxc/internal/cluster"
	"github.com/edvin/devlxc/internal/config"
	"github.com/edvin/devlxc/internal/logging"
	"github.com/edvin/devlxc/internal/lxc"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "servers":
		fs := newFlagSet("servers", cfg)
		fs.Parse(os.Args[2:])
		exitOnError(cmdServers(cfg))

	case "chef-server-config":
		fs := newFlagSet("chef-server-config", cfg)
		fs.Parse(os.Args[2:])
		exitOnError(cmdServiceConfig(cfg, cluster.ServiceChefServer))

	case "analytics-config":
		fs := newFlagSet("analytics-config", cfg)
		fs.Parse(os.Args[2:])
		exitOnError(cmdServiceConfig(cfg, cluster.ServiceAnalytics))

	case "chef-repo":
		fs := newFlagSet("chef-repo", cfg)
		fs.StringVar(&cfg.LXCPath, "lxc-path", cfg.LXCPath, "LXC container directory")
		fs.StringVar(&cfg.RepoDir, "dir", cfg.RepoDir, "Directory to create the chef-repo in")
		fs.Parse(os.Args[2:])
		exitOnError(cmdChefRepo(cfg))

	case "validate":
		fs := newFlagSet("validate", cfg)
		fs.Parse(os.Args[2:])
		exitOnError(cmdValidate(cfg))

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newFlagSet(name string, cfg *config.Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&cfg.ClusterConfig, "f", cfg.ClusterConfig, "Path to the cluster config YAML file")
	return fs
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadCluster(cfg *config.Config, command string) (*cluster.Cluster, error) {
	if err := cfg.Validate(command); err != nil {
		return nil, err
	}
	clusterCfg, err := cluster.LoadConfig(cfg.ClusterConfig)
	if err != nil {
		return nil, err
	}
	return cluster.NewCluster(clusterCfg)
}

func cmdServers(cfg *config.Config) error {
	c, err := loadCluster(cfg, "servers")
	if err != nil {
		return err
	}
	for _, s := range c.Servers() {
		ip := s.Attributes().IPAddress()
		if ip == "" {
			ip = "-"
		}
		fmt.Printf("%-24s %-12s %s\n", s.Name, s.Service, ip)
	}
	return nil
}

func cmdServiceConfig(cfg *config.Config, kind cluster.ServiceKind) error {
	c, err := loadCluster(cfg, string(kind)+"-config")
	if err != nil {
		return err
	}
	out, err := c.ServiceConfig(kind)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func cmdChefRepo(cfg *config.Config) error {
	c, err := loadCluster(cfg, "chef-repo")
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := chefrepo.New(c, lxc.NewHandle(cfg.LXCPath), logger)
	res, err := b.Bootstrap(ctx, cfg.RepoDir)
	if err != nil {
		return err
	}

	logFiles(logger, res)
	return nil
}

func logFiles(logger zerolog.Logger, res *chefrepo.Result) {
	for _, f := range res.Files {
		logger.Info().Str("dir", res.Dir).Str("file", f).Msg("wrote")
	}
}

func cmdValidate(cfg *config.Config) error {
	if err := cfg.Validate("validate"); err != nil {
		return err
	}
	clusterCfg, err := cluster.LoadConfig(cfg.ClusterConfig)
	if err != nil {
		return err
	}

	errs := cluster.Validate(clusterCfg)
	if len(errs) == 0 {
		fmt.Printf("%s: ok\n", cfg.ClusterConfig)
		return nil
	}
	for _, e := range errs {
		fmt.Printf("%s: %s\n", cfg.ClusterConfig, e)
	}
	return fmt.Errorf("%d problem(s) found", len(errs))
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  dev-lxc servers [-f dev-lxc.yml]
  dev-lxc chef-server-config [-f dev-lxc.yml]
  dev-lxc analytics-config [-f dev-lxc.yml]
  dev-lxc chef-repo [-f dev-lxc.yml] [-lxc-path DIR] [-dir DIR]
  dev-lxc validate [-f dev-lxc.yml]

Commands:
  servers              List the cluster's servers in bring-up order
  chef-server-config   Print the chef-server.rb for the cluster
  analytics-config     Print the opscode-analytics.rb for the cluster
  chef-repo            Create ./chef-repo with knife.rb and pem files, and ./bootstrap-node
  validate             Check the cluster config for problems

Environment:
  DEVLXC_CLUSTER_CONFIG  Cluster config path (default: dev-lxc.yml)
  DEVLXC_LXC_PATH        LXC container directory (default: /var/lib/lxc)
  DEVLXC_REPO_DIR        Directory for chef-repo (default: .)
  DEVLXC_CLUSTER_NAME    Value of the "cluster" log field (default: unset)
  LOG_LEVEL, LOG_FORMAT  Logging (default: info, console)`)
}
