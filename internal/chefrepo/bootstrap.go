package chefrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/edvin/devlxc/internal/cluster"
)

var ErrServerNotFound = errors.New("server does not exist")

// ServerHandle is the access the bootstrapper needs to the machines backing
// a cluster.
type ServerHandle interface {
	// Exists reports whether the named machine has been created.
	Exists(ctx context.Context, name string) (bool, error)
	// PathInside maps a path inside the named machine to a path on the host.
	PathInside(ctx context.Context, name, path string) (string, error)
}

// Result describes the files a bootstrap wrote, relative to its directory.
type Result struct {
	Dir        string   `json:"dir"`
	Files      []string `json:"files"`
	CopiedKeys []string `json:"copied_keys"`
}

// Bootstrapper creates a chef-repo wired to a cluster's chef-server.
type Bootstrapper struct {
	cluster *cluster.Cluster
	handle  ServerHandle
	logger  zerolog.Logger
}

// New creates a Bootstrapper for c, using handle to reach its servers.
func New(c *cluster.Cluster, handle ServerHandle, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		cluster: c,
		handle:  handle,
		logger:  logger.With().Str("component", "chefrepo").Logger(),
	}
}

// Bootstrap writes chef-repo/.chef/knife.rb, the backend's pem files and the
// bootstrap-node script under dir. Preconditions are checked before the
// first write and files are staged until all of them are written, so a
// failed bootstrap leaves nothing behind.
func (b *Bootstrapper) Bootstrap(ctx context.Context, dir string) (*Result, error) {
	svc, err := b.cluster.Service(cluster.ServiceChefServer)
	if err != nil {
		return nil, err
	}
	if !svc.HasBootstrapBackend() {
		return nil, fmt.Errorf("%w: please define it first", cluster.ErrNoBootstrapBackend)
	}
	backend := svc.BootstrapBackend

	exists, err := b.handle.Exists(ctx, backend)
	if err != nil {
		return nil, fmt.Errorf("check server %q: %w", backend, err)
	}
	if !exists {
		return nil, fmt.Errorf("chef-server %q: %w, please create it first", backend, ErrServerNotFound)
	}

	artifacts, err := b.cluster.RenderRepo()
	if err != nil {
		return nil, err
	}

	remoteDir, err := b.handle.PathInside(ctx, backend, cluster.RemoteDotChefDir)
	if err != nil {
		return nil, fmt.Errorf("locate %s in %q: %w", cluster.RemoteDotChefDir, backend, err)
	}
	keys, err := filepath.Glob(filepath.Join(remoteDir, "*.pem"))
	if err != nil {
		return nil, fmt.Errorf("list pem files in %q: %w", backend, err)
	}

	b.logger.Info().Str("dir", dir).Str("backend", backend).Msg("creating chef-repo with pem files and knife.rb")

	st, err := newStage(dir)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			st.rollback()
		}
	}()

	result := &Result{Dir: dir}

	if err := os.MkdirAll(st.path(cluster.RepoDotChefDir), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", cluster.RepoDotChefDir, err)
	}

	if len(keys) == 0 {
		b.logger.Warn().
			Str("server", backend).
			Str("path", cluster.RemoteDotChefDir).
			Msg("pem files can not be copied because they do not exist on the chef-server")
	}
	for _, src := range keys {
		name := filepath.Base(src)
		rel := filepath.Join(cluster.RepoDotChefDir, name)
		if err := copyFile(src, st.path(rel)); err != nil {
			return nil, fmt.Errorf("copy %s: %w", name, err)
		}
		b.checkKey(src)
		result.CopiedKeys = append(result.CopiedKeys, rel)
		result.Files = append(result.Files, rel)
	}

	if err := writeFile(st.path(cluster.RepoKnifeConfig), artifacts.KnifeConfig, 0o644); err != nil {
		return nil, err
	}
	result.Files = append(result.Files, cluster.RepoKnifeConfig)

	script := st.path(cluster.RepoBootstrapScript)
	if err := writeFile(script, artifacts.BootstrapScript, 0o644); err != nil {
		return nil, err
	}
	if err := chmodUserExec(script); err != nil {
		return nil, err
	}
	result.Files = append(result.Files, cluster.RepoBootstrapScript)

	if err := st.commit(result.Files); err != nil {
		return nil, err
	}
	committed = true
	st.cleanup()

	return result, nil
}

// checkKey logs a warning when a copied pem file is not a usable private
// key. knife only finds out at request time otherwise.
func (b *Bootstrapper) checkKey(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Warn().Err(err).Str("key", filepath.Base(path)).Msg("could not read copied key")
		return
	}
	if _, err := ssh.ParseRawPrivateKey(data); err != nil {
		b.logger.Warn().Err(err).Str("key", filepath.Base(path)).Msg("copied pem file is not a usable private key")
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeFile(path, content string, perm os.FileMode) error {
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// chmodUserExec is chmod u+x.
func chmodUserExec(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.Chmod(path, info.Mode().Perm()|0o100); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}
