package lxc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is the default LXC container directory.
const DefaultPath = "/var/lib/lxc"

// Handle locates LXC containers on the local host through their on-disk
// layout: <path>/<name>/config and the rootfs it names.
type Handle struct {
	Path string
}

// NewHandle returns a Handle rooted at lxcPath, or DefaultPath when empty.
func NewHandle(lxcPath string) *Handle {
	if lxcPath == "" {
		lxcPath = DefaultPath
	}
	return &Handle{Path: lxcPath}
}

// Exists reports whether a container named name is defined.
func (h *Handle) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkName(name); err != nil {
		return false, err
	}

	info, err := os.Stat(h.configPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat container %q: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}

// PathInside returns the host path of path inside the container's rootfs.
func (h *Handle) PathInside(ctx context.Context, name, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}

	rootfs, err := h.Rootfs(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(rootfs, filepath.Clean("/"+path)), nil
}

// Rootfs returns the host path of the container's root filesystem, read
// from lxc.rootfs.path (or the older lxc.rootfs) in its config.
func (h *Handle) Rootfs(name string) (string, error) {
	cfg, err := ParseConfig(h.configPath(name))
	if err != nil {
		return "", fmt.Errorf("container %q: %w", name, err)
	}

	value := cfg["lxc.rootfs.path"]
	if value == "" {
		value = cfg["lxc.rootfs"]
	}
	if value == "" {
		return filepath.Join(h.Path, name, "rootfs"), nil
	}
	dir, err := rootfsDir(value)
	if err != nil {
		return "", fmt.Errorf("container %q: %w", name, err)
	}
	return dir, nil
}

func (h *Handle) configPath(name string) string {
	return filepath.Join(h.Path, name, "config")
}

// rootfsDir returns the host directory of a rootfs value. Directory
// backed values may carry a "dir:" prefix; overlay values
// ("overlay:lower:upper") resolve to the writable upper dir. Block device
// and pool backed stores have no host directory and are rejected.
func rootfsDir(value string) (string, error) {
	store, rest, ok := strings.Cut(value, ":")
	if !ok {
		return value, nil
	}
	switch store {
	case "dir", "btrfs":
		return rest, nil
	case "overlay", "overlayfs":
		parts := strings.Split(rest, ":")
		return parts[len(parts)-1], nil
	}
	return "", fmt.Errorf("unsupported rootfs backing store %q", store)
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid container name %q", name)
	}
	return nil
}

// ParseConfig reads the "key = value" lines of an LXC container config.
// Later keys override earlier ones.
func ParseConfig(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cfg[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}
