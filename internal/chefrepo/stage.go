package chefrepo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// stage collects a bootstrap's files in a temporary directory under the
// destination and moves them into place only once every file is written.
// rollback undoes whatever a partial commit left behind.
type stage struct {
	dir string
	tmp string

	// Paths created in dir by this run, in creation order.
	created []string
}

func newStage(dir string) (*stage, error) {
	s := &stage{dir: dir}
	if err := s.mkdirAll(dir); err != nil {
		return nil, err
	}
	tmp, err := os.MkdirTemp(dir, ".chef-repo-stage-")
	if err != nil {
		s.rollback()
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	s.tmp = tmp
	return s, nil
}

// path returns where rel is written while staged.
func (s *stage) path(rel string) string {
	return filepath.Join(s.tmp, rel)
}

// commit moves the staged files to their final place under dir.
func (s *stage) commit(rels []string) error {
	for _, rel := range rels {
		dst := filepath.Join(s.dir, rel)
		if err := s.mkdirAll(filepath.Dir(dst)); err != nil {
			return err
		}
		_, statErr := os.Lstat(dst)
		if err := os.Rename(s.path(rel), dst); err != nil {
			return fmt.Errorf("move %s into place: %w", rel, err)
		}
		if errors.Is(statErr, fs.ErrNotExist) {
			s.created = append(s.created, dst)
		}
	}
	return nil
}

// cleanup removes the staging directory.
func (s *stage) cleanup() {
	if s.tmp != "" {
		os.RemoveAll(s.tmp)
		s.tmp = ""
	}
}

// rollback removes the staging directory and every path this run created,
// newest first. Directories that are no longer empty are left alone.
func (s *stage) rollback() {
	s.cleanup()
	for i := len(s.created) - 1; i >= 0; i-- {
		os.Remove(s.created[i])
	}
	s.created = nil
}

// mkdirAll is os.MkdirAll that remembers the directories it had to create.
func (s *stage) mkdirAll(dir string) error {
	var missing []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("mkdir %s: %w", missing[i], err)
		}
		s.created = append(s.created, missing[i])
	}
	return nil
}
