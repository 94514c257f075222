// Package dotdir resolves the .docqa/ directory holding config.toml and,
// unless configured elsewhere, the indexed documents.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory docqa looks for.
const Name = ".docqa"

// Manager resolves the .docqa/ directory for a process.
type Manager struct {
	getwd   func() (string, error)
	homeDir func() (string, error)
}

func NewManager() *Manager {
	return &Manager{getwd: os.Getwd, homeDir: os.UserHomeDir}
}

// Target returns the absolute .docqa/ directory to use, creating it if it
// does not exist yet. An override wins. Otherwise the nearest .docqa/ in the
// working directory or one of its parents is used, falling back to
// ~/.docqa/.
func (m *Manager) Target(override string) (string, error) {
	dir := override
	if dir == "" {
		var err error
		if dir, err = m.discover(); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating docqa directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func (m *Manager) discover() (string, error) {
	if cwd, err := m.getwd(); err == nil {
		if found, ok := Find(cwd); ok {
			return found, nil
		}
	}

	home, err := m.homeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, Name), nil
}

// Find walks from start toward the filesystem root and returns the first
// .docqa/ directory it meets.
func Find(start string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		candidate := filepath.Join(dir, Name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
