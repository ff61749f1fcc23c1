package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates an application's per-user state outside its configuration:
// logs and other files that may be deleted at any time.
type Paths struct {
	// Dir is the application state directory.
	Dir string
}

// NewPaths returns the paths for app under os.UserCacheDir().
func NewPaths(app string) (*Paths, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return &Paths{Dir: filepath.Join(base, app)}, nil
}

// LogDir returns the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.Dir, "logs")
}

// LogPath returns a file path within the log directory.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogDir(), name)
}

// EnsureLogDir creates the log directory if it does not exist.
func (p *Paths) EnsureLogDir() error {
	return os.MkdirAll(p.LogDir(), 0o755)
}
