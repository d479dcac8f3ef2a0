package home

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDirName is the default name for the storyboard home directory.
	DefaultDirName = ".storyboard"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CallsDBName is the sqlite file holding the LLM call log.
	CallsDBName = "calls.db"

	// RunsDirName holds one output file per generation run.
	RunsDirName = "runs"

	// PromptsDirName holds prompt overrides, one <key>.tmpl per prompt.
	PromptsDirName = "prompts"
)

// Dir represents the storyboard home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.storyboard).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CallsDBPath returns the path to the call log database.
func (d *Dir) CallsDBPath() string {
	return filepath.Join(d.path, CallsDBName)
}

// RunsPath returns the directory for saved run output.
func (d *Dir) RunsPath() string {
	return filepath.Join(d.path, RunsDirName)
}

// RunPath returns the output path for a run, e.g. runs/20260102-150405-<id>.json.
func (d *Dir) RunPath(runID string, started time.Time, ext string) string {
	return filepath.Join(d.RunsPath(), fmt.Sprintf("%s-%s.%s", started.Format("20060102-150405"), runID, ext))
}

// PromptsPath returns the prompt override directory.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.RunsPath(), d.PromptsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
