// pkg/settings/settings.go

// Package settings reads and writes the JSON sidecar embedded in every
// snapshot. The sidecar makes an archive self-describing: the restore side
// recovers the source address, credentials and run metadata from it.
package settings

import (
	"encoding/json"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/morselabs/wpsnap/pkg/snap_err"
)

// FileName is the sidecar's name inside the archive root.
const FileName = "settings.json"

// GitRepo declares a repository cloned into the restored tree.
type GitRepo struct {
	// Location is the clone path relative to the site root.
	Location string `json:"location"`
	Repo     string `json:"repo"`
	Version  string `json:"version"`
}

// Settings is the sidecar document. Args echoes the snapshot invocation;
// WPConfig carries the recovered credentials. Owner, Git and SetupQueries
// drive optional restore post-steps and usually arrive via a patch file.
type Settings struct {
	RunID    string            `json:"run_id"`
	Time     string            `json:"time"`
	Args     map[string]any    `json:"args"`
	WPConfig map[string]string `json:"wp_config"`

	Owner        string    `json:"owner,omitempty"`
	Git          []GitRepo `json:"git,omitempty"`
	SetupQueries []string  `json:"setup_queries,omitempty"`
}

// Source returns the snapshotted site's address as recorded at snapshot
// time.
func (s *Settings) Source() (string, error) {
	src, ok := s.Args["source"].(string)
	if !ok || src == "" {
		return "", cerr.New("settings are incomplete: missing args.source")
	}
	return src, nil
}

// Write serializes the sidecar to path.
func Write(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return cerr.Wrap(err, "encoding settings")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return snap_err.NewIoError("writing settings", path, err)
	}
	return nil
}

// Read loads the sidecar from path.
func Read(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		return s, snap_err.NewIoError("reading settings", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, cerr.Wrap(err, "settings sidecar is not valid JSON")
	}
	return s, nil
}

// ApplyPatch overlays a patch file onto the sidecar, altering the restore.
// Patch fields replace sidecar fields wholesale. An empty path is a no-op.
func ApplyPatch(s Settings, patchPath string) (Settings, error) {
	if patchPath == "" {
		return s, nil
	}
	data, err := os.ReadFile(patchPath)
	if err != nil {
		return s, snap_err.NewIoError("reading patch", patchPath, err)
	}

	var patch struct {
		Owner        *string            `json:"owner"`
		Git          *[]GitRepo         `json:"git"`
		SetupQueries *[]string          `json:"setup_queries"`
		WPConfig     *map[string]string `json:"wp_config"`
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return s, cerr.Wrap(err, "patch file is not valid JSON")
	}

	if patch.Owner != nil {
		s.Owner = *patch.Owner
	}
	if patch.Git != nil {
		s.Git = *patch.Git
	}
	if patch.SetupQueries != nil {
		s.SetupQueries = *patch.SetupQueries
	}
	if patch.WPConfig != nil {
		s.WPConfig = *patch.WPConfig
	}
	return s, nil
}
