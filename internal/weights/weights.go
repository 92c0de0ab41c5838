// Package weights loads the static coefficients used by the scoring
// engine to combine feature values into a single rank.
package weights

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Weights is the record of eight floating-point coefficients combined
// linearly by the scoring engine into a rank. It is loaded once per
// process; there is no hot-reload path, by design (see DESIGN.md).
type Weights struct {
	Offset           float64 `yaml:"offset"`
	Age              float64 `yaml:"age"`
	Exit             float64 `yaml:"exit"`
	RecentFailure    float64 `yaml:"recent_failure"`
	Dir              float64 `yaml:"dir"`
	Overlap          float64 `yaml:"overlap"`
	ImmediateOverlap float64 `yaml:"immediate_overlap"`
	Occurrences      float64 `yaml:"occurrences"`
}

// Default returns the built-in weight profile, tuned so that
// short-range overlap outweighs raw frequency; directory affinity is
// weighted the same as frequency.
func Default() Weights {
	return Weights{
		Offset:           0,
		Age:              -0.6,
		Exit:             0.1,
		RecentFailure:    -1.5,
		Dir:              1.0,
		Overlap:          2.0,
		ImmediateOverlap: 3.0,
		Occurrences:      1.0,
	}
}

// DefaultPath returns the default weights file location
// (~/.mcfly/weights.yaml). The file need not exist; Load treats a
// missing file as Default().
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mcfly", "weights.yaml"), nil
}

// Load reads a weights record from a YAML file at path. A missing file
// is not an error: it yields Default(). A present-but-malformed file
// is an error, since it indicates the operator's intended configuration
// could not be honored.
func Load(path string) (Weights, error) {
	w := Default()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return w, nil
		}
		return Weights{}, fmt.Errorf("read weights file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse weights file %q: %w", path, err)
	}

	return w, nil
}
