package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/point-planner/internal/planner"
)

// LoadParamsFile overlays the planning parameters in path onto base. Keys
// missing from the file keep base's values; unknown keys are rejected. The
// format follows the extension: .yaml/.yml or .toml.
func LoadParamsFile(path string, base planner.Config) (planner.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return planner.Config{}, err
	}
	cfg := base
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return planner.Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return planner.Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return planner.Config{}, fmt.Errorf("parse %s: unknown keys %v", path, undecoded)
		}
	default:
		return planner.Config{}, fmt.Errorf("unsupported params file extension %q", ext)
	}
	return cfg, nil
}
