package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/wdym/internal/source"
	"go.yaml.in/yaml/v3"
)

// Adapter implements the Source interface for a YAML catalog file.
type Adapter struct {
	path string
}

// NewAdapter creates a new catalog adapter.
// Parameters:
//   - path: path to the catalog YAML file.
// Returns:
//   - *Adapter: initialized catalog adapter.
func NewAdapter(path string) *Adapter {
	return &Adapter{path: path}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "catalog:" + filepath.Base(a.path)
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Catalog (%s)", a.path)
}

// Load reads and parses the catalog. Relative image paths are resolved
// against the catalog's directory.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *source.Catalog: parsed catalog.
//   - error: non-nil if the file is missing or malformed.
func (a *Adapter) Load(ctx context.Context) (*source.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cat source.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", a.path, err)
	}

	baseDir := filepath.Dir(a.path)
	for i := range cat.Memes {
		file := cat.Memes[i].File
		if file != "" && !filepath.IsAbs(file) {
			cat.Memes[i].File = filepath.Join(baseDir, file)
		}
	}

	return &cat, nil
}
