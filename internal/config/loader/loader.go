// Package loader reads configuration sources into generic maps.
//
// Each source (a TOML file, the environment) yields a nested
// map[string]any keyed by section and setting name. Maps are combined
// with DeepMerge, later sources winning.
package loader

import (
	"io/fs"
	"os"
)

// Loader reads configuration from one source.
type Loader interface {
	// Load returns the settings found, or nil, nil when the source does
	// not exist.
	Load() (map[string]any, error)
}

// FileSystem abstracts file access so loaders can be tested without
// touching disk.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem on the real file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}

// DeepMerge merges src into dst and returns dst. Values in src win;
// nested maps are merged recursively.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}
