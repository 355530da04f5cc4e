package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadCatalog loads and compiles a CUE catalog from a directory or a single
// .cue file.
//
// A directory is loaded as one CUE package, so a catalog may be split over
// several files (filters in one, models in another). Load and build
// failures are returned as *CompileError when CUE reports a position.
func LoadCatalog(path string) (*CatalogDef, error) {
	value, err := LoadValue(path)
	if err != nil {
		return nil, err
	}
	return CompileCatalog(value)
}

// LoadValue loads the CUE value at path without compiling it.
func LoadValue(path string) (cue.Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("catalog not found: %w", err)
	}

	ctx := cuecontext.New()

	if !info.IsDir() {
		if filepath.Ext(path) != ".cue" {
			return cue.Value{}, fmt.Errorf("not a CUE file: %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("reading %s: %w", path, err)
		}
		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		return value, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("scanning %s: %w", path, err)
	}
	if len(files) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE files found in %s", path)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
