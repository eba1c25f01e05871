package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlCatalog is the document shape of a YAML catalog file.
type yamlCatalog struct {
	Verbs []VerbDecl `yaml:"verbs"`
}

// LoadYAML reads a YAML catalog file. Unknown fields are rejected.
func LoadYAML(path string) ([]VerbDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseYAML(data, path)
}

// ParseYAML decodes a YAML catalog document. source labels the
// declarations for defect reports.
func ParseYAML(data []byte, source string) ([]VerbDecl, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc yamlCatalog
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", source, err)
	}
	for i := range doc.Verbs {
		doc.Verbs[i].Source = fmt.Sprintf("%s#verbs[%d]", source, i)
	}
	return doc.Verbs, nil
}

// LoadDir reads every catalog source under dir: the CUE package if any
// .cue files exist, plus each .yaml/.yml file.
func LoadDir(dir string) ([]VerbDecl, error) {
	cueFiles, yamlFiles, err := findCatalogFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, fmt.Errorf("no catalog files found in %s", dir)
	}

	var decls []VerbDecl
	if len(cueFiles) > 0 {
		cueDecls, err := LoadCUE(dir)
		if err != nil {
			return nil, err
		}
		decls = append(decls, cueDecls...)
	}
	for _, path := range yamlFiles {
		yamlDecls, err := LoadYAML(path)
		if err != nil {
			return nil, err
		}
		decls = append(decls, yamlDecls...)
	}
	return decls, nil
}

// Open loads and compiles a catalog from files and directories.
func Open(paths ...string) (*Catalog, error) {
	if len(paths) == 0 {
		return nil, errors.New("no catalog paths given")
	}
	var decls []VerbDecl
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("catalog path: %w", err)
		}
		var loaded []VerbDecl
		switch {
		case info.IsDir():
			loaded, err = LoadDir(p)
		case filepath.Ext(p) == ".cue":
			loaded, err = LoadCUE(filepath.Dir(p))
		default:
			loaded, err = LoadYAML(p)
		}
		if err != nil {
			return nil, err
		}
		decls = append(decls, loaded...)
	}
	return Compile(decls)
}

// findCatalogFiles lists the .cue and .yaml/.yml files directly in dir,
// sorted. Subdirectories are not searched: the CUE package is the
// directory itself.
func findCatalogFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	sort.Strings(cueFiles)
	sort.Strings(yamlFiles)
	return cueFiles, yamlFiles, nil
}
