package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"quill/internal/diag"
	"quill/internal/driver"
	"quill/internal/source"
)

const noQuillTomlMessage = "no quill.toml found\nplease list snapshot files explicitly, e.g.:\n  quill vet path/to/prog.qpk"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package  packageConfig  `toml:"package"`
	Programs programsConfig `toml:"programs"`
}

type packageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type programsConfig struct {
	Paths []string `toml:"paths"`
}

func findQuillToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "quill.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findQuillToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	return cfg, nil
}

// programPaths resolves the manifest's [programs] entries against the
// manifest directory. Blank entries are dropped.
func (m *projectManifest) programPaths() []string {
	paths := make([]string, 0, len(m.Config.Programs.Paths))
	for _, p := range m.Config.Programs.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.Root, filepath.FromSlash(p))
		}
		paths = append(paths, p)
	}
	return paths
}

// resolveVetInputs expands explicit arguments, or falls back to the
// project manifest when none are given. Manifest problems come back
// as coded diagnostics so they render like any other finding.
func resolveVetInputs(ctx context.Context, args []string) ([]string, *diag.Diagnostic, error) {
	if len(args) > 0 {
		files, err := driver.ListSnapshots(ctx, args)
		if err != nil {
			return nil, nil, err
		}
		return files, nil, nil
	}

	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		d := diag.NewError(diag.ProjManifestInvalid, source.Span{}, err.Error())
		return nil, &d, nil
	}
	if !found {
		d := diag.NewError(diag.ProjManifestMissing, source.Span{}, noQuillTomlMessage)
		return nil, &d, nil
	}
	paths := manifest.programPaths()
	if len(paths) == 0 {
		d := diag.NewError(diag.ProjNoPrograms, source.Span{}, manifest.Path+": [programs] lists no snapshot paths")
		return nil, &d, nil
	}
	files, err := driver.ListSnapshots(ctx, paths)
	if err != nil {
		return nil, nil, err
	}
	return files, nil, nil
}
