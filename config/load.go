// Package config - load.go
//
// This file loads configuration documents from disk. It handles two tiers:
// - static_config.toml: percentage-authored base layer shared by all profiles
// - baseconfig_<name>.toml|yaml: per-profile override layer
//
// Missing profile files are created empty, so a fresh install starts from the
// static layer alone.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ProfilePrefix is the file name prefix of per-profile layers
const ProfilePrefix = "baseconfig_"

// Profile is one fully layered and resolved configuration
type Profile struct {
	Name string
	Path string
	Tree Tree
}

// LoadFile decodes a TOML or YAML document into a Tree. The format is picked
// by extension; anything that is not .yaml/.yml is read as TOML.
func LoadFile(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse toml %s: %w", path, err)
		}
	}

	tree := make(Tree, len(raw))
	for k, v := range raw {
		tree[k] = normalize(v)
	}
	return tree, nil
}

// LoadOrCreate loads path, creating an empty document when it does not exist
func LoadOrCreate(path string, log zerolog.Logger) (Tree, error) {
	tree, err := LoadFile(path)
	if err == nil {
		return tree, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	log.Warn().Str("path", path).Msg("config not found, creating it")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return nil, fmt.Errorf("failed to create config %s: %w", path, err)
	}
	return Tree{}, nil
}

// LoadStatic loads and resolves the static base layer
func LoadStatic(path string, res Resolution, log zerolog.Logger) (Tree, error) {
	tree, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	resolved := Resolve(tree, res)
	log.Debug().Str("path", path).Int("width", res.Width).Int("height", res.Height).
		Msg("static config resolved")
	return resolved, nil
}

// LoadProfile layers one profile file over an already resolved static tree
func LoadProfile(static Tree, path string, res Resolution, log zerolog.Logger) (Profile, error) {
	specific, err := LoadOrCreate(path, log)
	if err != nil {
		return Profile{}, err
	}

	tree := Layer(static, specific, res, log)
	name := tree.Section("General").String("name", "")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Profile{Name: name, Path: path, Tree: tree}, nil
}

// LoadLayered resolves the static layer and merges one profile over it
func LoadLayered(staticPath, profilePath string, res Resolution, log zerolog.Logger) (Profile, error) {
	static, err := LoadStatic(staticPath, res, log)
	if err != nil {
		return Profile{}, err
	}
	return LoadProfile(static, profilePath, res, log)
}

// DiscoverProfiles lists baseconfig_* documents in dir, skipping the template
func DiscoverProfiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles in %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ProfilePrefix) {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if base == ProfilePrefix+"template" {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".toml", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
