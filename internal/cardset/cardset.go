// Package cardset loads card template definitions from YAML set files and
// serves them to the script runtime.
package cardset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/deckforge/cardscript-engine-go/internal/board"
)

// ErrTemplateNotFound is returned when no loaded set defines the requested
// template.
var ErrTemplateNotFound = errors.New("cardset: template not found")

// Set is a named collection of card templates, typically one YAML file.
type Set struct {
	Name      string               `yaml:"name" json:"name"`
	Templates []board.CardTemplate `yaml:"templates" json:"templates"`
}

// ParseSetYAML decodes and validates a single set payload.
func ParseSetYAML(data []byte) (Set, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Set{}, fmt.Errorf("cardset: set payload is empty")
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("cardset: decode set: %w", err)
	}
	if set.Name == "" {
		return Set{}, fmt.Errorf("cardset: set has no name")
	}
	seen := make(map[string]struct{}, len(set.Templates))
	for i, tpl := range set.Templates {
		if tpl.Name == "" {
			return Set{}, fmt.Errorf("cardset: set %s: template %d has no name", set.Name, i)
		}
		if _, dup := seen[tpl.Name]; dup {
			return Set{}, fmt.Errorf("cardset: set %s: duplicate template %s", set.Name, tpl.Name)
		}
		seen[tpl.Name] = struct{}{}
	}
	return set, nil
}

// LoadSetFile reads a YAML file from disk and returns the parsed set.
func LoadSetFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("cardset: read %s: %w", path, err)
	}
	set, err := ParseSetYAML(data)
	if err != nil {
		return Set{}, fmt.Errorf("cardset: %s: %w", path, err)
	}
	return set, nil
}

// LoadSetDir scans a directory for *.yaml set files and returns the parsed
// sets in file-name order. A missing directory is treated as no sets.
func LoadSetDir(dir string) ([]Set, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cardset: read %s: %w", trimmed, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isYAMLFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	sets := make([]Set, 0, len(names))
	for _, name := range names {
		set, err := LoadSetFile(filepath.Join(trimmed, name))
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Library indexes templates from any number of sets and answers template
// lookups for the script runtime. Later additions override earlier templates
// of the same name.
type Library struct {
	mu        sync.RWMutex
	templates map[string]board.CardTemplate
	sets      []string
}

// NewLibrary creates an empty template library.
func NewLibrary() *Library {
	return &Library{
		templates: make(map[string]board.CardTemplate),
	}
}

// AddSet merges a set's templates into the library.
func (l *Library) AddSet(set Set) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sets = append(l.sets, set.Name)
	for _, tpl := range set.Templates {
		l.templates[tpl.Name] = tpl
	}
}

// LoadDir loads every set file in dir into the library.
func (l *Library) LoadDir(dir string) error {
	sets, err := LoadSetDir(dir)
	if err != nil {
		return err
	}
	for _, set := range sets {
		l.AddSet(set)
	}
	return nil
}

// Sets returns the names of loaded sets in load order.
func (l *Library) Sets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]string, len(l.sets))
	copy(result, l.sets)
	return result
}

// Len returns the number of distinct templates.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}

// Template returns the template registered under name. Implements the script
// runtime's template source.
func (l *Library) Template(ctx context.Context, name string) (board.CardTemplate, error) {
	if err := ctx.Err(); err != nil {
		return board.CardTemplate{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	tpl, ok := l.templates[name]
	if !ok {
		return board.CardTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return tpl, nil
}
