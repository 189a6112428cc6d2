package models

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed archetypes.yml
var archetypeCatalog []byte

// ArchetypeInfo is the fixed display metadata for one archetype.
type ArchetypeInfo struct {
	Key         string `yaml:"key" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Color       string `yaml:"color" json:"color"`
	Glow        string `yaml:"glow" json:"glow"`
	Background  string `yaml:"background" json:"background"`
}

var (
	archetypeOrder []ArchetypeInfo
	archetypeIndex map[string]ArchetypeInfo
)

func init() {
	order, err := parseArchetypes(archetypeCatalog)
	if err != nil {
		panic(fmt.Sprintf("archetype catalog: %v", err))
	}
	archetypeOrder = order
	archetypeIndex = make(map[string]ArchetypeInfo, len(order))
	for _, a := range order {
		archetypeIndex[a.Key] = a
	}
}

func parseArchetypes(data []byte) ([]ArchetypeInfo, error) {
	var out []ArchetypeInfo
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(out))
	for _, a := range out {
		if a.Key == "" || a.Label == "" {
			return nil, fmt.Errorf("entry missing key or label: %+v", a)
		}
		if _, dup := seen[a.Key]; dup {
			return nil, fmt.Errorf("duplicate archetype %q", a.Key)
		}
		seen[a.Key] = struct{}{}
	}
	return out, nil
}

// Archetypes returns the catalog in display order.
func Archetypes() []ArchetypeInfo {
	out := make([]ArchetypeInfo, len(archetypeOrder))
	copy(out, archetypeOrder)
	return out
}

// LookupArchetype returns the metadata for key.
func LookupArchetype(key string) (ArchetypeInfo, bool) {
	a, ok := archetypeIndex[key]
	return a, ok
}

// NormalizeArchetype lower-cases and validates raw input.
// Empty or unknown values yield nil, meaning "no archetype".
func NormalizeArchetype(raw string) *string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	if _, ok := archetypeIndex[key]; !ok {
		return nil
	}
	return &key
}
