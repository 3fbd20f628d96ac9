// Package redfish holds the source-dialect knowledge shared by the converter:
// how schema documents are decoded, how their filenames map to converted
// filenames, and which vocabulary terms and reference forms the dialect uses.
package redfish

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// versionedNamePattern matches filenames of the form NAME.vX_Y_Z.json.
var versionedNamePattern = regexp.MustCompile(`v[0-9]+_[0-9]+_[0-9]+\.json$`)

// ParseDocument decodes one schema document into a generic mapping tree.
// YAML is a superset of JSON, so the same decode path handles both encodings
// and keeps integral numbers as ints.
func ParseDocument(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return doc, nil
}

// ReadDocument loads and decodes the schema document at path.
func ReadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// TargetFilename maps an input schema filename to the filename of its
// converted form, e.g. "Chassis.v1_10_0.json" to "Chassis.v1_10_0.yaml".
func TargetFilename(name string) string {
	return strings.TrimSuffix(name, ".json") + ".yaml"
}

// IsVersionedName reports whether a schema filename carries a vX_Y_Z version
// component. Unversioned files are regenerated on every run; versioned files
// may be left in place depending on the overwrite policy.
func IsVersionedName(name string) bool {
	return versionedNamePattern.MatchString(name)
}

// AsMap returns v as a mapping node when it is one.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// MapAt returns the mapping stored under key.
func MapAt(m map[string]any, key string) (map[string]any, bool) {
	child, ok := m[key].(map[string]any)
	return child, ok
}

// StringAt returns the string stored under key.
func StringAt(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// SliceAt returns the sequence stored under key.
func SliceAt(m map[string]any, key string) ([]any, bool) {
	s, ok := m[key].([]any)
	return s, ok
}

// BoolAt returns the boolean stored under key.
func BoolAt(m map[string]any, key string) (bool, bool) {
	b, ok := m[key].(bool)
	return b, ok
}
