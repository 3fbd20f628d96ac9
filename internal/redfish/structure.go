package redfish

import (
	"regexp"
	"strings"
)

var (
	// externalRefPattern recognizes cross-document references whose stem and
	// definition name can be compared for resource-link classification.
	externalRefPattern = regexp.MustCompile(`^.+/(.+)\.json#/definitions/(.+)$`)

	// collectionBasePattern extracts the directory portion of a reference to
	// a collection's member schema.
	collectionBasePattern = regexp.MustCompile(`^(.+)/\w+\.json`)
)

// ExternalRef is a parsed cross-document reference.
type ExternalRef struct {
	Ref  string // the full reference as written
	Stem string // filename stem of the referenced document
	Name string // referenced definition name
}

// ParseExternalRef splits a cross-document reference into its document stem
// and definition name. References in other shapes, including same-document
// fragments, do not parse.
func ParseExternalRef(ref string) (ExternalRef, bool) {
	m := externalRefPattern.FindStringSubmatch(ref)
	if m == nil {
		return ExternalRef{}, false
	}
	return ExternalRef{Ref: ref, Stem: m[1], Name: m[2]}, true
}

// File returns the filename of the referenced document.
func (r ExternalRef) File() string {
	return r.Stem + ".json"
}

// URL returns the document location without the fragment.
func (r ExternalRef) URL() string {
	return DocumentOf(r.Ref)
}

// IsResourceCandidate reports whether the reference may point at an
// addressable resource: the document stem matches the definition name and the
// type is not on the exemption list. Versioned documents never qualify since
// their stems carry the version suffix.
func (r ExternalRef) IsResourceCandidate() bool {
	return r.Stem == r.Name && !LinkExempt(r.Name)
}

// DefinitionName returns the last /-separated segment of a reference.
func DefinitionName(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

// DocumentOf returns the portion of a reference before its fragment.
func DocumentOf(ref string) string {
	doc, _, _ := strings.Cut(ref, "#")
	return doc
}

// FragmentOf returns the fragment of a reference including the leading "#".
func FragmentOf(ref string) string {
	return "#" + ref[strings.LastIndex(ref, "#")+1:]
}

// CollectionBaseURL extracts the directory holding a collection's member
// schema from the member reference.
func CollectionBaseURL(membersRef string) (string, bool) {
	m := collectionBasePattern.FindStringSubmatch(membersRef)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCollection reports whether a definition has the resource-collection
// shape: a two-branch anyOf whose second branch declares a Members property.
func IsCollection(v any) bool {
	_, ok := CollectionPayload(v)
	return ok
}

// CollectionPayload returns the second anyOf branch of a collection
// definition, the branch describing the collection body itself.
func CollectionPayload(v any) (map[string]any, bool) {
	def, ok := AsMap(v)
	if !ok {
		return nil, false
	}
	alts, ok := SliceAt(def, "anyOf")
	if !ok || len(alts) != 2 {
		return nil, false
	}
	branch, ok := AsMap(alts[1])
	if !ok {
		return nil, false
	}
	props, ok := MapAt(branch, "properties")
	if !ok {
		return nil, false
	}
	if _, ok := props["Members"]; !ok {
		return nil, false
	}
	return branch, true
}

// CollectionMembersRef returns the reference to the member schema of a
// collection definition.
func CollectionMembersRef(def map[string]any) (string, bool) {
	branch, ok := CollectionPayload(def)
	if !ok {
		return "", false
	}
	props, ok := MapAt(branch, "properties")
	if !ok {
		return "", false
	}
	members, ok := MapAt(props, "Members")
	if !ok {
		return "", false
	}
	items, ok := MapAt(members, "items")
	if !ok {
		return "", false
	}
	return StringAt(items, "$ref")
}

// IsLinkDefinition reports whether a definition is a link to an addressable
// resource: its first anyOf branch references the idRef structure.
func IsLinkDefinition(def map[string]any) bool {
	alts, ok := SliceAt(def, "anyOf")
	if !ok || len(alts) == 0 {
		return false
	}
	first, ok := AsMap(alts[0])
	if !ok {
		return false
	}
	ref, ok := StringAt(first, "$ref")
	if !ok {
		return false
	}
	return strings.Contains(ref, "/definitions/idRef")
}
