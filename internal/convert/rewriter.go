package convert

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/redfish-contrib/json2openapi/internal/redfish"
)

// Rewriter converts schema documents from the source dialect into their
// OpenAPI form. Documents are rewritten in place.
type Rewriter struct {
	odataSchema string
	resolver    *Resolver
	logger      *slog.Logger
}

// NewRewriter returns a Rewriter that rewrites resource links to idRef under
// odataSchema and classifies candidate references through resolver.
func NewRewriter(odataSchema string, resolver *Resolver, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{odataSchema: odataSchema, resolver: resolver, logger: logger}
}

// RewriteDocument strips the top-level schema keywords, relocates the
// definitions block under components, and rewrites every node. It must run
// after the document has been scanned for URIs and actions.
func (rw *Rewriter) RewriteDocument(ctx context.Context, doc map[string]any) {
	delete(doc, "$schema")
	delete(doc, "$ref")
	delete(doc, "$id")

	if v, ok := doc["copyright"]; ok {
		delete(doc, "copyright")
		doc["x-copyright"] = v
	}
	if v, ok := doc["definitions"]; ok {
		delete(doc, "definitions")
		doc["components"] = map[string]any{"schemas": v}
	}

	rw.rewriteNode(ctx, doc)
}

// rewriteNode applies the keyword conversions to one mapping node and then
// recurses into its children. Each step mirrors a dialect rule; the order
// matters, since a collapsed anyOf produces a $ref that the reference rewrite
// later in the same visit must still see.
func (rw *Rewriter) rewriteNode(ctx context.Context, node map[string]any) {
	for _, term := range redfish.OneForOneTerms {
		if v, ok := node[term]; ok {
			delete(node, term)
			node[redfish.ExtensionPrefix+term] = v
		}
	}

	for _, term := range redfish.RemovedTerms {
		delete(node, term)
	}

	// The "o" is capitalized in OpenAPI.
	if v, ok := node["readonly"]; ok {
		delete(node, "readonly")
		node["readOnly"] = v
	}

	// "deprecated" is a built-in OpenAPI term but only as a boolean; the
	// reason text moves to an extension.
	if v, ok := node["deprecated"]; ok {
		node["x-deprecatedReason"] = v
		node["deprecated"] = true
	}

	// "patternProperties" is not in OpenAPI. Its pattern schemas also must
	// not carry "type", which would clash with the parent schema.
	if v, ok := node["patternProperties"]; ok {
		delete(node, "patternProperties")
		node["x-patternProperties"] = v
		if patterns, ok := redfish.AsMap(v); ok {
			for _, pattern := range patterns {
				if schema, ok := redfish.AsMap(pattern); ok {
					delete(schema, "type")
				}
			}
		}
	}

	// OpenAPI does not allow "type" to be a list; the dialect uses lists
	// only to mark something nullable.
	if list, ok := node["type"].([]any); ok && len(list) > 0 {
		node["type"] = nonNullType(list)
		node["nullable"] = true
	}

	if alts, ok := redfish.SliceAt(node, "anyOf"); ok {
		if ref, ok := nullableRefUnion(alts); ok {
			delete(node, "anyOf")
			node["$ref"] = ref
			node["nullable"] = true
		}
	}

	// Resource collections lose their anyOf wrapper wherever they appear.
	for _, key := range slices.Sorted(maps.Keys(node)) {
		if payload, ok := redfish.CollectionPayload(node[key]); ok {
			node[key] = payload
		}
	}

	if ref, ok := redfish.StringAt(node, "$ref"); ok {
		node["$ref"] = rw.rewriteRef(ctx, ref)
	}

	for _, key := range slices.Sorted(maps.Keys(node)) {
		switch v := node[key].(type) {
		case map[string]any:
			rw.rewriteNode(ctx, v)
		case []any:
			for _, item := range v {
				if m, ok := redfish.AsMap(item); ok {
					rw.rewriteNode(ctx, m)
				}
			}
		}
	}
}

// rewriteRef converts one reference. Local references keep their fragment
// form. External references to an addressable resource become idRef links
// into the OData schema; everything else points at the converted document.
func (rw *Rewriter) rewriteRef(ctx context.Context, ref string) string {
	if strings.HasPrefix(ref, "#") {
		return redfish.RewriteLocalRef(ref)
	}
	if ext, ok := redfish.ParseExternalRef(ref); ok && ext.IsResourceCandidate() {
		if rw.resolver != nil && rw.resolver.IsLink(ctx, ext) {
			return rw.odataSchema + "#/components/schemas/idRef"
		}
	}
	return redfish.RewriteExternalRef(ref)
}

// nonNullType returns the first alternative of a type list that is not the
// null marker, falling back to the first entry.
func nonNullType(list []any) any {
	for _, alt := range list {
		if s, ok := alt.(string); !ok || s != "null" {
			return alt
		}
	}
	return list[0]
}

// nullableRefUnion detects a union that only adds nullability to a single
// reference: exactly one alternative carries $ref and every other one is the
// literal null-type marker.
func nullableRefUnion(alts []any) (string, bool) {
	var ref string
	var refs, nulls, others int
	for _, alt := range alts {
		m, ok := redfish.AsMap(alt)
		if !ok {
			others++
			continue
		}
		if isNullMarker(m) {
			nulls++
			continue
		}
		if s, ok := redfish.StringAt(m, "$ref"); ok {
			refs++
			ref = s
			continue
		}
		others++
	}
	if refs == 1 && nulls > 0 && others == 0 {
		return ref, true
	}
	return "", false
}

func isNullMarker(m map[string]any) bool {
	return len(m) == 1 && m["type"] == "null"
}
