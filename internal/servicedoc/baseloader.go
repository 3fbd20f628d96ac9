package servicedoc

import (
	"log/slog"
	"maps"
	"os"
	"regexp"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/yaml"

	"github.com/redfish-contrib/json2openapi/internal/index"
	"github.com/redfish-contrib/json2openapi/internal/redfish"
)

// versionedDocPattern finds the versioned document filename inside a schema
// reference.
var versionedDocPattern = regexp.MustCompile(`[A-Za-z0-9]+\.v[0-9]+_[0-9]+_[0-9]+\.yaml`)

// LoadBase seeds the caches from a previously generated service document so
// a run can extend an existing service definition. A path with a GET is
// reloaded as a resource route; a path with only a POST is reloaded as an
// action. Paths that cannot be interpreted are reported and skipped.
func LoadBase(path string, extensions map[string][]string, ix *index.Index, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("could not open base document", "file", path, "error", err)
		return
	}
	var doc openapi3.T
	if err := yaml.Unmarshal(data, &doc); err != nil {
		logger.Error("could not parse base document", "file", path, "error", err)
		return
	}

	for _, uri := range slices.Sorted(maps.Keys(doc.Paths)) {
		item := doc.Paths[uri]
		if item == nil {
			continue
		}
		if item.Get != nil {
			loadResourcePath(uri, item, extensions, ix, logger)
		} else {
			loadActionPath(uri, item, ix, logger)
		}
	}
}

func loadResourcePath(uri string, item *openapi3.PathItem, extensions map[string][]string, ix *index.Index, logger *slog.Logger) {
	ref, ok := responseSchemaRef(item.Get, "200")
	if !ok {
		logger.Error("base document path has no response schema", "uri", uri)
		return
	}
	entry := index.URIEntry{
		TypeName:    redfish.DefinitionName(ref),
		Reference:   ref,
		RequestBody: ref,
	}
	if item.Post != nil {
		entry.Insertable = true
		if body, ok := requestSchemaRef(item.Post); ok {
			entry.RequestBody = body
		}
	}
	if item.Patch != nil {
		entry.Updatable = true
	}
	if item.Delete != nil {
		entry.Deletable = true
	}

	ix.SetURI(uri, entry)
	for _, ext := range extensions[entry.TypeName] {
		ix.SetURI(ext, entry)
	}
}

func loadActionPath(uri string, item *openapi3.PathItem, ix *index.Index, logger *slog.Logger) {
	reqRef, ok := requestSchemaRef(item.Post)
	if !ok {
		logger.Error("base document action has no request schema", "uri", uri)
		return
	}
	respRef, ok := responseSchemaRef(item.Post, "200")
	if !ok {
		logger.Error("base document action has no response schema", "uri", uri)
		return
	}
	file := versionedDocPattern.FindString(reqRef)
	if file == "" {
		logger.Error("base document action does not reference a versioned document", "uri", uri, "ref", reqRef)
		return
	}

	entry := index.ActionEntry{RequestBody: redfish.FragmentOf(reqRef)}
	if respRef != errorSchemaRef {
		entry.Response = redfish.FragmentOf(respRef)
	}
	ix.AddAction(file, redfish.DefinitionName(uri), entry)
}

func responseSchemaRef(op *openapi3.Operation, code string) (string, bool) {
	if op == nil || op.Responses == nil {
		return "", false
	}
	rref := op.Responses[code]
	if rref == nil || rref.Value == nil {
		return "", false
	}
	return contentSchemaRef(rref.Value.Content)
}

func requestSchemaRef(op *openapi3.Operation) (string, bool) {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return "", false
	}
	return contentSchemaRef(op.RequestBody.Value.Content)
}

func contentSchemaRef(content openapi3.Content) (string, bool) {
	mt := content["application/json"]
	if mt == nil || mt.Schema == nil || mt.Schema.Ref == "" {
		return "", false
	}
	return mt.Schema.Ref, true
}
