// Package index builds the URI and action caches that drive service-document
// synthesis. Pass one scans each schema document for route and action
// declarations; pass two joins the two caches into additional action routes.
package index

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/redfish-contrib/json2openapi/internal/redfish"
)

// URIEntry describes one routable path template and the schema references
// its operations use.
type URIEntry struct {
	// TypeName is the resource type serving the path. Empty for action
	// routes produced by the merge pass.
	TypeName string

	// Reference points at the schema returned by a GET, or at the action
	// request body for action routes.
	Reference string

	// RequestBody points at the schema accepted by write operations.
	RequestBody string

	Insertable bool
	Updatable  bool
	Deletable  bool

	// Action marks routes that only accept a POST of an action payload.
	Action bool

	// ActionResponse points at a dedicated action result schema. Empty when
	// the action responds with the standard error payload.
	ActionResponse string
}

// ActionEntry records one action declared by a schema document. References
// are document-local fragments; the merge pass anchors them to the document
// that serves the route.
type ActionEntry struct {
	RequestBody string
	Response    string
}

// Index accumulates URI and action metadata across an entire conversion run.
type Index struct {
	logger  *slog.Logger
	uris    map[string]URIEntry
	actions map[string]map[string]ActionEntry
}

// New returns an empty Index logging through logger.
func New(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		logger:  logger,
		uris:    make(map[string]URIEntry),
		actions: make(map[string]map[string]ActionEntry),
	}
}

// SetURI registers or replaces the entry for a path template.
func (ix *Index) SetURI(uri string, e URIEntry) {
	ix.uris[uri] = e
}

// Lookup returns the entry registered for a path template.
func (ix *Index) Lookup(uri string) (URIEntry, bool) {
	e, ok := ix.uris[uri]
	return e, ok
}

// Paths returns all registered path templates in sorted order.
func (ix *Index) Paths() []string {
	return slices.Sorted(maps.Keys(ix.uris))
}

// AddAction registers an action declared by the document that converts to
// file. The action name carries no leading marker character.
func (ix *Index) AddAction(file, name string, e ActionEntry) {
	byName, ok := ix.actions[file]
	if !ok {
		byName = make(map[string]ActionEntry)
		ix.actions[file] = byName
	}
	byName[name] = e
}

// Action returns one registered action.
func (ix *Index) Action(file, name string) (ActionEntry, bool) {
	e, ok := ix.actions[file][name]
	return e, ok
}

// ActionFiles returns the documents that declared actions, in sorted order.
func (ix *Index) ActionFiles() []string {
	return slices.Sorted(maps.Keys(ix.actions))
}

// MergeActions is the second pass: for every URI whose schema reference names
// a document with cached actions, it derives one additional POST-only route
// per action. The pass only adds routes; existing entries are never modified.
func (ix *Index) MergeActions() {
	merged := make(map[string]URIEntry)
	for _, file := range ix.ActionFiles() {
		for _, uri := range ix.Paths() {
			entry := ix.uris[uri]
			if !strings.Contains(entry.Reference, "/"+file) {
				continue
			}
			docPart := redfish.DocumentOf(entry.Reference)
			for _, name := range slices.Sorted(maps.Keys(ix.actions[file])) {
				action := ix.actions[file][name]
				e := URIEntry{
					Reference:   docPart + action.RequestBody,
					RequestBody: docPart + action.RequestBody,
					Action:      true,
				}
				if action.Response != "" {
					e.ActionResponse = docPart + action.Response
				}
				merged[uri+"/Actions/"+name] = e
			}
		}
	}
	for uri, e := range merged {
		ix.uris[uri] = e
	}
}
