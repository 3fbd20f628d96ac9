package index

import (
	"maps"
	"slices"

	"github.com/redfish-contrib/json2openapi/internal/redfish"
)

// ScanDocument is the first pass over one schema document. It registers every
// declared URI with its access methods, and caches the document's actions.
// Scanning actions synthesizes a request body definition per action directly
// into doc, so it must run before the document is rewritten.
func (ix *Index) ScanDocument(doc map[string]any, filename string) {
	ix.scanURIs(doc, filename)
	ix.scanActions(doc, filename)
}

func (ix *Index) scanURIs(doc map[string]any, filename string) {
	defs, ok := redfish.MapAt(doc, "definitions")
	if !ok {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		def, ok := redfish.AsMap(defs[name])
		if !ok {
			continue
		}
		uris, ok := redfish.SliceAt(def, "uris")
		if !ok {
			continue
		}

		insertable, ok := redfish.BoolAt(def, "insertable")
		if !ok {
			ix.logger.Error("no insertable term found", "file", filename, "definition", name)
		}
		updatable, ok := redfish.BoolAt(def, "updatable")
		if !ok {
			ix.logger.Error("no updatable term found", "file", filename, "definition", name)
		}
		deletable, ok := redfish.BoolAt(def, "deletable")
		if !ok {
			ix.logger.Error("no deletable term found", "file", filename, "definition", name)
		}

		reference, requestBody, ok := ix.resolveReferences(def, name, filename)
		if !ok {
			continue
		}

		entry := URIEntry{
			TypeName:    name,
			Reference:   reference,
			RequestBody: requestBody,
			Insertable:  insertable,
			Updatable:   updatable,
			Deletable:   deletable,
		}
		for _, u := range uris {
			uri, ok := u.(string)
			if !ok {
				ix.logger.Error("uri entry is not a string", "file", filename, "definition", name)
				continue
			}
			ix.uris[uri] = entry
		}
	}
}

// resolveReferences determines the canonical schema reference and request
// body reference for a routable definition. Collections point at their own
// unversioned schema and accept their member type as the request body;
// singular resources point at the versioned schema named by their last anyOf
// branch.
func (ix *Index) resolveReferences(def map[string]any, name, filename string) (string, string, bool) {
	alts, ok := redfish.SliceAt(def, "anyOf")
	if !ok {
		ix.logger.Error("no anyOf term found", "file", filename, "definition", name)
		return "", "", false
	}

	if redfish.IsCollection(def) {
		membersRef, ok := redfish.CollectionMembersRef(def)
		if !ok {
			ix.logger.Error("collection has no members reference", "file", filename, "definition", name)
			return "", "", false
		}
		base := redfish.SwordfishBase
		if name != "DriveCollection" {
			base, ok = redfish.CollectionBaseURL(membersRef)
			if !ok {
				ix.logger.Error("could not determine collection base url", "file", filename, "definition", name, "ref", membersRef)
				return "", "", false
			}
		}
		reference := base + "/" + name + ".yaml#/components/schemas/" + name
		return reference, redfish.RewriteExternalRef(membersRef), true
	}

	if len(alts) == 0 {
		ix.logger.Error("anyOf term is empty", "file", filename, "definition", name)
		return "", "", false
	}
	last, ok := redfish.AsMap(alts[len(alts)-1])
	if !ok {
		ix.logger.Error("anyOf term has no reference", "file", filename, "definition", name)
		return "", "", false
	}
	ref, ok := redfish.StringAt(last, "$ref")
	if !ok {
		ix.logger.Error("anyOf term has no reference", "file", filename, "definition", name)
		return "", "", false
	}
	reference := redfish.RewriteExternalRef(ref)
	return reference, reference, true
}

// scanActions caches the actions a resource document declares and synthesizes
// a request body definition for each one. A document with any malformed
// action contributes no actions at all; the staged results are discarded.
func (ix *Index) scanActions(doc map[string]any, filename string) {
	target := redfish.TargetFilename(filename)

	rootRef, ok := redfish.StringAt(doc, "$ref")
	if !ok {
		// Not a resource document.
		return
	}
	resourceName := redfish.DefinitionName(rootRef)

	defs, ok := redfish.MapAt(doc, "definitions")
	if !ok {
		return
	}
	resourceDef, ok := redfish.MapAt(defs, resourceName)
	if !ok {
		return
	}
	props, ok := redfish.MapAt(resourceDef, "properties")
	if !ok {
		return
	}
	actionsProp, ok := redfish.MapAt(props, "Actions")
	if !ok {
		// No actions on this resource.
		return
	}
	actionsRef, ok := redfish.StringAt(actionsProp, "$ref")
	if !ok {
		return
	}

	actionsDef, ok := redfish.MapAt(defs, redfish.DefinitionName(actionsRef))
	if !ok {
		ix.logger.Error("malformed action found", "file", filename)
		return
	}
	actionProps, ok := redfish.MapAt(actionsDef, "properties")
	if !ok {
		ix.logger.Error("malformed action found", "file", filename)
		return
	}

	entries := make(map[string]ActionEntry)
	synthesized := make(map[string]map[string]any)
	for _, propName := range slices.Sorted(maps.Keys(actionProps)) {
		if propName == "Oem" {
			continue
		}
		entry, defName, body, ok := ix.stageAction(defs, actionProps, propName)
		if !ok {
			ix.logger.Error("malformed action found", "file", filename)
			return
		}
		entries[redfish.ActionName(propName)] = entry
		synthesized[defName+"RequestBody"] = body
	}

	for defName, body := range synthesized {
		defs[defName] = body
	}
	for name, entry := range entries {
		ix.AddAction(target, name, entry)
	}
}

// stageAction builds the cache entry and request body definition for a single
// action property without touching the document.
func (ix *Index) stageAction(defs, actionProps map[string]any, propName string) (ActionEntry, string, map[string]any, bool) {
	prop, ok := redfish.MapAt(actionProps, propName)
	if !ok {
		return ActionEntry{}, "", nil, false
	}
	ref, ok := redfish.StringAt(prop, "$ref")
	if !ok {
		return ActionEntry{}, "", nil, false
	}
	defName := redfish.DefinitionName(ref)

	actionDef, ok := redfish.MapAt(defs, defName)
	if !ok {
		return ActionEntry{}, "", nil, false
	}
	description, ok := actionDef["description"]
	if !ok {
		return ActionEntry{}, "", nil, false
	}
	longDescription, ok := actionDef["longDescription"]
	if !ok {
		return ActionEntry{}, "", nil, false
	}
	params, ok := redfish.MapAt(actionDef, "parameters")
	if !ok {
		return ActionEntry{}, "", nil, false
	}

	// The request body shares the parameters mapping with the action
	// definition, so the rewrite pass converts the parameter schemas exactly
	// once even after "parameters" itself is dropped.
	body := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"description":          description,
		"longDescription":      longDescription,
		"properties":           params,
	}
	var required []string
	for _, paramName := range slices.Sorted(maps.Keys(params)) {
		param, ok := redfish.AsMap(params[paramName])
		if !ok {
			return ActionEntry{}, "", nil, false
		}
		if _, has := param["requiredParameter"]; has {
			required = append(required, paramName)
		}
	}
	if len(required) > 0 {
		body["required"] = required
	}

	entry := ActionEntry{RequestBody: "#/components/schemas/" + defName + "RequestBody"}
	if raw, has := actionDef["actionResponse"]; has {
		response, ok := redfish.AsMap(raw)
		if !ok {
			return ActionEntry{}, "", nil, false
		}
		responseRef, ok := redfish.StringAt(response, "$ref")
		if !ok {
			return ActionEntry{}, "", nil, false
		}
		entry.Response = "#/components/schemas/" + redfish.DefinitionName(responseRef)
	}
	return entry, defName, body, true
}
