package redfish

import "strings"

// OneForOneTerms are dialect keywords that convert directly into an x-
// prefixed extension of the same name.
var OneForOneTerms = []string{
	"longDescription",
	"enumDescriptions",
	"enumLongDescriptions",
	"enumDeprecated",
	"enumVersionDeprecated",
	"enumVersionAdded",
	"units",
	"requiredOnCreate",
	"owningEntity",
	"autoExpand",
	"release",
	"versionDeprecated",
	"versionAdded",
	"filter",
	"excerpt",
	"excerptCopy",
	"excerptCopyOnly",
}

// RemovedTerms are dialect keywords dropped from converted documents. Their
// information either moves into the service document or has no OpenAPI
// counterpart.
var RemovedTerms = []string{
	"insertable",
	"updatable",
	"deletable",
	"uris",
	"parameters",
	"requiredParameter",
	"actionResponse",
}

// ExtensionPrefix marks vendor extension keywords in OpenAPI documents.
const ExtensionPrefix = "x-"

// SwordfishBase is the schema repository for DriveCollection, the one known
// collection whose singular resource is owned by a different standards body.
const SwordfishBase = "http://redfish.dmtf.org/schemas/swordfish/v1"

// LinkExempt reports whether a type name is excluded from resource-link
// classification even though its schema filename matches its type name.
// Redundancy is the one known type that shares its name with its schema file
// without being an addressable resource.
func LinkExempt(name string) bool {
	return name == "Redundancy"
}

// ActionName strips the "#" marker from an action property name, e.g.
// "#Chassis.Reset" to "Chassis.Reset".
func ActionName(property string) string {
	return strings.TrimPrefix(property, "#")
}

// RewriteLocalRef converts a same-document reference from the JSON Schema
// fragment form to the OpenAPI one.
func RewriteLocalRef(ref string) string {
	return strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
}

// RewriteExternalRef converts a cross-document reference to point at the
// converted document and its schemas section.
func RewriteExternalRef(ref string) string {
	return strings.Replace(ref, ".json#/definitions/", ".yaml#/components/schemas/", 1)
}
