// Package servicedoc synthesizes the OpenAPI service document that indexes
// every converted schema, and reloads existing service documents to extend
// them.
package servicedoc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/yaml"

	"github.com/redfish-contrib/json2openapi/internal/index"
	"github.com/redfish-contrib/json2openapi/internal/redfish"
)

// Response code sets per operation kind.
var (
	getResponses    = []int{200}
	patchResponses  = []int{200, 202, 204}
	putResponses    = []int{200, 202, 204}
	createResponses = []int{201, 202, 204}
	actionResponses = []int{200, 202, 204}
	deleteResponses = []int{200, 202, 204}
)

// errorSchemaRef points at the error payload definition every operation
// falls back to.
const errorSchemaRef = "#/components/schemas/RedfishError"

var (
	pathTokenPattern = regexp.MustCompile(`{[A-Za-z0-9]+}`)
	idSuffixPattern  = regexp.MustCompile(`(.+)Id\d?`)
)

// Options configure service document synthesis.
type Options struct {
	// MessageRef is the schema reference for extended error messages.
	MessageRef string

	// TaskRef is the schema reference returned by asynchronous operations.
	TaskRef string

	// Info is the document's info block.
	Info map[string]any

	Logger *slog.Logger
}

// Synthesizer assembles a service document from a merged index.
type Synthesizer struct {
	messageRef string
	taskRef    string
	info       map[string]any
	logger     *slog.Logger
}

// New returns a Synthesizer for the given options.
func New(opts Options) *Synthesizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		messageRef: opts.MessageRef,
		taskRef:    opts.TaskRef,
		info:       opts.Info,
		logger:     logger,
	}
}

// Build assembles the service document. Resource routes get a GET plus the
// write operations their cache entry allows; action routes get a single
// POST.
func (s *Synthesizer) Build(ix *index.Index) (*openapi3.T, error) {
	info, err := s.infoBlock()
	if err != nil {
		return nil, err
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.1",
		Info:    info,
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"RedfishError": openapi3.NewSchemaRef("", s.redfishError()),
			},
		},
		Paths: openapi3.Paths{},
	}

	for _, uri := range ix.Paths() {
		entry, _ := ix.Lookup(uri)
		item := &openapi3.PathItem{}
		if entry.Action {
			item.Post = s.operation(uri, entry, actionResponses, true)
		} else {
			item.Get = s.operation(uri, entry, getResponses, false)
			if entry.Insertable {
				item.Post = s.operation(uri, entry, createResponses, true)
			}
			if entry.Updatable {
				item.Patch = s.operation(uri, entry, patchResponses, true)
				item.Put = s.operation(uri, entry, putResponses, true)
			}
			if entry.Deletable {
				item.Delete = s.operation(uri, entry, deleteResponses, false)
			}
		}
		doc.Paths[uri] = item
	}
	return doc, nil
}

// EncodeYAML serializes the document through its JSON form so the typed
// marshalers and extension handling apply, then renders YAML with sorted
// keys.
func EncodeYAML(doc *openapi3.T) ([]byte, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(data)
}

// infoBlock converts the configured info mapping into its typed form so
// vendor extensions inside it survive serialization.
func (s *Synthesizer) infoBlock() (*openapi3.Info, error) {
	data, err := json.Marshal(s.info)
	if err != nil {
		return nil, fmt.Errorf("encode info block: %w", err)
	}
	var info openapi3.Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode info block: %w", err)
	}
	return &info, nil
}

func (s *Synthesizer) operation(uri string, entry index.URIEntry, codes []int, withBody bool) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.Parameters = s.parameters(uri)
	if withBody && entry.RequestBody != "" {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  refContent(entry.RequestBody),
			},
		}
	}
	op.Responses = openapi3.Responses{}
	for _, code := range codes {
		op.Responses[strconv.Itoa(code)] = s.response(uri, entry, code)
	}
	op.Responses["default"] = s.response(uri, entry, 500)
	return op
}

func (s *Synthesizer) response(uri string, entry index.URIEntry, code int) *openapi3.ResponseRef {
	var desc string
	var content openapi3.Content

	switch code {
	case 200:
		if entry.Action {
			name := uri[strings.LastIndex(uri, ".")+1:]
			desc = fmt.Sprintf("The response contains the results of the %s action", name)
			if entry.ActionResponse != "" {
				content = refContent(entry.ActionResponse)
			} else {
				content = refContent(errorSchemaRef)
			}
		} else {
			desc = fmt.Sprintf("The response contains a representation of the %s resource", redfish.DefinitionName(entry.Reference))
			content = refContent(entry.Reference)
		}
	case 201:
		desc = fmt.Sprintf("A resource of type %s has been created", redfish.DefinitionName(entry.RequestBody))
		content = refContent(entry.RequestBody)
	case 202:
		desc = "Accepted; a Task has been generated"
		content = refContent(s.taskRef)
	case 204:
		desc = "Success, but no response data"
	case 301:
		desc = "Resource moved"
		content = refContent(entry.Reference)
	case 302:
		desc = "Resource found"
		content = refContent(entry.Reference)
	case 304:
		desc = "Resource not modified"
	default:
		desc = "Error condition"
		content = refContent(errorSchemaRef)
	}

	resp := openapi3.NewResponse().WithDescription(desc)
	if content != nil {
		resp.Content = content
	}
	return &openapi3.ResponseRef{Value: resp}
}

// parameters synthesizes the path parameter list for a URI. Every {token}
// becomes a required string parameter; tokens ending in Id also carry a
// description naming their resource.
func (s *Synthesizer) parameters(uri string) openapi3.Parameters {
	tokens := pathTokenPattern.FindAllString(uri, -1)
	if len(tokens) == 0 {
		return nil
	}
	params := make(openapi3.Parameters, 0, len(tokens))
	for _, token := range tokens {
		name := strings.Trim(token, "{}")
		param := &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInPath,
			Required: true,
			Schema:   openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		}
		if m := idSuffixPattern.FindStringSubmatch(name); m != nil {
			param.Description = "The value of the Id property of the " + m[1] + " resource"
		} else {
			s.logger.Error("uri token does not end in Id", "token", token, "uri", uri)
		}
		params = append(params, &openapi3.ParameterRef{Value: param})
	}
	return params
}

func refContent(ref string) openapi3.Content {
	return openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(ref, nil))
}

// redfishError is the standard error payload definition embedded in every
// service document.
func (s *Synthesizer) redfishError() *openapi3.Schema {
	code := &openapi3.Schema{
		Description: "A string indicating a specific MessageId from a Message Registry.",
		Extensions: map[string]any{
			"x-longDescription": "This property shall contain a string indicating a specific MessageId from a Message Registry.",
		},
		ReadOnly: true,
		Type:     "string",
	}
	message := &openapi3.Schema{
		Description: "A human-readable error message corresponding to the message in a Message Registry.",
		Extensions: map[string]any{
			"x-longDescription": "This property shall contain a human-readable error message corresponding to the message in a Message Registry.",
		},
		ReadOnly: true,
		Type:     "string",
	}
	extendedInfo := &openapi3.Schema{
		Description: "An array of messages describing one or more error messages.",
		Extensions: map[string]any{
			"x-longDescription": "This property shall be an array of message objects describing one or more error messages.",
		},
		Type:  "array",
		Items: openapi3.NewSchemaRef(s.messageRef, nil),
	}
	inner := &openapi3.Schema{
		Description: "The properties that describe an error from a Redfish Service.",
		Extensions: map[string]any{
			"x-longDescription": "The Redfish Specification-described type shall contain properties that describe an error from a Redfish Service.",
		},
		Type: "object",
		Properties: openapi3.Schemas{
			"code":                  openapi3.NewSchemaRef("", code),
			"message":               openapi3.NewSchemaRef("", message),
			"@Message.ExtendedInfo": openapi3.NewSchemaRef("", extendedInfo),
		},
		Required: []string{"code", "message"},
	}
	return &openapi3.Schema{
		Description: "The error payload from a Redfish Service.",
		Extensions: map[string]any{
			"x-longDescription": "The Redfish Specification-described type shall contain an error payload from a Redfish Service.",
		},
		Type: "object",
		Properties: openapi3.Schemas{
			"error": openapi3.NewSchemaRef("", inner),
		},
		Required: []string{"error"},
	}
}
