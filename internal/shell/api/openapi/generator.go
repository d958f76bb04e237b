// Package openapi provides reflective OpenAPI 3.0 specification generation
// for the Foodgram API. Schemas are extracted from the handler's response
// types; paths are registered by the API package.
package openapi

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces an OpenAPI 3.0 specification from registered resources.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	resources   []ResourceInfo
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// ResourceInfo describes one REST resource for spec generation.
type ResourceInfo struct {
	Name           string // Plural path segment (e.g. "recipes")
	Model          any    // Response struct for schema extraction
	RequestModel   any    // Request struct, nil for read-only resources
	Paginated      bool   // GET /{name} wraps results in the page envelope
	SupportsCreate bool
	SupportsUpdate bool
	SupportsDelete bool
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) { g.title = title }
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) { g.version = version }
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) { g.servers = append(g.servers, url) }
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Foodgram API",
		version:     "1.0.0",
		description: "Recipe sharing platform API",
	}
	for _, opt := range opts {
		opt(g)
	}
	if len(g.servers) == 0 {
		g.servers = []string{"http://localhost:8080"}
	}
	return g
}

// RegisterResource adds a resource to the generator.
func (g *Generator) RegisterResource(info ResourceInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources = append(g.resources, info)
	g.cachedSpec = nil
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
			SecuritySchemes: openapi3.SecuritySchemes{
				"tokenAuth": &openapi3.SecuritySchemeRef{
					Value: &openapi3.SecurityScheme{
						Type:        "apiKey",
						In:          "header",
						Name:        "Authorization",
						Description: "Token-based authentication: `Token <key>`",
					},
				},
			},
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	g.addCommonSchemas(spec)

	for _, res := range g.resources {
		g.addResourceToSpec(spec, res)
	}

	g.cachedSpec = spec
	return spec
}

// =============================================================================
// Schema Generation
// =============================================================================

func (g *Generator) addCommonSchemas(spec *openapi3.T) {
	spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"code": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
			},
		},
	}

	spec.Components.Schemas["Page"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"count": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
				},
				"next": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "uri", Nullable: true},
				},
				"previous": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "uri", Nullable: true},
				},
				"results": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"array"}},
				},
			},
		},
	}
}

func (g *Generator) addResourceToSpec(spec *openapi3.T, res ResourceInfo) {
	basePath := "/api/" + res.Name
	schemaName := capitalize(singularize(res.Name))

	spec.Components.Schemas[schemaName] = g.extractSchema(res.Model)
	if res.RequestModel != nil {
		spec.Components.Schemas[schemaName+"Request"] = g.extractSchema(res.RequestModel)
	}

	collectionPath := &openapi3.PathItem{
		Get: g.createListOperation(res, schemaName),
	}
	if res.SupportsCreate {
		collectionPath.Post = g.createCreateOperation(res, schemaName)
	}
	spec.Paths.Set(basePath, collectionPath)

	itemPath := &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     "id",
					In:       "path",
					Required: true,
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
					},
				},
			},
		},
		Get: g.createGetOperation(res, schemaName),
	}
	if res.SupportsUpdate {
		itemPath.Patch = g.createUpdateOperation(res, schemaName)
	}
	if res.SupportsDelete {
		itemPath.Delete = g.createDeleteOperation(res, schemaName)
	}
	spec.Paths.Set(basePath+"/{id}", itemPath)
}

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}
	g.addStructFields(schema, t)

	return &openapi3.SchemaRef{Value: schema}
}

// addStructFields adds the fields of a struct to a schema, flattening
// embedded structs the way encoding/json does.
func (g *Generator) addStructFields(schema *openapi3.Schema, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			g.addStructFields(schema, field.Type)
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if parts := strings.Split(jsonTag, ","); parts[0] != "" {
				name = parts[0]
			}
		}

		if propSchema := g.goTypeToSchema(field.Type); propSchema != nil {
			schema.Properties[name] = propSchema
		}
	}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		return g.extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Operation Generation
// =============================================================================

func (g *Generator) createListOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: "list" + capitalize(res.Name),
		Summary:     "List " + res.Name,
		Tags:        []string{capitalize(res.Name)},
		Responses:   &openapi3.Responses{},
	}
	if res.Paginated {
		op.Parameters = openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name: "page",
					In:   "query",
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Default: 1},
					},
				},
			},
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name: "limit",
					In:   "query",
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Default: 6},
					},
				},
			},
		}
	}
	return op
}

func (g *Generator) createGetOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "get" + schemaName,
		Summary:     "Get a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Responses:   &openapi3.Responses{},
	}
}

func (g *Generator) createCreateOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "create" + schemaName,
		Summary:     "Create a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    &openapi3.SecurityRequirements{{"tokenAuth": {}}},
		RequestBody: g.requestBody(res, schemaName),
		Responses:   &openapi3.Responses{},
	}
}

func (g *Generator) createUpdateOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "update" + schemaName,
		Summary:     "Update a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    &openapi3.SecurityRequirements{{"tokenAuth": {}}},
		RequestBody: g.requestBody(res, schemaName),
		Responses:   &openapi3.Responses{},
	}
}

func (g *Generator) createDeleteOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "delete" + schemaName,
		Summary:     "Delete a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    &openapi3.SecurityRequirements{{"tokenAuth": {}}},
		Responses:   &openapi3.Responses{},
	}
}

func (g *Generator) requestBody(res ResourceInfo, schemaName string) *openapi3.RequestBodyRef {
	ref := "#/components/schemas/" + schemaName
	if res.RequestModel != nil {
		ref += "Request"
	}
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Ref: ref},
				},
			},
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func singularize(s string) string {
	if strings.HasSuffix(s, "ies") {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "es") {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}

// MarshalSpec renders a generated spec as JSON.
func MarshalSpec(spec *openapi3.T) ([]byte, error) {
	return json.Marshal(spec)
}
