package api

import (
	"github.com/foodgram/foodgram/internal/shell/api/openapi"
)

// newOpenAPIGenerator registers the API's resources for spec generation.
func newOpenAPIGenerator(baseURL string) *openapi.Generator {
	g := openapi.NewGenerator(openapi.WithServer(baseURL))

	g.RegisterResource(openapi.ResourceInfo{
		Name:           "users",
		Model:          UserResponse{},
		RequestModel:   SignupRequest{},
		Paginated:      true,
		SupportsCreate: true,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name:  "tags",
		Model: TagResponse{},
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name:  "ingredients",
		Model: IngredientResponse{},
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name:           "recipes",
		Model:          RecipeResponse{},
		RequestModel:   RecipeRequest{},
		Paginated:      true,
		SupportsCreate: true,
		SupportsUpdate: true,
		SupportsDelete: true,
	})

	return g
}
