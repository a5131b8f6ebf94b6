package graph

import "github.com/go-chi/chi/v5"

// MountRoutes registers the GraphQL endpoint at /graphql.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/graphql", h.ServeGraphQL)
	r.Get("/graphql", h.ServePlayground)
}
