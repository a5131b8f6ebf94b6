// Package graph serves the user API over GraphQL.
package graph

import (
	_ "embed"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var schemaSDL string

// MaxBodyBytes bounds a single GraphQL request body.
const MaxBodyBytes = 1 << 20

// maxDepth bounds query nesting, introspection included.
const maxDepth = 20

// Handler serves the GraphQL endpoint and, optionally, the playground.
type Handler struct {
	Schema     *graphql.Schema
	Playground bool
	Log        *zap.Logger
}

// NewSchema parses the embedded schema against svc.
func NewSchema(svc Service, logger *zap.Logger) (*graphql.Schema, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return graphql.ParseSchema(schemaSDL, &Resolver{svc: svc, log: logger},
		graphql.UseStringDescriptions(),
		graphql.MaxDepth(maxDepth),
		graphql.Logger(panicLogger{log: logger}),
	)
}

// NewHandler builds a Handler for svc.
func NewHandler(svc Service, playgroundEnabled bool, logger *zap.Logger) (*Handler, error) {
	schema, err := NewSchema(svc, logger)
	if err != nil {
		return nil, err
	}
	return &Handler{Schema: schema, Playground: playgroundEnabled, Log: logger}, nil
}

// ServeGraphQL handles POST /graphql.
func (h *Handler) ServeGraphQL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	(&relay.Handler{Schema: h.Schema}).ServeHTTP(w, r)
}

// ServePlayground handles GET /graphql.
func (h *Handler) ServePlayground(w http.ResponseWriter, r *http.Request) {
	if !h.Playground {
		http.Error(w, "playground disabled", http.StatusNotFound)
		return
	}
	playground.Handler("usersvc", "/graphql").ServeHTTP(w, r)
}
