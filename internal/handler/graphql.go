// Package handler contains the HTTP handlers mounted by the server: the
// GraphQL endpoint, the GraphiQL page and the health check.
//
// Handlers are the glue between HTTP and the rest of the app. They parse the
// request, hand it to the layer below and write the response; they carry no
// business logic.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/sakif/event-logger/internal/graph"
)

// maxBodyBytes caps a POSTed operation. Real documents are a few KB.
const maxBodyBytes = 1 << 20

// Executor runs one GraphQL operation. *graph.Schema implements it.
type Executor interface {
	Execute(ctx context.Context, req graph.Request) *graphql.Result
}

// GraphQLHandler serves GraphQL over HTTP.
//
// POST accepts {"query", "variables", "operationName"} as JSON. GET reads the
// same three values from the query string but refuses mutations, so a link or
// an <img> tag cannot change data.
//
// Any request that reaches the executor gets HTTP 200 with a {data, errors}
// body, including requests whose mutations failed; the failure lives in the
// payload. Only requests that cannot be parsed get a 4xx.
type GraphQLHandler struct {
	executor Executor
	logger   *slog.Logger
}

func NewGraphQLHandler(executor Executor, logger *slog.Logger) *GraphQLHandler {
	return &GraphQLHandler{executor: executor, logger: logger}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		req graph.Request
		err error
	)

	switch r.Method {
	case http.MethodPost:
		req, err = decodePost(w, r)
	case http.MethodGet:
		req, err = decodeGet(r)
		if err == nil && isMutation(req) {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "mutations must be sent with POST")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err != nil {
		h.logger.Debug("rejected graphql request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.executor.Execute(r.Context(), req)
	if len(result.Errors) > 0 {
		h.logger.Debug("graphql operation returned errors",
			slog.String("operation", req.OperationName),
			slog.Int("count", len(result.Errors)),
		)
	}
	writeJSON(w, http.StatusOK, result)
}

var errMissingQuery = errors.New("query is required")

func decodePost(w http.ResponseWriter, r *http.Request) (graph.Request, error) {
	var req graph.Request

	// MaxBytesReader makes Decode fail once the limit is hit instead of
	// reading an unbounded body into memory.
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errors.New("request body too large")
		}
		return req, errors.New("request body is not valid JSON")
	}
	if req.Query == "" {
		return req, errMissingQuery
	}
	return req, nil
}

func decodeGet(r *http.Request) (graph.Request, error) {
	q := r.URL.Query()
	req := graph.Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if req.Query == "" {
		return req, errMissingQuery
	}
	if raw := q.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return req, errors.New("variables is not a valid JSON object")
		}
	}
	return req, nil
}

// isMutation reports whether the operation that would run is a mutation.
// Documents that do not parse are left to the executor, which reports the
// syntax error in the normal response shape.
func isMutation(req graph.Request) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName != "" && (op.Name == nil || op.Name.Value != req.OperationName) {
			continue
		}
		if op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}
