package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/graphiql.html
var templateFS embed.FS

// GraphiQLHandler serves the in-browser GraphQL IDE. The server only mounts
// it outside production.
//
// The template is parsed once at startup and reused for every request. A
// token stored under "event-logger:token" in localStorage is sent as the
// bearer token, which pairs with cmd/devtoken.
type GraphiQLHandler struct {
	templates *template.Template
	endpoint  string
	logger    *slog.Logger
}

func NewGraphiQLHandler(endpoint string, logger *slog.Logger) (*GraphiQLHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/graphiql.html")
	if err != nil {
		return nil, err
	}

	return &GraphiQLHandler{
		templates: tmpl,
		endpoint:  endpoint,
		logger:    logger,
	}, nil
}

func (h *GraphiQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":    "Event Logger GraphiQL",
		"Endpoint": h.endpoint,
	}

	// Headers go out before the body.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.templates.ExecuteTemplate(w, "graphiql.html", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
