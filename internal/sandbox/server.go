package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/storefront/internal/catalog"
)

// Server exposes a Backend over HTTP.
type Server struct {
	backend  *Backend
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	resolved *prometheus.CounterVec
}

// NewServer wraps backend. Collectors are registered with reg, which is
// also what /metrics serves.
func NewServer(backend *Backend, logger *slog.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		backend:  backend,
		logger:   logger,
		gatherer: reg,
		resolved: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_sandbox_resolved_total",
			Help: "GraphQL root fields resolved by the sandbox, by field and outcome",
		}, []string{"field", "outcome"}),
	}
}

// Routes mounts the sandbox endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/graphql", s.HandleGraphQL)
	r.Get("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	return r
}

type graphQLRequest struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// variables are the argument values the sandbox understands.
type variables struct {
	Login    string              `json:"login"`
	Password string              `json:"password"`
	Q        string              `json:"q"`
	Cart     []catalog.OrderLine `json:"cart"`
}

// HandleGraphQL handles POST /graphql.
func (s *Server) HandleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	field, err := rootField(req.Query)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, err)
		return
	}

	var vars variables
	if len(req.Variables) > 0 && string(req.Variables) != "null" {
		if err := json.Unmarshal(req.Variables, &vars); err != nil {
			writeErrors(w, http.StatusBadRequest, fmt.Errorf("invalid variables: %w", err))
			return
		}
	}

	result, err := s.resolve(r, field, vars)
	if err != nil {
		s.resolved.WithLabelValues(field, "error").Inc()
		s.logger.InfoContext(r.Context(), "graphql field failed",
			"field", field,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeErrors(w, http.StatusOK, err)
		return
	}

	s.resolved.WithLabelValues(field, "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{field: result}})
}

func (s *Server) resolve(r *http.Request, field string, vars variables) (any, error) {
	switch field {
	case "UserUpsert":
		return s.backend.Register(vars.Login, vars.Password)
	case "login":
		return s.backend.Login(vars.Login, vars.Password)
	case "CategoryFind":
		return s.backend.CategoryFind(vars.Q)
	case "CategoryFindOne":
		return s.backend.CategoryFindOne(vars.Q)
	case "GoodFindOne":
		return s.backend.GoodFindOne(vars.Q)
	case "OrderFind":
		sub, err := s.subject(r)
		if err != nil {
			return nil, err
		}
		return s.backend.OrderFind(sub), nil
	case "OrderUpsert":
		sub, err := s.subject(r)
		if err != nil {
			return nil, err
		}
		return s.backend.OrderUpsert(sub, vars.Cart)
	}
	return nil, fmt.Errorf("unknown root field %q", field)
}

func (s *Server) subject(r *http.Request) (Subject, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Subject{}, ErrUnauthorized
	}
	sub, err := s.backend.Authenticate(token)
	if err != nil {
		return Subject{}, errors.Join(ErrUnauthorized, err)
	}
	return sub, nil
}

// rootField returns the name of the first field in the document's top
// selection set.
func rootField(query string) (string, error) {
	open := strings.IndexByte(query, '{')
	if open < 0 {
		return "", errors.New("query has no selection set")
	}
	rest := strings.TrimLeftFunc(query[open+1:], unicode.IsSpace)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		return "", errors.New("query selects no field")
	}
	return rest[:end], nil
}

func writeErrors(w http.ResponseWriter, status int, errs ...error) {
	out := make([]graphQLError, len(errs))
	for i, err := range errs {
		out[i] = graphQLError{Message: err.Error()}
	}
	writeJSON(w, status, map[string]any{"data": nil, "errors": out})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
