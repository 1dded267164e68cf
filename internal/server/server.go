// Package server exposes a read-only HTTP introspection API over the
// region history store, grounded on the teacher's chi router layering.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/taskdag/internal/store"
)

// Server is the introspection HTTP API.
type Server struct {
	logger *slog.Logger
	store  *store.Store
	router chi.Router
}

// New builds a Server backed by st.
func New(logger *slog.Logger, st *store.Store) *Server {
	s := &Server{logger: logger.With("component", "server"), store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/regions", s.listRegions)
	r.Get("/regions/{id}", s.getRegion)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.store.ListRegions(r.Context())
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, regions)
}

func (s *Server) getRegion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	region, ok, err := s.store.GetRegion(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, s.logger, http.StatusNotFound, "region not found")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, region)
}
