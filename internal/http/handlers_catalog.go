package http

import (
	"net/http"
	"time"

	"gastos/internal/core"
	"gastos/internal/log"
)

type catalogResponse struct {
	UserID     string             `json:"userId"`
	Items      []core.CatalogItem `json:"items"`
	Categories []core.CategoryRow `json:"categories"`
	LoadedAt   string             `json:"loadedAt"`
}

// handleCatalog returns the caller's snapshot as voice resolution sees it.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		BadRequestError("Usuario inválido").Write(w)
		return
	}
	snap, err := s.deps.Catalog.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Body(catalogResponse{
		UserID:     userID,
		Items:      snap.Items,
		Categories: snap.Categories,
		LoadedAt:   snap.LoadedAt.UTC().Format(time.RFC3339),
	}).Write(w)
}

// handleCatalogInvalidate drops the caller's snapshot so the next request reloads it.
func (s *Server) handleCatalogInvalidate(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		BadRequestError("Usuario inválido").Write(w)
		return
	}
	s.deps.Catalog.Invalidate(userID)
	log.FromContext(r.Context()).WithComponent(log.ComponentCatalog).InfoContext(r.Context(),
		"Catalog snapshot invalidated", log.FieldUserID, userID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
