package http

import (
	"errors"
	"net/http"
	"strings"

	"budgetbolt/internal/core"
)

type projectRequest struct {
	Name        string             `json:"name"`
	ClientName  string             `json:"client_name"`
	Description string             `json:"description"`
	HourlyRate  *core.Money        `json:"hourly_rate"`
	Status      core.ProjectStatus `json:"status"`
}

// projectPatchRequest is the PUT and PATCH body. Only the fields present
// are changed.
type projectPatchRequest struct {
	Name        *string             `json:"name"`
	ClientName  *string             `json:"client_name"`
	Description *string             `json:"description"`
	HourlyRate  *core.Money         `json:"hourly_rate"`
	Status      *core.ProjectStatus `json:"status"`
}

func (req projectPatchRequest) toPatch() core.ProjectPatch {
	return core.ProjectPatch{
		Name:        sanitized(req.Name),
		ClientName:  sanitized(req.ClientName),
		Description: sanitized(req.Description),
		HourlyRate:  req.HourlyRate,
		Status:      req.Status,
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	projects, err := s.ledger.ListProjects(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}
	NewJSONResponse().Body(projects).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.ledger.CreateProject(r.Context(), core.Project{
		OwnerID:     ownerID,
		Name:        sanitizeInput(req.Name),
		ClientName:  sanitizeInput(req.ClientName),
		Description: sanitizeInput(req.Description),
		HourlyRate:  req.HourlyRate,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/projects/"+p.ID).
		Body(p).
		Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.ledger.GetProject(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeProjectError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req projectPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.ledger.UpdateProject(r.Context(), ownerID, r.PathValue("id"), req.toPatch())
	if err != nil {
		writeProjectError(w, r, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteProject(r.Context(), ownerID, r.PathValue("id")); err != nil {
		writeProjectError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListCategories lists the global categories, optionally of one
// type (?type=income|expense).
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(strings.TrimSpace(r.URL.Query().Get("type")))
	if kind != "" && !kind.IsValid() {
		writeError(w, r, badRequest("type must be income or expense"))
		return
	}
	cats, err := s.ledger.ListCategories(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	NewJSONResponse().Body(cats).Write(w)
}

func writeProjectError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError("Project not found").Write(w)
		return
	}
	writeError(w, r, err)
}
