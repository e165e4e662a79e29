package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/dto"
	"github.com/ignatzorin/koihire-backend/internal/http/handlers/common"
	"github.com/ignatzorin/koihire-backend/internal/http/response"
	"github.com/ignatzorin/koihire-backend/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if !common.BindJSON(c, &req) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, common.CurrentUserRole(c), service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		MinBudget:   req.MinBudget,
		MaxBudget:   req.MaxBudget,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// ListMine GET /projects/my
func (h *ProjectHandler) ListMine(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	projects, err := h.projects.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, projects)
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	projectID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), projectID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

// Hire POST /projects/:id/hire
func (h *ProjectHandler) Hire(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	projectID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.HireRequest
	if !common.BindJSON(c, &req) {
		return
	}

	project, err := h.projects.Hire(c.Request.Context(), projectID, userID, uuid.MustParse(req.FreelancerID), req.AgreedAmount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

// UpdateStatus PATCH /projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	projectID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}
	status, err := valueobject.NewProjectStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	project, err := h.projects.ChangeStatus(c.Request.Context(), projectID, userID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}
