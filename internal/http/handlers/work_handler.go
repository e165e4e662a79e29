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

// WorkHandler лента активной работы фрилансера и заметки к ней.
type WorkHandler struct {
	work *service.WorkService
}

func NewWorkHandler(work *service.WorkService) *WorkHandler {
	return &WorkHandler{work: work}
}

// ActiveWork GET /freelancer/active-work?type=all|projects|services
func (h *WorkHandler) ActiveWork(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	filter, err := service.ParseWorkFilter(c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	work, err := h.work.ListActiveWork(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, work)
}

// GetNote GET /work-notes/:itemType/:itemId
func (h *WorkHandler) GetNote(c *gin.Context) {
	userID, ref, ok := h.noteTarget(c)
	if !ok {
		return
	}

	note, err := h.work.GetNote(c.Request.Context(), userID, ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	if note == nil {
		response.OK(c, gin.H{"note": nil})
		return
	}
	response.OK(c, note)
}

// SetNote POST /work-notes/:itemType/:itemId
func (h *WorkHandler) SetNote(c *gin.Context) {
	userID, ref, ok := h.noteTarget(c)
	if !ok {
		return
	}

	var req dto.NoteRequest
	if !common.BindJSON(c, &req) {
		return
	}

	note, err := h.work.SetNote(c.Request.Context(), userID, ref, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, note)
}

// DeleteNote DELETE /work-notes/:itemType/:itemId
func (h *WorkHandler) DeleteNote(c *gin.Context) {
	userID, ref, ok := h.noteTarget(c)
	if !ok {
		return
	}

	if err := h.work.DeleteNote(c.Request.Context(), userID, ref); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *WorkHandler) noteTarget(c *gin.Context) (userID uuid.UUID, ref valueobject.WorkItemRef, ok bool) {
	userID, ok = common.RequireUser(c)
	if !ok {
		return userID, ref, false
	}
	itemID, ok := common.UUIDParam(c, "itemId")
	if !ok {
		return userID, ref, false
	}

	ref, err := valueobject.NewWorkItemRef(c.Param("itemType"), itemID)
	if err != nil {
		response.Error(c, err)
		return userID, ref, false
	}
	return userID, ref, true
}
