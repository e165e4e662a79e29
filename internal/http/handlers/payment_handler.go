package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/dto"
	"github.com/ignatzorin/koihire-backend/internal/http/handlers/common"
	"github.com/ignatzorin/koihire-backend/internal/http/response"
	"github.com/ignatzorin/koihire-backend/internal/service"
)

// PaymentHandler эскроу проектов, журнал операций и подключение выплат.
type PaymentHandler struct {
	escrow  *service.EscrowService
	connect *service.ConnectService
}

func NewPaymentHandler(escrow *service.EscrowService, connect *service.ConnectService) *PaymentHandler {
	return &PaymentHandler{escrow: escrow, connect: connect}
}

// CreatePaymentIntent POST /payments/project/create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.CreatePaymentIntentRequest
	if !common.BindJSON(c, &req) {
		return
	}

	session, err := h.escrow.BeginFunding(c.Request.Context(), uuid.MustParse(req.ProjectID), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// ConfirmPayment POST /payments/project/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.ConfirmPaymentRequest
	if !common.BindJSON(c, &req) {
		return
	}

	escrow, err := h.escrow.FundEscrow(c.Request.Context(), uuid.MustParse(req.ProjectID), userID, req.PaymentIntentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, escrow)
}

// Breakdown GET /payments/project/:projectId/breakdown
func (h *PaymentHandler) Breakdown(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	projectID, ok := common.UUIDParam(c, "projectId")
	if !ok {
		return
	}

	breakdown, err := h.escrow.Breakdown(c.Request.Context(), projectID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, breakdown)
}

// GetProjectEscrow GET /payments/escrow/project/:projectId
func (h *PaymentHandler) GetProjectEscrow(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	projectID, ok := common.UUIDParam(c, "projectId")
	if !ok {
		return
	}

	escrow, err := h.escrow.GetEscrowForProject(c.Request.Context(), projectID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, escrow)
}

// Release POST /payments/escrow/:escrowId/release
func (h *PaymentHandler) Release(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	escrowID, ok := common.UUIDParam(c, "escrowId")
	if !ok {
		return
	}

	escrow, err := h.escrow.ReleaseEscrow(c.Request.Context(), escrowID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, escrow)
}

// Refund POST /payments/escrow/:escrowId/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	escrowID, ok := common.UUIDParam(c, "escrowId")
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !common.BindJSON(c, &req) {
		return
	}

	escrow, err := h.escrow.RefundEscrow(c.Request.Context(), escrowID, userID, common.CurrentUserRole(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, escrow)
}

// Dispute POST /payments/escrow/:escrowId/dispute
func (h *PaymentHandler) Dispute(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	escrowID, ok := common.UUIDParam(c, "escrowId")
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !common.BindJSON(c, &req) {
		return
	}

	escrow, err := h.escrow.OpenDispute(c.Request.Context(), escrowID, userID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, escrow)
}

// ListTransactions GET /payments/transactions
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	txs, err := h.escrow.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txs)
}

// Earnings GET /payments/earnings
func (h *PaymentHandler) Earnings(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	earnings, err := h.escrow.LifetimeEarnings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, earnings)
}

// CreateConnectAccount POST /payments/connect/create-account
func (h *PaymentHandler) CreateConnectAccount(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	onboarding, err := h.connect.CreateAccount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, onboarding)
}

// ConnectStatus GET /payments/connect/status
func (h *PaymentHandler) ConnectStatus(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	status, err := h.connect.Status(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}
