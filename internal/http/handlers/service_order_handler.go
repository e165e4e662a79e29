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

// ServiceOrderHandler пакеты услуг и заказы по ним.
type ServiceOrderHandler struct {
	orders *service.ServiceOrderService
}

func NewServiceOrderHandler(orders *service.ServiceOrderService) *ServiceOrderHandler {
	return &ServiceOrderHandler{orders: orders}
}

// CreatePackage POST /service-packages
func (h *ServiceOrderHandler) CreatePackage(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.CreatePackageRequest
	if !common.BindJSON(c, &req) {
		return
	}

	pkg, err := h.orders.CreatePackage(c.Request.Context(), userID, common.CurrentUserRole(c), service.CreatePackageInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		DeliveryDays: req.DeliveryDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pkg)
}

// GetPackage GET /service-packages/:id
func (h *ServiceOrderHandler) GetPackage(c *gin.Context) {
	packageID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	pkg, err := h.orders.GetPackage(c.Request.Context(), packageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pkg)
}

// ListPackages GET /freelancers/:id/service-packages
func (h *ServiceOrderHandler) ListPackages(c *gin.Context) {
	freelancerID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	packages, err := h.orders.ListPackages(c.Request.Context(), freelancerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, packages)
}

// CreateOrder POST /service-orders
func (h *ServiceOrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	var req dto.CreateServiceOrderRequest
	if !common.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), userID, common.CurrentUserRole(c), uuid.MustParse(req.PackageID), req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// ListMine GET /service-orders/my
func (h *ServiceOrderHandler) ListMine(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orders)
}

// GetOrder GET /service-orders/:id
func (h *ServiceOrderHandler) GetOrder(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}

// UpdateStatus PATCH /service-orders/:id/status
func (h *ServiceOrderHandler) UpdateStatus(c *gin.Context) {
	userID, ok := common.RequireUser(c)
	if !ok {
		return
	}
	orderID, ok := common.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}
	status, err := valueobject.NewServiceOrderStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.orders.ChangeStatus(c.Request.Context(), orderID, userID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}
