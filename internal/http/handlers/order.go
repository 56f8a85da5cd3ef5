package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func orderQuery(c *gin.Context) (services.OrderQuery, bool) {
	var q services.OrderQuery
	var ok bool
	if q.Page, ok = queryInt(c, "page", 1); !ok {
		return q, false
	}
	if q.Limit, ok = queryInt(c, "limit", services.DefaultPageLimit); !ok {
		return q, false
	}
	q.Status = c.Query("status")
	q.PaymentStatus = c.Query("payment_status")
	q.Query = c.Query("q")
	return q, true
}

// POST /api/orders
func (oh *OrderHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	req.ClientIP = c.ClientIP()
	placed, err := oh.orderService.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, placed)
}

// GET /api/orders?status&page&limit
func (oh *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	out, err := oh.orderService.ListMine(c.Request.Context(), userID, q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/orders/:id
func (oh *OrderHandler) GetMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := oh.orderService.GetMine(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// POST /api/orders/:id/cancel
// body: { "reason": "..." } (optional)
func (oh *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	o, err := oh.orderService.Cancel(c.Request.Context(), userID, id, req.Reason)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// POST /api/orders/:id/payment-url
// body: { "bank_code": "NCB" } (optional)
func (oh *OrderHandler) RetryPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		BankCode string `json:"bank_code"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	placed, err := oh.orderService.RetryPayment(c.Request.Context(), userID, id, c.ClientIP(), req.BankCode)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, placed)
}

// GET /api/admin/orders?status&payment_status&q&page&limit
func (oh *OrderHandler) AdminList(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	out, err := oh.orderService.AdminList(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/admin/orders/:id
func (oh *OrderHandler) AdminGet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := oh.orderService.AdminGet(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// PATCH /api/admin/orders/:id/status
// body: { "status": "confirmed", "reason": "..." }
func (oh *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status types.OrderStatus `json:"status"`
		Reason string            `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	o, err := oh.orderService.AdminUpdateStatus(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}
