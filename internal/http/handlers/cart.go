package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GET /api/cart
func (ch *CartHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cart, err := ch.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cart)
}

// POST /api/cart/items
// body: { "product_id": "...", "quantity": 1 }
func (ch *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cart, err := ch.cartService.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cart)
}

// PATCH /api/cart/items/:product_id
// body: { "quantity": 0 } removes the line
func (ch *CartHandler) SetItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cart, err := ch.cartService.SetItem(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cart)
}

// DELETE /api/cart/items/:product_id
func (ch *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	cart, err := ch.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cart)
}

// DELETE /api/cart
func (ch *CartHandler) Clear(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := ch.cartService.Clear(c.Request.Context(), userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
