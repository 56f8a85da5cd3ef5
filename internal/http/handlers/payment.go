package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// GET /api/payments/vnpay/return
func (ph *PaymentHandler) VNPayReturn(c *gin.Context) {
	res, err := ph.paymentService.HandleReturn(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/payments/vnpay/ipn
// VNPay expects HTTP 200 for every outcome; the verdict travels in RspCode.
func (ph *PaymentHandler) VNPayIPN(c *gin.Context) {
	response.RespondOK(c, ph.paymentService.HandleIPN(c.Request.Context(), c.Request.URL.Query()))
}
