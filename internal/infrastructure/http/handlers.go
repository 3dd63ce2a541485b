package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	paymentApplication "github.com/MatLock/UdeSa-Ing-Examen/internal/application/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
)

type PaymentHandler struct {
	Service *paymentApplication.Service
}

// PaymentRequest is read from a JSON body, or from the query string for
// older clients that send the update as query parameters (?amount=&payment_method=).
type PaymentRequest struct {
	Amount *float64 `json:"amount" form:"amount" binding:"required"`
	Method string   `json:"method" form:"payment_method" binding:"required"`
}

type PaymentResponse struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func toResponse(p *payment.Payment) PaymentResponse {
	rec := p.Serialize()
	return PaymentResponse{
		ID:            p.ID(),
		Amount:        rec.Amount,
		Status:        rec.Status,
		PaymentMethod: rec.PaymentMethod,
	}
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	all, err := h.Service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request: " + err.Error()})
		return
	}

	p, err := h.Service.Create(c.Request.Context(), c.Param("id"), decimal.NewFromFloat(*req.Amount), req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(p))
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request: " + err.Error()})
		return
	}

	p, err := h.Service.Update(c.Request.Context(), c.Param("id"), decimal.NewFromFloat(*req.Amount), req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func (h *PaymentHandler) PayPayment(c *gin.Context) {
	p, err := h.Service.Pay(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func (h *PaymentHandler) RevertPayment(c *gin.Context) {
	p, err := h.Service.Revert(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payment.ErrValidation),
		errors.Is(err, payment.ErrInvalidTransition),
		errors.Is(err, payment.ErrAlreadyExists),
		errors.Is(err, payment.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	detail := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		detail = "internal error"
	}
	c.JSON(code, errorResponse{Detail: detail})
}
