package controller

import (
	"net/http"

	"github.com/YuriTheCoder/apipagamento/internal/domain/payment"
	"github.com/YuriTheCoder/apipagamento/internal/service"
	"github.com/go-chi/chi/v5"
)

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	paymentService *service.PaymentService
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentService.Create(r.Context(), service.CreatePaymentRequest{
		ExternalID:  req.ExternalID,
		AmountCents: floatToCents(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/payments/"+p.ExternalID)
	writeJSON(w, http.StatusCreated, FromPayment(p))
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, FromPayment(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPayment handles GET /api/v1/payments/{externalId}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalId")

	p, err := h.paymentService.GetByExternalID(r.Context(), externalID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// UpdateStatus handles PATCH /api/v1/payments/{externalId}/status
func (h *PaymentController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalId")

	var req UpdateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	status, err := payment.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentService.UpdateStatus(r.Context(), externalID, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// RefundPayment handles POST /api/v1/payments/{externalId}/refund
func (h *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalId")

	var req RefundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentService.Refund(r.Context(), service.RefundRequest{
		ExternalID:  externalID,
		AmountCents: floatToCents(req.Amount),
		Reason:      req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}
