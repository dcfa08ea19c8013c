package orders

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
	"github.com/oakhaus/showroom/notify"
)

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	List(ctx context.Context, status string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type OrderRequest struct {
	CustomerName      string `json:"customer_name" validate:"required,max=200"`
	Email             string `json:"email" validate:"required,email,max=320"`
	Phone             string `json:"phone" validate:"required,max=40"`
	Address           string `json:"address" validate:"max=500"`
	ProductName       string `json:"product_name" validate:"max=200"`
	ProductCode       string `json:"product_code" validate:"max=100"`
	WoodType          string `json:"wood_type" validate:"max=50"`
	CushionType       string `json:"cushion_type" validate:"max=50"`
	CustomizationNote string `json:"customization_note" validate:"max=2000"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,max=50"`
}

type OrderHandler struct {
	repo      OrderStore
	notifier  notify.Notifier
	validator *httpx.Validator
	log       *zap.Logger
}

func NewOrderHandler(repo OrderStore, notifier notify.Notifier, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		repo:      repo,
		notifier:  notifier,
		validator: httpx.NewValidator(),
		log:       log,
	}
}

// HandleCreate serves POST /orders. The admin notification is best effort:
// once the order is stored a failed email only logs a warning.
func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input OrderRequest
	if !h.validator.Bind(w, r, &input) {
		return
	}

	order := &models.Order{
		CustomerName:      strings.TrimSpace(input.CustomerName),
		Email:             strings.TrimSpace(input.Email),
		Phone:             strings.TrimSpace(input.Phone),
		Address:           httpx.CleanText(input.Address),
		ProductName:       strings.TrimSpace(input.ProductName),
		ProductCode:       strings.TrimSpace(input.ProductCode),
		WoodType:          strings.TrimSpace(input.WoodType),
		CushionType:       strings.TrimSpace(input.CushionType),
		CustomizationNote: httpx.CleanText(input.CustomizationNote),
	}
	if order.CustomerName == "" || order.Phone == "" {
		fields := map[string]string{}
		if order.CustomerName == "" {
			fields["customer_name"] = "This field is required"
		}
		if order.Phone == "" {
			fields["phone"] = "This field is required"
		}
		httpx.ValidationFailed(w, fields)
		return
	}

	log := logging.FromRequest(h.log, r)
	if err := h.repo.Create(r.Context(), order); err != nil {
		log.Error("create order", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to submit order")
		return
	}

	if err := h.notifier.NotifyOrder(r.Context(), toEmail(order)); err != nil {
		log.Warn("order notification failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	httpx.JSON(w, http.StatusCreated, order)
}

// HandleList serves GET /admin/orders?status=.
func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		logging.FromRequest(h.log, r).Error("list orders", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

// HandleUpdateStatus serves PUT /admin/orders/{id}/status. Any non-empty
// status is accepted.
func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	var input statusRequest
	if !h.validator.Bind(w, r, &input) {
		return
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		httpx.ValidationFailed(w, map[string]string{"status": "This field is required"})
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), id, status); err != nil {
		h.writeStoreError(w, r, "update order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": status})
}

// HandleDelete serves DELETE /admin/orders/{id}.
func (h *OrderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid order id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, models.ErrOrderNotFound) {
		httpx.Error(w, http.StatusNotFound, "Order not found")
		return
	}
	logging.FromRequest(h.log, r).Error(op, zap.Error(err))
	httpx.Error(w, http.StatusInternalServerError, "Failed to update order")
}

func toEmail(o *models.Order) notify.OrderEmail {
	return notify.OrderEmail{
		CustomerName:      o.CustomerName,
		Email:             o.Email,
		Phone:             o.Phone,
		Address:           o.Address,
		ProductName:       o.ProductName,
		ProductCode:       o.ProductCode,
		WoodType:          o.WoodType,
		CushionType:       o.CushionType,
		CustomizationNote: o.CustomizationNote,
	}
}
