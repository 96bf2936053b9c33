package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

type StockService interface {
	CheckStock(ctx context.Context, req domain.AvailabilityRequest) error
	ProductSales(ctx context.Context, productID int64) (application.ProductSales, error)
}

type Handler struct {
	log     *slog.Logger
	service StockService
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service StockService) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("inventory-http"),
	}
}

type checkStockReq struct {
	Lines []domain.StockLine `json:"lines"`
}

type messageResp struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	ProductID *int64 `json:"productId,omitempty"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Get("/api/status", h.status)
	r.Post("/api/product/check-stock", h.checkStock)
	r.Get("/api/product/{id}/sales", h.productSales)
	return r
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    "Product-API",
		"status":     "up",
		"httpStatus": http.StatusOK,
	})
}

func (h *Handler) checkStock(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := h.tracer.Start(ctx, "CheckStock")
	defer span.End()

	var req checkStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResp{Status: http.StatusBadRequest, Message: "invalid body"})
		return
	}
	if err := h.service.CheckStock(ctx, domain.AvailabilityRequest{Lines: req.Lines}); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResp{Status: http.StatusOK, Message: "The stock is ok!"})
}

func (h *Handler) productSales(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProductSales")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResp{Status: http.StatusBadRequest, Message: "the product id must be informed"})
		return
	}
	sales, err := h.service.ProductSales(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := messageResp{Message: err.Error()}
	var se *domain.StockError
	if errors.As(err, &se) && !errors.Is(err, domain.ErrIncompleteLine) {
		resp.ProductID = &se.ProductID
	}

	switch {
	case domain.IsValidation(err):
		resp.Status = http.StatusBadRequest
	default:
		h.log.Error("request failed", "err", err)
		resp.Status = http.StatusInternalServerError
		resp.Message = "internal error"
	}
	writeJSON(w, resp.Status, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
