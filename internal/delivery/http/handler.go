package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ordering/internal/entity"
	"ordering/internal/metrics"
	"ordering/internal/runtime"
	"ordering/internal/saga"
)

// Handler exposes the saga operations over HTTP. Everything here is thin
// glue around the router; no business rules live in this package.
type Handler struct {
	engine *gin.Engine
	router *runtime.Router
	logger *slog.Logger
}

func NewHandler(router *runtime.Router, logger *slog.Logger) *Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := &Handler{engine: engine, router: router, logger: logger}
	h.routes()
	return h
}

func (h *Handler) Engine() *gin.Engine { return h.engine }

func (h *Handler) routes() {
	h.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := h.engine.Group("/api/orders")
	api.POST("", h.submitOrder)
	api.GET(":id", h.getOrder)
	api.PUT(":id/cancel", h.cancelOrder)
	api.PUT(":id/ship", h.shipOrder)
}

type submitOrderRequest struct {
	BuyerID   string                `json:"buyer_id" binding:"required"`
	BuyerName string                `json:"buyer_name" binding:"required"`
	Street    string                `json:"street"`
	City      string                `json:"city"`
	State     string                `json:"state"`
	Country   string                `json:"country"`
	ZipCode   string                `json:"zip_code"`
	Basket    entity.CustomerBasket `json:"basket" binding:"required"`
}

func (h *Handler) submitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Basket.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "basket must have at least one item"})
		return
	}

	orderID := uuid.New()
	err := h.router.Invoke(c.Request.Context(), orderID, "submit", func(ctx context.Context, p *saga.Process) error {
		return p.Submit(ctx, req.BuyerID, req.BuyerName, req.Street, req.City, req.ZipCode, req.State, req.Country, req.Basket)
	})
	if err != nil {
		h.logger.Error("Failed to submit order", "order_id", orderID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id": orderID.String(),
		"status":   entity.StatusSubmitted.String(),
	})
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var order entity.Order
	err := h.router.Invoke(c.Request.Context(), orderID, "get", func(ctx context.Context, p *saga.Process) error {
		var err error
		order, err = p.OrderDetails(ctx)
		return err
	})
	if errors.Is(err, saga.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get order", "order_id", orderID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}

	c.JSON(http.StatusOK, orderResponse(orderID, order))
}

func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var cancelled bool
	err := h.router.Invoke(c.Request.Context(), orderID, "cancel", func(ctx context.Context, p *saga.Process) error {
		var err error
		cancelled, err = p.Cancel(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("Failed to cancel order", "order_id", orderID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel order"})
		return
	}
	if !cancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "order cannot be cancelled"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) shipOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var shipped bool
	err := h.router.Invoke(c.Request.Context(), orderID, "ship", func(ctx context.Context, p *saga.Process) error {
		var err error
		shipped, err = p.Ship(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("Failed to ship order", "order_id", orderID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ship order"})
		return
	}
	if !shipped {
		c.JSON(http.StatusConflict, gin.H{"error": "order cannot be shipped"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) orderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return uuid.UUID{}, false
	}
	return orderID, true
}

type orderItemResponse struct {
	ProductName string  `json:"product_name"`
	Units       int     `json:"units"`
	UnitPrice   float64 `json:"unit_price"`
	PictureURL  string  `json:"picture_url"`
}

func orderResponse(orderID uuid.UUID, order entity.Order) gin.H {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductName: item.ProductName,
			Units:       item.Units,
			UnitPrice:   item.UnitPrice,
			PictureURL:  item.PictureURL,
		})
	}
	return gin.H{
		"order_id":    orderID.String(),
		"order_date":  order.OrderDate,
		"status":      order.Status.String(),
		"description": order.Description,
		"street":      order.Address.Street,
		"city":        order.Address.City,
		"state":       order.Address.State,
		"country":     order.Address.Country,
		"zip_code":    order.Address.ZipCode,
		"buyer_name":  order.BuyerName,
		"items":       items,
		"total":       order.Total(),
	}
}
