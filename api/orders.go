package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aanooo/erp-system/orders"
)

func (h *Handler) listOrders(c *gin.Context) {
	list, err := h.orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) orderDetails(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	details, err := h.orders.Details(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req orders.PlaceOrderRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	order, err := h.orders.Place(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"orderID": order.ID,
		"total":   order.TotalAmount,
	})
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Status string `json:"Status" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
}
