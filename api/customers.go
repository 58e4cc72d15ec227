package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aanooo/erp-system/models"
)

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) searchCustomers(c *gin.Context) {
	customers, err := h.customers.Search(c.Request.Context(), c.Param("term"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	customer, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var customer models.Customer
	if err := bindJSON(c, &customer); err != nil {
		respondError(c, err)
		return
	}
	if err := h.customers.Create(c.Request.Context(), &customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Customer created successfully", "id": customer.ID})
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var customer models.Customer
	if err := bindJSON(c, &customer); err != nil {
		respondError(c, err)
		return
	}
	if err := h.customers.Update(c.Request.Context(), id, &customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer updated successfully"})
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
