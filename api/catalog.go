package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aanooo/erp-system/models"
)

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) searchProducts(c *gin.Context) {
	products, err := h.products.Search(c.Request.Context(), c.Param("term"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := bindJSON(c, &product); err != nil {
		respondError(c, err)
		return
	}
	if err := h.products.Create(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "id": product.ID})
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var product models.Product
	if err := bindJSON(c, &product); err != nil {
		respondError(c, err)
		return
	}
	if err := h.products.Update(c.Request.Context(), id, &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully"})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) searchSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.Search(c.Request.Context(), c.Param("term"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) getSupplier(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	supplier, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) createSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := bindJSON(c, &supplier); err != nil {
		respondError(c, err)
		return
	}
	if err := h.suppliers.Create(c.Request.Context(), &supplier); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Supplier created successfully", "id": supplier.ID})
}

func (h *Handler) updateSupplier(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var supplier models.Supplier
	if err := bindJSON(c, &supplier); err != nil {
		respondError(c, err)
		return
	}
	if err := h.suppliers.Update(c.Request.Context(), id, &supplier); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier updated successfully"})
}

func (h *Handler) deleteSupplier(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}
