package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aanooo/erp-system/auth"
	"github.com/aanooo/erp-system/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func sessionResponse(s *auth.Session) gin.H {
	return gin.H{"success": true, "user": s.User, "token": s.Token}
}

func (h *Handler) login(c *gin.Context) {
	var req credentials
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

func (h *Handler) register(c *gin.Context) {
	var req credentials
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	session, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Name)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username exists"})
		return
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	case err != nil:
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}
