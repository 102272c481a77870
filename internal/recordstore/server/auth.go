package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func (s *Server) ObtainToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		AbortWithError(c, newValidationError("credentials", "required", "username and password are required"))
		return
	}

	pair, err := s.auth.Login(c.Request.Context(), username, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (s *Server) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		AbortWithError(c, newValidationError("refresh", "required", "refresh is required"))
		return
	}

	pair, err := s.auth.Refresh(c.Request.Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Access: pair.Access})
}
