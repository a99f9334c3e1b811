package veyratest

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/token"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

func (s *Server) login(c *gin.Context) {
	s.logins.Add(1)

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	s.mu.Lock()
	var found *userRow
	for _, u := range s.users {
		if u.username == req.Username && u.password == req.Password {
			found = u
			break
		}
	}
	if found != nil {
		s.logActivity(found.id, "login", nil)
	}
	s.mu.Unlock()

	if found == nil {
		errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tok, err := token.Generate(found.id, found.username, found.role, s.secret, s.tokenTTL)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": tok,
		"user":  gin.H{"id": found.id, "username": found.username, "role": found.role},
	})
}

func (s *Server) authMiddleware(c *gin.Context) {
	s.requests.Add(1)

	if s.rejectNext.Load() > 0 {
		s.rejectNext.Add(-1)
		errorJSON(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		errorJSON(c, http.StatusUnauthorized, "Access token required")
		return
	}
	claims, err := token.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), s.secret)
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	s.mu.Lock()
	_, exists := s.users[claims.UserID]
	s.mu.Unlock()
	if !exists {
		errorJSON(c, http.StatusUnauthorized, "User no longer exists")
		return
	}

	c.Set(claimsKey, claims)
	c.Next()
}

func requireAdmin(c *gin.Context) {
	if claimsOf(c).Role != "admin" {
		errorJSON(c, http.StatusForbidden, "Admin access required")
		return
	}
	c.Next()
}

func claimsOf(c *gin.Context) *token.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*token.Claims); ok {
			return claims
		}
	}
	return &token.Claims{}
}

func (s *Server) changePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		errorJSON(c, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[claimsOf(c).UserID]
	if u.password != req.CurrentPassword {
		errorJSON(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	u.password = req.NewPassword
	s.logActivity(u.id, "password_changed", nil)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
