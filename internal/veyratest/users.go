package veyratest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/gin-gonic/gin"
)

func renderUser(u *userRow) gin.H {
	return gin.H{
		"id":         u.id,
		"username":   u.username,
		"role":       u.role,
		"created_at": formatTime(u.createdAt),
	}
}

func validRole(role string) bool {
	return role == string(models.RoleUser) || role == string(models.RoleAdmin)
}

// findUser must be called with s.mu held. key is an id or a username.
func (s *Server) findUser(key string) *userRow {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		if u, ok := s.users[id]; ok {
			return u
		}
	}
	for _, u := range s.users {
		if u.username == key {
			return u
		}
	}
	return nil
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		out = append(out, renderUser(s.users[id]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(c.Param("id"))
	if u == nil {
		errorJSON(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, renderUser(u))
}

func (s *Server) createUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "Username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !validRole(string(req.Role)) {
		errorJSON(c, http.StatusBadRequest, "Invalid role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.username == req.Username {
			errorJSON(c, http.StatusConflict, "Username already exists")
			return
		}
	}

	u := s.addUserLocked(req.Username, req.Password, string(req.Role))
	data := fmt.Sprintf(`{"username":%q}`, u.username)
	s.logActivity(claimsOf(c).UserID, "user_created", &data)

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "id": u.id})
}

func (s *Server) updateUserRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validRole(string(req.Role)) {
		errorJSON(c, http.StatusBadRequest, "Invalid role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUser(c.Param("id"))
	if u == nil {
		errorJSON(c, http.StatusNotFound, "User not found")
		return
	}
	u.role = string(req.Role)
	data := fmt.Sprintf(`{"user_id":%d,"role":%q}`, u.id, u.role)
	s.logActivity(claimsOf(c).UserID, "user_role_updated", &data)
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully"})
}

func (s *Server) deleteUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(c.Param("id"))
	if u == nil {
		errorJSON(c, http.StatusNotFound, "User not found")
		return
	}
	if u.id == claimsOf(c).UserID {
		errorJSON(c, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	delete(s.users, u.id)
	data := fmt.Sprintf(`{"user_id":%d}`, u.id)
	s.logActivity(claimsOf(c).UserID, "user_deleted", &data)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
