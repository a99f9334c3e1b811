// Package models defines the records exchanged with the Veyra service.
package models

// Role is the access level of a Veyra account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a Veyra account as returned by /api/users.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt Timestamp `json:"created_at"`
}

// UserPartial is the user shape embedded in login responses.
type UserPartial struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// AuthResponse is the body of a successful POST /api/auth/login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserPartial `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type CreateUserResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

type UserList struct {
	Users []User `json:"users"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
