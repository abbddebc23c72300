package auth

import (
	"time"

	"github.com/Skotchmaster/comic_reader/internal/models"
)

const dateLayout = "2006-01-02"

type Envelope struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	IsMale      bool   `json:"is_male"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	DateOfBirth string      `json:"date_of_birth,omitempty"`
	IsMale      bool        `json:"is_male"`
	Role        models.Role `json:"role"`
	CreatedAt   time.Time   `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	res := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		IsMale:    u.IsMale,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if !u.DateOfBirth.IsZero() {
		res.DateOfBirth = u.DateOfBirth.Format(dateLayout)
	}
	return res
}

type userListResponse struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Items []userResponse `json:"items"`
}
