package service

import (
	"net/http"

	"github.com/prasannakumar32/smart-bookmark/internal/auth/context"
)

type User struct{}

// CurrentUserAPI returns the caller's identity. Clients hit this on startup
// to validate a stored token before trusting cached data.
//
// @Produce json
// @Success 200 {object} struct{Email string}
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/v1/user/me [get]
func (u *User) CurrentUserAPI(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	var data struct {
		Email string `json:"email"`
	}
	data.Email = user.Email
	writeResponse(w, r, data)
}
