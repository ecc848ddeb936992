package auth

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/models"
)

// Device hands an api token to a client process that is waiting on a
// loopback port. The client opens /device/auth?port=N in the user's
// browser; once the user is signed in we mint a token and redirect the
// browser to the client's local callback.
type Device struct {
	TokenModel *models.TokenModel
}

func (d *Device) Authorize(w http.ResponseWriter, r *http.Request) {
	logger := context.Logger(r.Context())
	user := context.User(r.Context())
	if user == nil {
		http.Error(w, "User not authenticated", http.StatusUnauthorized)
		return
	}

	port, err := strconv.Atoi(r.URL.Query().Get("port"))
	if err != nil || port < 1 || port > 65535 {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	token, err := d.TokenModel.Create(r.Context(), user.ID, "device")
	if err != nil {
		logger.Errorw("create device token", "error", err, "user", user.ID)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	// The callback listener only binds loopback, so the token never
	// leaves the machine the browser is running on.
	http.Redirect(w, r, fmt.Sprintf("http://127.0.0.1:%d/callback?token=%s", port, token.Token), http.StatusFound)
}
