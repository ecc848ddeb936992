package service

import (
	"net/http"

	"github.com/prasannakumar32/smart-bookmark/internal/auth"
	"github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/models"
)

type Token struct {
	TokenModel *models.TokenModel
}

func (t *Token) AuthenticatedPing(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("authenticated pong"))
}

// DeleteToken revokes the token used to authenticate this request. Sign-out
// on a device calls this so the token stops working everywhere at once.
//
// @Success 200 {string} string "Token deleted"
// @Failure 400 {string} string "Invalid authorization header"
// @Router /api/v1/tokens/current [delete]
func (t *Token) DeleteToken(w http.ResponseWriter, r *http.Request) {
	logger := context.Logger(r.Context())
	token := auth.BearerToken(r)
	if token == "" {
		logger.Infow("delete token without bearer token")
		http.Error(w, "Invalid authorization header", http.StatusBadRequest)
		return
	}

	if err := t.TokenModel.DeleteByToken(r.Context(), token); err != nil {
		logger.Errorw("failed to delete current token", "error", err)
		http.Error(w, "Failed to delete token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Token deleted"))
}
