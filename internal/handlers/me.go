package handlers

import (
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/middleware"
)

// Me handles GET /api/me, returning the authenticated caller's profile as
// seen by the auth token.
func Me(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.GetAuth(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, domain.UserRef{
		ID:    info.UserID,
		Name:  info.Name,
		Email: info.Email,
	})
}
