package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/auth"
)

func callerFromContext(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return auth.Claims{}, false
	}
	return claims, true
}

// inScope reports whether the caller may touch a resource owned by branchID.
// Admins work across branches; everyone else only sees their own, and a
// resource outside it is reported as not found.
func inScope(c auth.Claims, branchID uuid.UUID) bool {
	return c.Role == auth.RoleAdmin || c.BranchID == branchID
}

func idFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return uuid.Nil, false
	}
	return id, true
}
