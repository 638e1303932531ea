package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pawpal-io/pawpal-backend/api/middleware"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
)

// currentUserID extracts the authenticated user's id from the request context.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

// isAdmin reports whether the request carries the admin role.
func isAdmin(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == enums.UserRoleAdmin.String()
}
