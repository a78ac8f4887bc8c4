package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bugabuga/commerce-backend/api/middleware"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
)

// actorID resolves the authenticated user id seeded by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
