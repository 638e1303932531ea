package controllers

import (
	"net/http"

	"github.com/pawpal-io/pawpal-backend/api/responses"
	dispensesvc "github.com/pawpal-io/pawpal-backend/internal/dispense"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/logger"
)

// DispenseNow triggers a manual feed for one of the caller's schedules.
func DispenseNow(svc dispensesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispense service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scheduleID, err := parseIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		log, err := svc.DispenseNow(r.Context(), userID, scheduleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, log)
	}
}
