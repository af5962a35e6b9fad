package controllers

import (
	"net/http"

	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/api/validators"
	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

// AdminListActivity returns the audit trail, newest first.
func AdminListActivity(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor"),
		}
		filters := activity.ListFilters{
			UserID: validators.QueryString(r, "user_id"),
			Action: validators.QueryString(r, "action"),
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
