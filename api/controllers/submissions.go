package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-tcg/inkwell-backend/api/middleware"
	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/api/validators"
	"github.com/inkwell-tcg/inkwell-backend/internal/submissions"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

type reviewPayload struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// SubmitCard accepts a community card submission for the pending queue.
func SubmitCard(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		var payload submissions.SubmissionInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submission, err := svc.Submit(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, submission)
	}
}

// AdminListSubmissions returns the review queue, optionally filtered by status.
func AdminListSubmissions(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := submissions.ListFilters{
			Status: enums.SubmissionStatus(validators.QueryString(r, "status")),
			Limit:  limit,
			Offset: offset,
		}

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminGetSubmission returns one submission by id.
func AdminGetSubmission(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "submissionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "submission id must be a uuid"))
			return
		}

		submission, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// AdminApproveSubmission approves a pending submission and publishes the card.
func AdminApproveSubmission(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewSubmission(svc, logg, true)
}

// AdminRejectSubmission rejects a pending submission with optional notes.
func AdminRejectSubmission(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewSubmission(svc, logg, false)
}

func reviewSubmission(svc submissions.Service, logg *logger.Logger, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submissions service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "submissionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "submission id must be a uuid"))
			return
		}

		var payload reviewPayload
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := submissions.ReviewInput{
			SubmissionID: id,
			ReviewerID:   auth.UserID,
			Notes:        payload.Notes,
		}
		review := svc.Reject
		if approve {
			review = svc.Approve
		}

		submission, err := review(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}
