package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-tcg/inkwell-backend/api/middleware"
	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/api/validators"
	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	"github.com/inkwell-tcg/inkwell-backend/internal/inventory"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
)

// AdminCreateCard adds a card to the catalog.
func AdminCreateCard(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		var payload catalog.CardInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.CreateCard(r.Context(), auth.UserID.String(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// AdminUpdateCard replaces a card's catalog data.
func AdminUpdateCard(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		var payload catalog.CardInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cardID := chi.URLParam(r, "cardId"); cardID != payload.ID {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "card id in path and body must match"))
			return
		}

		detail, err := svc.UpdateCard(r.Context(), auth.UserID.String(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminAdjustStock applies a signed stock delta to a card variant.
func AdminAdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		var payload inventory.StockAdjustment
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AdjustStock(r.Context(), auth.UserID.String(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// AdminSetPrice updates the sale price of a card variant.
func AdminSetPrice(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		var payload inventory.PriceUpdate
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdatePrice(r.Context(), auth.UserID.String(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}
