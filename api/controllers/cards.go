package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/api/validators"
	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

// ListCards serves the public catalog with optional set/rarity/name filters.
func ListCards(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCards(r.Context(), catalog.ListFilters{
			SetCode: validators.QueryString(r, "set"),
			Rarity:  validators.QueryString(r, "rarity"),
			Search:  validators.QueryString(r, "search"),
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetCard serves one card with its per-variant price and stock.
func GetCard(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		detail, err := svc.GetCard(r.Context(), chi.URLParam(r, "cardId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
