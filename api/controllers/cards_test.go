package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
)

type stubCatalogService struct {
	catalog.Service
	lastFilters catalog.ListFilters
	detail      *catalog.CardDetail
	err         error
}

func (s *stubCatalogService) ListCards(_ context.Context, filters catalog.ListFilters) (*catalog.CardList, error) {
	s.lastFilters = filters
	if s.err != nil {
		return nil, s.err
	}
	list := &catalog.CardList{Total: 0}
	if s.detail != nil {
		list.Cards = []catalog.CardDetail{*s.detail}
		list.Total = 1
	}
	return list, nil
}

func (s *stubCatalogService) GetCard(_ context.Context, id string) (*catalog.CardDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.detail == nil || s.detail.Card.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
	}
	return s.detail, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestListCards_FiltersFromQuery(t *testing.T) {
	svc := &stubCatalogService{detail: &catalog.CardDetail{Card: models.Card{ID: "tfc-42"}}}
	handler := ListCards(svc, testControllerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards?set=TFC&rarity=rare&search=elsa&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	want := catalog.ListFilters{SetCode: "TFC", Rarity: "rare", Search: "elsa", Limit: 10, Offset: 20}
	if svc.lastFilters != want {
		t.Fatalf("unexpected filters: %+v", svc.lastFilters)
	}

	var envelope struct {
		Data catalog.CardList `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != 1 || len(envelope.Data.Cards) != 1 {
		t.Fatalf("unexpected list: %+v", envelope.Data)
	}
}

func TestListCards_BadLimit(t *testing.T) {
	svc := &stubCatalogService{}
	handler := ListCards(svc, testControllerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards?limit=nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetCard(t *testing.T) {
	svc := &stubCatalogService{detail: &catalog.CardDetail{Card: models.Card{ID: "tfc-42", Name: "Elsa"}}}
	handler := GetCard(svc, testControllerLogger())

	makeRequest := func(cardID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cards/"+cardID, nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("cardId", cardID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("found", func(t *testing.T) {
		rec := makeRequest("tfc-42")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown card", func(t *testing.T) {
		rec := makeRequest("tfc-999")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
