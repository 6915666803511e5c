package controllers

import (
	"net/http"

	"github.com/attirely/storefront-backend/api/responses"
	"github.com/attirely/storefront-backend/api/validators"
	"github.com/attirely/storefront-backend/internal/searches"
	"github.com/attirely/storefront-backend/pkg/logger"
)

type searchesView struct {
	Terms []string `json:"terms"`
}

// SearchesView lists the session's recent search terms, newest first.
func SearchesView(svc searches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		terms, err := svc.List(r.Context(), session.ID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if terms == nil {
			terms = []string{}
		}
		responses.WriteSuccess(w, searchesView{Terms: terms})
	}
}

type recordSearchRequest struct {
	Term string `json:"term" validate:"required"`
}

// SearchesRecord promotes a term to the head of the history.
func SearchesRecord(svc searches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		var payload recordSearchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		terms, err := svc.Record(r.Context(), session.ID(), payload.Term)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, searchesView{Terms: terms})
	}
}

// SearchesClear wipes the history.
func SearchesClear(svc searches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionOrError(w, r, logg)
		if session == nil {
			return
		}

		if err := svc.Clear(r.Context(), session.ID()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, searchesView{Terms: []string{}})
	}
}
