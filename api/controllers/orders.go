package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/middleware"
	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type notesInput struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// customerOrder carries the same badge label as the admin board rows.
type customerOrder struct {
	models.Order
	StatusLabel string `json:"status_label"`
}

// OrdersList returns the caller's own orders, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := middleware.ProfileFromContext(r.Context())
		list, err := svc.ListForCustomer(r.Context(), profile.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]customerOrder, 0, len(list))
		for _, o := range list {
			out = append(out, customerOrder{Order: o, StatusLabel: o.Status.Label()})
		}
		responses.WriteSuccess(w, out)
	}
}

// OrdersSubmit places the draft sent in the body.
func OrdersSubmit(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft orders.Draft
		if err := validators.DecodeJSONBody(r, &draft); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), middleware.ProfileFromContext(r.Context()), draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func DraftGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, ws.Draft.Snapshot())
	}
}

func DraftAddItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ws.Draft.AddItem())
	}
}

func DraftPatchItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var patch orders.ItemPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := ws.Draft.PatchItem(index, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

func DraftRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := ws.Draft.RemoveItem(index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

func DraftSetNotes(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}

		var body notesInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ws.Draft.SetNotes(body.Notes))
	}
}

// DraftSubmit places the browser's draft and, on success, clears it and
// returns the customer shell to its dashboard.
func DraftSubmit(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}

		order, err := svc.Submit(r.Context(), middleware.ProfileFromContext(r.Context()), ws.Draft.Snapshot())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ws.Draft.Reset()
		ws.Navigator.Reset()
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
