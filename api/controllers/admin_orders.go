package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

type adminBoard struct {
	Orders   []adminOrder        `json:"orders"`
	Statuses []enums.OrderStatus `json:"statuses"`
}

// adminOrder adds the badge label the status select shows.
type adminOrder struct {
	ID           int64   `json:"id"`
	CustomerID   int64   `json:"customer_id"`
	CustomerName string  `json:"customer_name,omitempty"`
	Status       string  `json:"status"`
	StatusLabel  string  `json:"status_label"`
	TotalValue   string  `json:"total_value"`
	PlacedAt     string  `json:"placed_at"`
	Notes        *string `json:"notes,omitempty"`
}

// AdminOrdersList reloads the admin board from the backend.
func AdminOrdersList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}
		list, err := ws.Board.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		board := adminBoard{Orders: make([]adminOrder, 0, len(list)), Statuses: enums.OrderStatuses()}
		for _, o := range list {
			row := adminOrder{
				ID:          o.ID,
				CustomerID:  o.CustomerID,
				Status:      o.Status.String(),
				StatusLabel: o.Status.Label(),
				TotalValue:  o.TotalValue.StringFixed(2),
				PlacedAt:    o.PlacedAt.UTC().Format(time.RFC3339),
				Notes:       o.Notes,
			}
			if o.Customer != nil {
				row.CustomerName = o.Customer.Name
			}
			board.Orders = append(board.Orders, row)
		}
		responses.WriteSuccess(w, board)
	}
}

// AdminOrderStatus changes one order's status and patches the board copy on
// success. The response body is null when the order is not on the board.
func AdminOrderStatus(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := currentWorkspace(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
			return
		}

		order, err := ws.Board.ChangeStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
