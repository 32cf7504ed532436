package handler

import (
	"encoding/json"
	"net/http"

	"ticketmister-backend/logger"
	"ticketmister-backend/market"
	"ticketmister-backend/model"
	"ticketmister-backend/response"
)

// CreateCategory creates a priced ticket batch under an event and
// mints its tickets.
func CreateCategory(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		var req model.CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "createCategory: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}
		if req.Data.Category == nil {
			response.BadRequest("missing category payload", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		c := req.Data.Category
		created, err := engine.CreateCategory(ctx, eventID, c.Name, c.Description, c.OriginalPrice, c.NumberOfTickets, who)
		if err != nil {
			logger.Errorf(ctx, "createCategory: unable to create category for event %d: %+v", eventID, err)
			response.FromError(err).Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Category: created},
			StatusCode: http.StatusCreated,
		}.Send(w)
	}
}

func GetCategory(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		categoryID, ok := pathID(w, r, "categoryID")
		if !ok {
			return
		}

		cat, err := engine.CategoryInfo(categoryID)
		if err != nil {
			response.FromError(err).Send(ctx, w)
			return
		}
		response.SuccessResponse{
			Data:       &response.Data{Category: cat},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func GetCategoryTickets(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		categoryID, ok := pathID(w, r, "categoryID")
		if !ok {
			return
		}

		ids, err := engine.CategoryTickets(categoryID)
		if err != nil {
			response.FromError(err).Send(ctx, w)
			return
		}
		response.SuccessResponse{
			Data:       &response.Data{TicketIDs: ids},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
