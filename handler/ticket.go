package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"ticketmister-backend/logger"
	"ticketmister-backend/market"
	"ticketmister-backend/model"
	"ticketmister-backend/response"
)

// BuyTicket purchases a listed ticket for the attached payment, which
// must equal the caller's discounted price exactly.
func BuyTicket(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}

		var req model.TicketBuyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "buyTicket: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		buyer, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.BuyTicket(ctx, ticketID, buyer, req.Data.Payment); err != nil {
			logger.Errorf(ctx, "buyTicket: unable to buy ticket %d: %+v", ticketID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendTicket(w, r, engine, ticketID)
	}
}

func ListTicketForResale(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}

		var req model.TicketResaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "listTicketForResale: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.ListTicketForResale(ctx, ticketID, req.Data.Price, who); err != nil {
			logger.Errorf(ctx, "listTicketForResale: unable to list ticket %d: %+v", ticketID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendTicket(w, r, engine, ticketID)
	}
}

func UnlistTicketFromResale(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}

		var req model.TicketResaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "unlistTicketFromResale: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.UnlistTicketFromResale(ctx, ticketID, who); err != nil {
			logger.Errorf(ctx, "unlistTicketFromResale: unable to unlist ticket %d: %+v", ticketID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendTicket(w, r, engine, ticketID)
	}
}

func GiftTicket(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}

		var req model.TicketGiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "giftTicket: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.GiftTicket(ctx, ticketID, req.Data.Recipient, who); err != nil {
			logger.Errorf(ctx, "giftTicket: unable to gift ticket %d: %+v", ticketID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendTicket(w, r, engine, ticketID)
	}
}

func GetTicket(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}
		sendTicket(w, r, engine, ticketID)
	}
}

// GetDiscountedPrice reports the amount the named buyer would actually
// pay for a listed ticket after their reward points.
func GetDiscountedPrice(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ticketID, ok := pathID(w, r, "ticketID")
		if !ok {
			return
		}
		buyer := mux.Vars(r)["buyer"]

		price, err := engine.CheckDiscountedPrice(ticketID, buyer)
		if err != nil {
			response.FromError(err).Send(ctx, w)
			return
		}
		response.SuccessResponse{
			Data:       &response.Data{Price: &price},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func GetRewardBalance(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer := mux.Vars(r)["buyer"]
		balance := engine.RewardBalance(buyer)
		response.SuccessResponse{
			Data:       &response.Data{Reward: &balance},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func sendTicket(w http.ResponseWriter, r *http.Request, engine *market.Market, ticketID int64) {
	t, err := engine.TicketInfo(ticketID)
	if err != nil {
		response.FromError(err).Send(r.Context(), w)
		return
	}
	response.SuccessResponse{
		Data:       &response.Data{Ticket: t},
		StatusCode: http.StatusOK,
	}.Send(w)
}
