package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ticketmister-backend/logger"
	"ticketmister-backend/market"
	"ticketmister-backend/model"
	"ticketmister-backend/response"
)

func CreateEvent(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "createEvent: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}
		if req.Data.Event == nil {
			response.BadRequest("missing event payload", "").Send(ctx, w)
			return
		}

		organiser, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		ev := req.Data.Event
		id, err := engine.CreateEvent(ctx, ev.Name, ev.Description, ev.Location, ev.Date, ev.MaxResalePercentage, organiser)
		if err != nil {
			logger.Errorf(ctx, "createEvent: unable to create event: %+v", err)
			response.FromError(err).Send(ctx, w)
			return
		}

		created, err := engine.EventInfo(id)
		if err != nil {
			logger.Errorf(ctx, "createEvent: unable to read back event %d: %+v", id, err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{Event: created},
			StatusCode: http.StatusCreated,
		}.Send(w)
	}
}

func UpdateEventDescription(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		var req model.EventUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "updateEventDescription: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.UpdateEventDescription(ctx, eventID, req.Data.Value, who); err != nil {
			logger.Errorf(ctx, "updateEventDescription: unable to update event %d: %+v", eventID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendEvent(w, r, engine, eventID)
	}
}

func UpdateEventLocation(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		var req model.EventUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "updateEventLocation: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.UpdateEventLocation(ctx, eventID, req.Data.Value, who); err != nil {
			logger.Errorf(ctx, "updateEventLocation: unable to update event %d: %+v", eventID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendEvent(w, r, engine, eventID)
	}
}

func UpdateEventDate(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		var req model.EventUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "updateEventDate: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.UpdateEventDate(ctx, eventID, req.Data.Date, who); err != nil {
			logger.Errorf(ctx, "updateEventDate: unable to update event %d: %+v", eventID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendEvent(w, r, engine, eventID)
	}
}

func UpdateMaxResalePercentage(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		var req model.EventUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "updateMaxResalePercentage: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.UpdateMaxResalePercentage(ctx, eventID, req.Data.Percentage, who); err != nil {
			logger.Errorf(ctx, "updateMaxResalePercentage: unable to update event %d: %+v", eventID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendEvent(w, r, engine, eventID)
	}
}

// CancelEvent cancels an event and settles refunds out of the attached
// funds.
func CancelEvent(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		var req model.EventCancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "cancelEvent: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		who, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		if err := engine.CancelEventAndRefund(ctx, eventID, who, req.Data.RefundFunds); err != nil {
			logger.Errorf(ctx, "cancelEvent: unable to cancel event %d: %+v", eventID, err)
			response.FromError(err).Send(ctx, w)
			return
		}
		sendEvent(w, r, engine, eventID)
	}
}

func GetEvent(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}
		sendEvent(w, r, engine, eventID)
	}
}

func GetTicketsOnSale(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := pathID(w, r, "eventID")
		if !ok {
			return
		}

		ids, err := engine.TicketsOnSale(eventID)
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

func GetOrganiserEvents(engine *market.Market) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		organiser := mux.Vars(r)["organiser"]
		ids := engine.EventsOrganised(organiser)
		response.SuccessResponse{
			Data:       &response.Data{Events: ids},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func sendEvent(w http.ResponseWriter, r *http.Request, engine *market.Market, eventID int64) {
	ev, err := engine.EventInfo(eventID)
	if err != nil {
		response.FromError(err).Send(r.Context(), w)
		return
	}
	response.SuccessResponse{
		Data:       &response.Data{Event: ev},
		StatusCode: http.StatusOK,
	}.Send(w)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Errorf(r.Context(), "pathID: unable to parse %s: %s: %+v", name, raw, err)
		response.InvalidData("invalid " + name).Send(r.Context(), w)
		return 0, false
	}
	return id, true
}
