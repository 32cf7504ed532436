package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"ticketmister-backend/algorand"
	"ticketmister-backend/catalog"
	"ticketmister-backend/config"
	"ticketmister-backend/factory"
	"ticketmister-backend/handler"
	"ticketmister-backend/healthcheck"
	"ticketmister-backend/identity"
	"ticketmister-backend/logger"
	"ticketmister-backend/market"
	"ticketmister-backend/middleware"
	"ticketmister-backend/records"
	"ticketmister-backend/registry"
	"ticketmister-backend/response"
	"ticketmister-backend/settlement"
	"ticketmister-backend/twilio"
	"ticketmister-backend/vault"
)

// Router wires the marketplace engine, its observers and the identity
// service, and returns the HTTP router for all API handlers.
func Router(ctx context.Context) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SetCorrelationIDHeader)
	r.Use(middleware.PanicHandler)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.ResourceNotFound(fmt.Sprintf("The requested resource was not found: path: %s, method: %s", req.URL.Path, req.Method), "The requested resource was not found!").Send(req.Context(), w)
	})

	r.Use(middleware.ResponseTimeLogging)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.SetContentTypeHeader)

	v, err := vault.New(
		viper.GetString(config.VaultToken),
		viper.GetString(config.VaultUnSealKey),
		viper.GetString(config.VaultAddress),
		viper.GetString(config.UserPath))
	if err != nil {
		logger.Fatalf(ctx, "router: Error creating vault client: %+v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     viper.GetString(config.RedisAddress),
		Password: viper.GetString(config.RedisPassword),
		DB:       viper.GetInt(config.RedisDB),
	})

	f := factory.NewFactory()

	sinks := []records.Sink{records.NewRedisSink(ctx, redisClient)}
	if viper.GetString(config.RabbitURL) != "" {
		rabbit, _, err := records.NewRabbitSink(ctx, viper.GetString(config.RabbitURL))
		if err != nil {
			logger.Fatalf(ctx, "router: Error connecting to rabbitmq: %+v", err)
		}
		sinks = append(sinks, rabbit)
	}
	if viper.GetString(config.DBURL) != "" {
		sinks = append(sinks, records.NewArchive(ctx, f.DB(ctx)))
	}

	var rail settlement.Rail
	switch viper.GetString(config.SettlementRail) {
	case "algorand":
		treasury := &algorand.Account{
			AccountAddress:     viper.GetString(config.TreasuryAddress),
			SecurityPassphrase: viper.GetString(config.TreasurySecurityParaphrase),
		}
		rail = algorand.NewRail(
			treasury,
			v,
			viper.GetString(config.ApiAddress),
			viper.GetString(config.ApiKey),
			viper.GetString(config.Secret),
			viper.GetUint64(config.AmountFactor),
			viper.GetUint64(config.MinFee),
		)
	default:
		rail = settlement.NewLedger()
	}

	reg := registry.New()
	cat := catalog.New(reg)
	engine := market.New(cat, reg, rail, records.NewMulti(sinks...), market.Config{
		RewardRatePercent: viper.GetUint64(config.RewardRatePercent),
		RewardOnResale:    viper.GetBool(config.RewardOnResale),
		GiftUnlists:       viper.GetBool(config.GiftUnlists),
	})

	sender := twilio.NewSender(
		viper.GetString(config.TwilioAccountSID),
		viper.GetString(config.TwilioAuthToken),
		viper.GetString(config.TwilioURL),
		viper.GetString(config.TwilioFrom),
	)
	identityService := identity.NewService(sender, redisClient, v, viper.GetString(config.Secret))

	r.HandleFunc("/healthcheck", healthcheck.Self).Methods(http.MethodGet)
	baseRouter := r.PathPrefix("/v1").Subrouter()

	userRouter := baseRouter.PathPrefix("/user").Subrouter()
	userRouter.HandleFunc("/connect", handler.ConnectUser(identityService)).Methods(http.MethodPost)
	userRouter.HandleFunc("/connect/verify", handler.VerifyUser(identityService)).Methods(http.MethodPost)

	eventRouter := baseRouter.PathPrefix("/event").Subrouter()
	eventRouter.HandleFunc("", handler.CreateEvent(engine)).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{eventID}", handler.GetEvent(engine)).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{eventID}/description", handler.UpdateEventDescription(engine)).Methods(http.MethodPatch)
	eventRouter.HandleFunc("/{eventID}/location", handler.UpdateEventLocation(engine)).Methods(http.MethodPatch)
	eventRouter.HandleFunc("/{eventID}/date", handler.UpdateEventDate(engine)).Methods(http.MethodPatch)
	eventRouter.HandleFunc("/{eventID}/resale_percentage", handler.UpdateMaxResalePercentage(engine)).Methods(http.MethodPatch)
	eventRouter.HandleFunc("/{eventID}/cancel", handler.CancelEvent(engine)).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{eventID}/category", handler.CreateCategory(engine)).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{eventID}/tickets_on_sale", handler.GetTicketsOnSale(engine)).Methods(http.MethodGet)

	categoryRouter := baseRouter.PathPrefix("/category").Subrouter()
	categoryRouter.HandleFunc("/{categoryID}", handler.GetCategory(engine)).Methods(http.MethodGet)
	categoryRouter.HandleFunc("/{categoryID}/tickets", handler.GetCategoryTickets(engine)).Methods(http.MethodGet)

	ticketRouter := baseRouter.PathPrefix("/ticket").Subrouter()
	ticketRouter.HandleFunc("/{ticketID}", handler.GetTicket(engine)).Methods(http.MethodGet)
	ticketRouter.HandleFunc("/{ticketID}/price/{buyer}", handler.GetDiscountedPrice(engine)).Methods(http.MethodGet)
	ticketRouter.HandleFunc("/{ticketID}/buy", handler.BuyTicket(engine)).Methods(http.MethodPost)
	ticketRouter.HandleFunc("/{ticketID}/resale", handler.ListTicketForResale(engine)).Methods(http.MethodPost)
	ticketRouter.HandleFunc("/{ticketID}/resale", handler.UnlistTicketFromResale(engine)).Methods(http.MethodDelete)
	ticketRouter.HandleFunc("/{ticketID}/gift", handler.GiftTicket(engine)).Methods(http.MethodPost)

	baseRouter.HandleFunc("/organiser/{organiser}/events", handler.GetOrganiserEvents(engine)).Methods(http.MethodGet)
	baseRouter.HandleFunc("/reward/{buyer}", handler.GetRewardBalance(engine)).Methods(http.MethodGet)

	return r
}
