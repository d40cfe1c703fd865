package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Schedule   *handlers.ScheduleHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	Auth           *middleware.Authenticator
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

func SetupRoutes(router *chi.Mux, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Организаторские операции: нужен токен с ролью organizer или admin
	organizer := func(r chi.Router) {
		r.Use(opts.Auth.Authenticate)
		r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.HTTPMiddleware)
		}
	}

	router.Route("/api/tournaments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			organizer(r)
			r.Post("/", h.Tournament.CreateHandler)
		})

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetByIDHandler)
			r.Get("/bracket", h.Tournament.BracketHandler)
			r.Get("/standings", h.Tournament.StandingsHandler)
			r.Get("/schedule/conflicts", h.Schedule.ConflictsHandler)

			r.Group(func(r chi.Router) {
				organizer(r)

				r.Post("/teams", h.Tournament.AddTeamHandler)
				r.Post("/teams/{teamID}/withdraw", h.Tournament.WithdrawTeamHandler)

				r.Post("/stages/{stageIndex}/draw", h.Tournament.RunDrawHandler)
				r.Post("/stages/{stageIndex}/generate", h.Tournament.GenerateStageHandler)
				r.Post("/stages/{stageIndex}/advance", h.Tournament.AdvanceStageHandler)

				r.Route("/matches/{matchUID}", func(r chi.Router) {
					r.Post("/start", h.Match.StartHandler)
					r.Post("/result", h.Match.ResultHandler)
					r.Post("/forfeit", h.Match.ForfeitHandler)
					r.Post("/dispute", h.Match.DisputeHandler)
					r.Post("/resolve", h.Match.ResolveHandler)
				})

				r.Post("/availability", h.Schedule.SubmitAvailabilityHandler)
				r.Post("/schedule/auto", h.Schedule.AutoScheduleHandler)
				r.Post("/schedule/plan", h.Schedule.PlanScheduleHandler)
			})
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
