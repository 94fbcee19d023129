package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(ballots *BallotHandler, reports *ReportHandler, sessions *SessionHandler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", sessions.GetSession)
		r.Post("/refresh", ballots.Refresh)

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", ballots.ListQuestions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ballots.GetBallot)
				r.Post("/selection", ballots.Select)
				r.Post("/ranking", ballots.Rank)
				r.Post("/sign", ballots.Sign)
				r.Post("/vote", ballots.Vote)
				r.Post("/verify", ballots.Verify)
				r.Get("/results", reports.Results)
			})
		})
	})

	return r
}
