package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c controller) Mux() *chi.Mux {
	r := chi.NewRouter()

	r.Use(c.requestIdMiddleware)
	r.Use(c.loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/rooms", c.createRoom)
		r.Route("/rooms/{room-id}", func(r chi.Router) {
			r.Get("/", c.getRoom)
			r.Post("/join", c.joinRoom)
			r.Get("/messages", c.getMessages)
			r.Get("/expenses", c.getExpenses)
			r.Get("/balances", c.getBalances)
		})
		r.Get("/invites/{invite-code}", c.resolveInvite)
	})

	r.Get("/ws/rooms/{room-id}", c.joinRoomWS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
