package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/internal/wsconn"
	"github.com/sharetube/watchsync/pkg/wsrouter"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   c.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", c.metrics.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/stats", c.getStats)
		r.Get("/ws", c.serveWS)
	})

	return r
}

func (c *controller) getWSRouter() *wsrouter.WSRouter[*wsconn.Conn] {
	r := wsrouter.New[*wsconn.Conn]()

	r.Use(c.wsRequestIdMw(), c.loggerWSMw(), c.metricsWSMw())

	wsrouter.Handle(r, protocol.EventJoinRoom, c.handleJoinRoom)
	wsrouter.Handle(r, protocol.EventVideoStateChange, c.handleVideoStateChange)

	return r
}
