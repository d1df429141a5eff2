package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/fleet-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/fleet-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))

	// WS endpoint: идентичность приходит первым auth-кадром внутри канала
	r.Get("/ws", wsServer.HandleWS)

	// REST-путь инцидентов требует Bearer + X-User-ID
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/incidents", func(ri chi.Router) {
			ri.Post("/", h.CreateIncident)
			ri.Get("/", h.ListIncidents)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
