package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-verifier/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	verificationsHandler := handlers.NewVerificationsHandler(s.deps.Verifier, s.deps.Reports)
	configHandler := handlers.NewConfigHandler(s.deps.Verifier, s.deps.Reports != nil)
	readinessHandler := handlers.NewReadinessHandler(s.deps.FaceService)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/ready", readinessHandler.Ready)
		r.Get("/config", configHandler.Get)

		r.Post("/verifications", verificationsHandler.Create)
		r.Get("/verifications/{id}", verificationsHandler.Get)
		r.Get("/verifications/{id}/faces", verificationsHandler.Faces)
	})

	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics.Handler())
	}
}
