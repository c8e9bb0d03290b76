// Package routes is the operator HTTP surface: metrics, health and a small
// token protected admin API over the moderation engine.
package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coinmod/modules/maintenance"
	"coinmod/modules/moderation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// AdminActor is recorded as the moderator for actions taken through the API.
const AdminActor = "admin-api"

type Moderator interface {
	Standing(ctx context.Context, guildID, userID string) (*moderation.Standing, error)
	StaffUnban(ctx context.Context, guildID, userID, actorID string) error
}

type Maintainer interface {
	Run(ctx context.Context) (maintenance.Result, error)
}

type Options struct {
	AdminToken string
	// Health reports whether the process can serve, usually a database ping.
	Health func(ctx context.Context) error
	// RequestsPerMinute limits admin calls per client IP. Zero means 60.
	RequestsPerMinute int
	Logger            *zap.Logger
}

type server struct {
	moderator  Moderator
	maintainer Maintainer
	health     func(ctx context.Context) error
	logger     *zap.Logger
}

func NewRouter(moderator Moderator, maintainer Maintainer, opts Options) http.Handler {
	s := &server{
		moderator:  moderator,
		maintainer: maintainer,
		health:     opts.Health,
		logger:     opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(s.logger))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.Health)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(httprate.LimitByIP(opts.RequestsPerMinute, time.Minute))
		r.Use(AdminMiddleware(opts.AdminToken))

		r.Get("/guilds/{guildID}/users/{userID}", s.GetStanding)
		r.Post("/guilds/{guildID}/users/{userID}/unban", s.Unban)
		r.Post("/maintenance", s.RunMaintenance)
	})
	return r
}

func (s *server) Health(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			SendError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	SendStructResponse(w, map[string]string{"status": "ok"})
}

func (s *server) GetStanding(w http.ResponseWriter, r *http.Request) {
	standing, err := s.moderator.Standing(r.Context(), chi.URLParam(r, "guildID"), chi.URLParam(r, "userID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	SendStructResponse(w, standing)
}

func (s *server) Unban(w http.ResponseWriter, r *http.Request) {
	err := s.moderator.StaffUnban(r.Context(), chi.URLParam(r, "guildID"), chi.URLParam(r, "userID"), AdminActor)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) RunMaintenance(w http.ResponseWriter, r *http.Request) {
	result, err := s.maintainer.Run(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if result.Skipped {
		SendStatusResponse(w, http.StatusConflict, result)
		return
	}
	SendStructResponse(w, result)
}

func (s *server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moderation.ErrUnknownUser):
		SendError(w, http.StatusNotFound, moderation.Message(err))
	case errors.Is(err, moderation.ErrValidation):
		SendError(w, http.StatusBadRequest, moderation.Message(err))
	case errors.Is(err, moderation.ErrPrecondition):
		SendError(w, http.StatusConflict, moderation.Message(err))
	default:
		s.logger.Error("admin request failed", zap.Error(err))
		SendError(w, http.StatusInternalServerError, "internal error")
	}
}
