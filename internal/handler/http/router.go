package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/leave-approval-go/internal/config"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, approvalHandler ApprovalHandler, streamHandler StreamHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/leave-progress", func(r chi.Router) {
			// EventSource cannot send headers; the stream checks its own query token
			r.Get("/stream", streamHandler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
				r.Post("/resolve", approvalHandler.Resolve)
				r.Post("/stream-token", streamHandler.GetStreamToken)
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/leave-requests/{id}", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionLeaveViewOwn)).Get("/progress", approvalHandler.GetProgress)

				// Approvers only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireApprover)
					r.With(middleware.RequirePermission(user.PermissionLeaveStart)).Post("/approvals", approvalHandler.Start)
					r.With(middleware.RequirePermission(user.PermissionLeaveApprove)).Post("/approvals/{role}", approvalHandler.Decide)
					r.With(middleware.RequirePermission(user.PermissionLeaveRecall)).Post("/recall", approvalHandler.Recall)
				})

				r.Route("/reschedules", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionLeaveViewOwn)).Get("/", approvalHandler.ListReschedules)
					r.With(middleware.RequirePermission(user.PermissionLeaveReschedule)).Post("/", approvalHandler.RequestReschedule)
				})
			})

			r.With(middleware.RequirePermission(user.PermissionRescheduleDecide)).
				Post("/leave-reschedules/{id}/decision", approvalHandler.DecideReschedule)
		})
	})
	return r
}
