package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/turo-backend/internal/application/admin"
	"github.com/turo-backend/internal/application/auth"
	"github.com/turo-backend/internal/application/maintenance"
	"github.com/turo-backend/internal/application/profile"
	"github.com/turo-backend/internal/config"
	"github.com/turo-backend/internal/transport/http/handler"
	appmiddleware "github.com/turo-backend/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}

	// 5 requests/second, burst of 10, per client IP on the sign-in RPCs.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		OTPRepo:      deps.OTPRepo,
		IdentityRepo: deps.IdentityRepo,
		Mailer:       deps.Mailer,
		Tokens:       deps.JWTProvider,
		OTPTTL:       cfg.OTPTTL,
		OTPRetention: cfg.OTPRetention,
	})
	profileSvc := profile.NewService(profile.ServiceDeps{
		ProfileRepo: deps.ProfileRepo,
		BlobStore:   deps.S3Store,
	})
	adminDeps := admin.ServiceDeps{
		ProfileRepo:  deps.ProfileRepo,
		IdentityRepo: deps.IdentityRepo,
		ActivityRepo: deps.ActivityRepo,
		BlobStore:    deps.S3Store,
	}
	if deps.Publisher != nil {
		adminDeps.Publisher = deps.Publisher
	}
	adminSvc := admin.NewService(adminDeps)
	maintenanceSvc := maintenance.NewService(maintenance.ServiceDeps{ProfileRepo: deps.ProfileRepo})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	adminH := handler.NewAdminHandler(adminSvc)
	backfillH := handler.NewBackfillHandler(maintenanceSvc)
	blobH := handler.NewBlobHandler(deps.S3Store)

	// ── API surface behind configurable CORS ─────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/health-check/{action}", healthH.Ping)
			r.Post("/health-check/{action}", healthH.Ping)
			r.Get("/blobs/o/*", blobH.Download)

			r.Route("/rpc", func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.JWTProvider))

				r.With(sensitiveRL.Limit).Post("/requestEmailOTP", authH.RequestEmailOTP)
				r.With(sensitiveRL.Limit).Post("/verifyEmailOTP", authH.VerifyEmailOTP)
				r.With(sensitiveRL.Limit).Post("/redeemSignInToken", authH.RedeemSignInToken)
				r.Post("/saveUserProfile", profileH.SaveUserProfile)
				r.Post("/toggleUserBan", adminH.ToggleUserBan)
				r.Post("/deleteUserAccount", adminH.DeleteUserAccount)
				r.Post("/{name}", healthH.UnknownRPC)
			})
		})
	})

	// ── Maintenance utilities: own CORS, shared-secret gated ─────────────
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.Preflight("GET, POST", "Content-Type, "+appmiddleware.AdminKeyHeader))
		r.Use(appmiddleware.RequireAdminKey(cfg.BackfillKey))

		r.Get("/v1/admin/backfill-user-timestamps", backfillH.UserTimestamps)
		r.Post("/v1/admin/backfill-user-timestamps", backfillH.UserTimestamps)
		r.Options("/v1/admin/backfill-user-timestamps", backfillH.UserTimestamps)
	})

	return r
}
