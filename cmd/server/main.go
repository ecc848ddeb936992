package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prasannakumar32/smart-bookmark/internal/auth"
	authcontext "github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/config"
	"github.com/prasannakumar32/smart-bookmark/internal/db"
	"github.com/prasannakumar32/smart-bookmark/internal/feed"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/models"
	"github.com/prasannakumar32/smart-bookmark/internal/ratelimit"
	"github.com/prasannakumar32/smart-bookmark/internal/service"
)

func setupDb(cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	err := db.Migrate(cfg.PgConnectionString())
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %v", err)
	}
	return pool, nil
}

func main() {
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		panic(err)
	}

	logging.Init(cfg.Environment, cfg.Logging.LogLevel)
	defer logging.Sync()

	err = run(cfg)
	if err != nil {
		panic(err)
	}
}

func run(cfg *config.AppConfig) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := setupDb(cfg.PSQL)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := db.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %v", err)
	}
	defer redisClient.Close()

	broker := &feed.Broker{
		Client: redisClient,
		Logger: logging.Logger,
	}

	// Services
	userService := &models.UserModel{
		Pool: pool,
	}
	sessionService := &models.SessionService{
		Pool: pool,
	}
	tokenModel := &models.TokenModel{
		Pool: pool,
	}
	bookmarksModel := &models.BookmarkModel{
		Pool: pool,
		Feed: broker,
	}

	// Middlewares
	umw := auth.UserMiddleware{
		SessionService: sessionService,
	}
	amw := auth.ApiMiddleware{
		TokenModel: tokenModel,
	}
	csrfMw := csrf.Protect(
		[]byte(cfg.CSRF.Key),
		csrf.Secure(cfg.CSRF.Secure),
		csrf.Path("/"),
	)
	writeLimiter := ratelimit.NewLimiter(60, time.Minute)
	defer writeLimiter.Stop()

	// Controllers
	usersController := auth.Users{
		SessionService: sessionService,
	}
	apiController := service.Api{
		BookmarkModel: bookmarksModel,
	}
	userController := service.User{}
	tokenController := service.Token{
		TokenModel: tokenModel,
	}
	feedController := service.Feed{
		Broker: broker,
	}
	deviceController := auth.Device{
		TokenModel: tokenModel,
	}

	// OAuth controllers
	githubController := auth.NewGitHubOAuth(cfg.GitHub, cfg.Domain, userService, sessionService)
	googleController := auth.NewGoogleOAuth(cfg.Google, cfg.Domain, userService, sessionService)

	go cleanupSessions(ctx, sessionService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// API Routes
	r.Route("/api", func(r chi.Router) {
		r.Use(amw.SetUser)
		r.Use(LoggerMiddleware())

		r.Get("/ping", healthCheck)

		r.Route("/v1", func(r chi.Router) {
			r.Use(amw.RequireUser)
			r.Get("/ping", tokenController.AuthenticatedPing)
			r.Route("/tokens", func(r chi.Router) {
				r.Delete("/current", tokenController.DeleteToken)
			})
			r.Get("/user", userController.CurrentUserAPI)
			r.Route("/bookmarks", func(r chi.Router) {
				r.Get("/", apiController.IndexAPI)
				r.Get("/feed", feedController.Subscribe)
				r.Get("/{id}", apiController.GetAPI)
				r.Group(func(r chi.Router) {
					r.Use(writeLimiter.Middleware)
					r.Post("/", apiController.CreateAPI)
					r.Put("/{id}", apiController.UpdateAPI)
					r.Delete("/{id}", apiController.DeleteAPI)
				})
			})
		})
	})

	// Web routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMw)
		r.Use(umw.SetUser)
		r.Use(LoggerMiddleware())

		r.Get("/", homePage)
		r.Post("/signout", usersController.ProcessSignOut)

		r.Route("/device", func(r chi.Router) {
			r.Use(umw.RequireUser)
			r.Get("/auth", deviceController.Authorize)
		})

		r.Route("/oauth", func(r chi.Router) {
			r.Get("/github", githubController.RedirectToGitHub)
			r.Get("/github/callback", githubController.HandleCallback)

			r.Get("/google", googleController.RedirectToGoogle)
			r.Get("/google/callback", googleController.HandleCallback)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	logging.Logger.Infow("starting server", "address", cfg.Server.Address)
	return http.ListenAndServe(cfg.Server.Address, r)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}

func homePage(w http.ResponseWriter, r *http.Request) {
	user := authcontext.User(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if user != nil {
		fmt.Fprintf(w, `<html><body><h1>Smart Bookmark</h1><p>Signed in as %s.</p></body></html>`, user.Email)
		return
	}
	w.Write([]byte(`<html><body><h1>Smart Bookmark</h1>
<p><a href="/oauth/google">Sign in with Google</a></p>
<p><a href="/oauth/github">Sign in with GitHub</a></p>
</body></html>`))
}

func cleanupSessions(ctx context.Context, sessions *models.SessionService) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.CleanupExpiredSessions(ctx); err != nil {
				logging.Logger.Errorw("session cleanup", "error", err)
			}
		}
	}
}

func LoggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t1 := time.Now()
			ctx := r.Context()
			reqLogger := logging.Logger.With(
				"req_path", r.URL.Path,
				"req_method", r.Method,
			)

			if user := authcontext.User(ctx); user != nil {
				reqLogger = reqLogger.With("user", user.ID)
			}
			ctx = authcontext.WithLogger(ctx, reqLogger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				reqLogger.Debugw("http request", "from", r.RemoteAddr, "status", ww.Status(), "size", ww.BytesWritten(), "duration", time.Since(t1))
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
