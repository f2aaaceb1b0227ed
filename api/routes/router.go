package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/javokhirdev/newsline-backend/api/controllers"
	"github.com/javokhirdev/newsline-backend/api/middleware"
	"github.com/javokhirdev/newsline-backend/internal/auth"
	"github.com/javokhirdev/newsline-backend/internal/news"
	"github.com/javokhirdev/newsline-backend/internal/uploads"
	"github.com/javokhirdev/newsline-backend/internal/users"
	"github.com/javokhirdev/newsline-backend/pkg/config"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
)

// Deps bundle everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions middleware.SessionChecker
	Pingers  map[string]controllers.Pinger

	AuthService     auth.Service
	RegisterService auth.RegisterService
	UsersService    users.Service
	NewsService     news.Service
	IntakeService   uploads.IntakeService
}

// NewRouter wires middleware and handlers into the API's route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(deps.Config.CORS),
	)

	authOnly := middleware.Auth(deps.Config.JWT, deps.Sessions, deps.Logger)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Pingers))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.AuthService, deps.Logger))
		r.Post("/register", controllers.AuthRegister(deps.RegisterService, deps.AuthService, deps.Logger))
		r.Post("/admin/register", controllers.AuthAdminRegister(deps.RegisterService, deps.Logger))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, deps.Logger))
		r.With(authOnly).Post("/logout", controllers.AuthLogout(deps.AuthService, deps.Logger))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(authOnly)
		r.Get("/", controllers.UsersList(deps.UsersService, deps.Logger))
		r.Get("/me", controllers.UsersMe(deps.UsersService, deps.Logger))
		r.Get("/me/news", controllers.NewsListMine(deps.NewsService, deps.Logger))
		r.Patch("/me/email", controllers.UsersUpdateEmail(deps.UsersService, deps.Logger))
		r.Patch("/me/name", controllers.UsersUpdateName(deps.UsersService, deps.Logger))
		r.Post("/me/password", controllers.UsersChangePassword(deps.UsersService, deps.Logger))
		r.Put("/me/profile-image", controllers.UsersSetProfileImage(deps.UsersService, deps.Logger))
		r.Get("/{id}", controllers.UsersGet(deps.UsersService, deps.Logger))
		r.Get("/{id}/news", controllers.NewsListByUser(deps.NewsService, deps.Logger))
	})

	r.Route("/api/v1/news", func(r chi.Router) {
		r.Get("/", controllers.NewsList(deps.NewsService, deps.Logger))
		r.Get("/{id}", controllers.NewsGet(deps.NewsService, deps.Logger))

		r.Group(func(r chi.Router) {
			r.Use(authOnly)
			r.Post("/", controllers.NewsCreate(deps.NewsService, deps.Logger))
			r.Patch("/{id}", controllers.NewsUpdate(deps.NewsService, deps.Logger))
			r.Delete("/{id}", controllers.NewsDelete(deps.NewsService, deps.Logger))
		})
	})

	r.Route("/api/v1/uploads", func(r chi.Router) {
		r.Use(authOnly)
		upload := controllers.UploadsCreate(deps.IntakeService, deps.Config.Uploads, deps.Logger)
		r.Post("/", upload)
		// The multipart handler accepts one or many files, so both the
		// single and batch routes share it.
		r.Post("/file", upload)
		r.Post("/files", upload)
	})

	// Stored upload paths are public once bound to published content.
	uploadsDir := http.Dir(deps.Config.Uploads.Dir)
	r.Handle("/uploads/*", http.FileServer(uploadsDir))

	return r
}
