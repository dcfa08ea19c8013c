// Package server mounts every handler on one chi router and runs it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/catalog"
	"github.com/oakhaus/showroom/app/feedback"
	"github.com/oakhaus/showroom/app/home"
	"github.com/oakhaus/showroom/app/inventory"
	"github.com/oakhaus/showroom/app/media"
	"github.com/oakhaus/showroom/app/orders"
	"github.com/oakhaus/showroom/app/projects"
	"github.com/oakhaus/showroom/app/session"
	"github.com/oakhaus/showroom/app/taxonomy"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/notify"
)

const shutdownTimeout = 10 * time.Second

type Handlers struct {
	Catalog   *catalog.CatalogHandler
	Taxonomy  *taxonomy.TaxonomyHandler
	Home      *home.HomeHandler
	Orders    *orders.OrderHandler
	Feedback  *feedback.FeedbackHandler
	Projects  *projects.ProjectHandler
	Inventory *inventory.InventoryHandler
	Media     *media.MediaHandler
	// Function is optional; the send-order-email route is mounted only
	// when it is set.
	Function  *notify.FunctionHandler
	Session   *session.Manager
}

// NewRouter builds the public storefront routes and the session-guarded
// /admin routes.
func NewRouter(h Handlers, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", h.Catalog.HandleGet)
	r.Get("/products/{code}", h.Catalog.HandleGetProduct)
	r.Get("/products/{code}/variation", h.Catalog.HandleVariation)
	r.Get("/themes", h.Taxonomy.HandleGetThemes)
	r.Get("/themes/{theme}/products", h.Catalog.HandleGetByTheme)
	r.Get("/categories", h.Taxonomy.HandleGetCategories)
	r.Get("/categories/{category}/products", h.Catalog.HandleGetByCategory)
	r.Get("/home", h.Home.HandleGet)
	r.Get("/projects", h.Projects.HandleList)
	r.Get("/projects/{id}", h.Projects.HandleGet)
	r.Get("/media/{key}", h.Media.HandleServe)

	r.Post("/orders", h.Orders.HandleCreate)
	r.Post("/feedback", h.Feedback.HandleCreate)
	if h.Function != nil {
		r.Post("/functions/send-order-email", h.Function.HandleSendOrderEmail)
	}

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Session.HandleLogin)
		r.Post("/logout", h.Session.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.Session.RequireAdmin)

			r.Get("/session", h.Session.HandleCurrent)

			r.Get("/orders", h.Orders.HandleList)
			r.Put("/orders/{id}/status", h.Orders.HandleUpdateStatus)
			r.Delete("/orders/{id}", h.Orders.HandleDelete)

			r.Get("/feedback", h.Feedback.HandleList)
			r.Post("/feedback/{id}/toggle-read", h.Feedback.HandleToggleRead)
			r.Delete("/feedback/{id}", h.Feedback.HandleDelete)

			r.Post("/projects", h.Projects.HandleCreate)
			r.Put("/projects/{id}", h.Projects.HandleUpdate)
			r.Delete("/projects/{id}", h.Projects.HandleDelete)

			r.Post("/products", h.Inventory.HandleCreateFamily)
			r.Get("/products/{id}", h.Inventory.HandleGet)
			r.Put("/products/{id}", h.Inventory.HandleUpdate)
			r.Delete("/products/{id}", h.Inventory.HandleDelete)
			r.Delete("/products/code/{code}", h.Inventory.HandleDeleteFamily)

			r.Post("/media", h.Media.HandleUpload)
			r.Delete("/media/{key}", h.Media.HandleDelete)
		})
	})

	return r
}

type Server struct {
	srv *http.Server
	log *zap.Logger
}

func New(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, log *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       2 * writeTimeout,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then drains open requests.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.log.Info("stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("http server shutdown", zap.Error(err))
		}
	}()

	s.log.Info("starting http server", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
