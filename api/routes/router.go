package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanbitmall/hanbit-backend/api/controllers"
	"github.com/hanbitmall/hanbit-backend/api/middleware"
	internalauth "github.com/hanbitmall/hanbit-backend/internal/auth"
	internalcart "github.com/hanbitmall/hanbit-backend/internal/cart"
	internalorders "github.com/hanbitmall/hanbit-backend/internal/orders"
	internalproducts "github.com/hanbitmall/hanbit-backend/internal/products"
	"github.com/hanbitmall/hanbit-backend/pkg/auth/session"
	"github.com/hanbitmall/hanbit-backend/pkg/config"
	"github.com/hanbitmall/hanbit-backend/pkg/logger"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger

	Sessions session.AccessSessionChecker

	AuthService    internalauth.Service
	ProductService internalproducts.Service
	CartService    internalcart.Service
	OrderService   internalorders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": deps.DBPinger,
			"redis":    deps.RedisPinger,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(deps.AuthService, logg))
		r.Post("/login", controllers.Login(deps.AuthService, logg))
		r.Post("/refresh", controllers.Refresh(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.Logout(deps.AuthService, logg))
			r.Get("/me", controllers.Me(deps.AuthService, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.ProductService, logg))
		r.Get("/{productId}", controllers.GetProduct(deps.ProductService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Post("/", controllers.CreateProduct(deps.ProductService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.ProductService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.ProductService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.CartService, logg))
			r.Post("/items", controllers.AddCartItem(deps.CartService, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.CartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.CartService, logg))
			r.Delete("/", controllers.ClearCart(deps.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
			r.Get("/", controllers.ListOrders(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrderService, logg))
			r.Patch("/{orderId}", controllers.PatchOrder(deps.OrderService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Put("/{orderId}", controllers.ReplaceOrder(deps.OrderService, logg))
				r.Delete("/{orderId}", controllers.DeleteOrder(deps.OrderService, logg))
			})
		})
	})

	return r
}
