package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vhrodrigues/notinha/internal/http/auth"
	"github.com/vhrodrigues/notinha/internal/http/ingest"
	"github.com/vhrodrigues/notinha/internal/http/invoice"
	"github.com/vhrodrigues/notinha/internal/http/product"
)

func New(
	ingestV1 *ingest.Handler,
	invoicesV1 *invoice.Handler,
	productsV1 *product.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.Header},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/ingest", ingestV1.Routes)

		r.Route("/invoices", func(r chi.Router) {
			invoicesV1.Routes(r)
		})

		r.Route("/products", func(r chi.Router) {
			productsV1.Routes(r)
		})
	})

	return router
}
