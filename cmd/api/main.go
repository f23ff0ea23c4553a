package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vhrodrigues/notinha/internal/ai"
	"github.com/vhrodrigues/notinha/internal/cache"
	"github.com/vhrodrigues/notinha/internal/config"
	"github.com/vhrodrigues/notinha/internal/database"
	"github.com/vhrodrigues/notinha/internal/extract"
	"github.com/vhrodrigues/notinha/internal/fetch"
	notinhaHttp "github.com/vhrodrigues/notinha/internal/http"
	ingestHandler "github.com/vhrodrigues/notinha/internal/http/ingest"
	invoiceHandler "github.com/vhrodrigues/notinha/internal/http/invoice"
	productHandler "github.com/vhrodrigues/notinha/internal/http/product"
	"github.com/vhrodrigues/notinha/internal/invoice"
	invoiceStore "github.com/vhrodrigues/notinha/internal/invoice/store"
	"github.com/vhrodrigues/notinha/internal/product"
	productStore "github.com/vhrodrigues/notinha/internal/product/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var parseCache cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		parseCache = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	var oracleOpts []ai.OpenAIOption
	if cfg.OpenAI.Model != "" {
		oracleOpts = append(oracleOpts, ai.WithModel(cfg.OpenAI.Model))
	}

	var (
		oracle         = ai.NewOpenAIOracle(cfg.OpenAI.APIKey, oracleOpts...)
		fetcher        = fetch.NewHTTPFetcher(cfg.Fetch.Timeout)
		extractService = extract.NewService(fetcher, oracle, parseCache, cfg.Fetch.PortalURL)
		productService = product.NewService(productStore.New(db))
		invoiceService = invoice.NewService(invoiceStore.New(db), productService)
	)

	var (
		ingestH  = ingestHandler.NewHandler(extractService, invoiceService)
		invoiceH = invoiceHandler.NewHandler(invoiceService)
		productH = productHandler.NewHandler(productService)
	)

	router := notinhaHttp.New(ingestH, invoiceH, productH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
