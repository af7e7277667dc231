// Package main boots the Order Fulfillment Simulator HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/config"
	httpapi "github.com/fairyhunter13/order-fulfillment-simulator/internal/http"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/obs"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orderlog"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orders"
	"github.com/google/uuid"
)

// seedCatalog loads a couple of demo products so the simulator is usable out
// of the box; real deployments add products through POST /products.
func seedCatalog(cat *catalog.Catalog) {
	for _, p := range []model.Product{
		{ProductID: uuid.New(), Name: "Laptop", Price: 1200.0, StockLevel: 20, ReorderThreshold: 5},
		{ProductID: uuid.New(), Name: "Smartphone", Price: 800.0, StockLevel: 10, ReorderThreshold: 3},
	} {
		cat.Add(p)
		obs.Logger.Info("product_seeded",
			"product_id", p.ProductID.String(),
			"name", p.Name,
			"stock_level", p.StockLevel,
		)
	}
}

func main() {
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	cat := catalog.New()
	seedCatalog(cat)

	lg, err := orderlog.Open(cfg.OrdersFile)
	if err != nil {
		obs.Logger.Error("order_log_open_failed", "path", cfg.OrdersFile, "error", err)
		os.Exit(1)
	}

	mgr := orders.NewManager(cfg, cat, lg)
	restored := mgr.Restore()
	obs.Logger.Info("orders_restored", "count", restored, "path", cfg.OrdersFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)

	app := httpapi.NewApp(cfg, cat, mgr)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	obs.Logger.Info("shutdown_drain_begin", "order_count", mgr.Count())

	// Give in-flight fulfillment a chance to finish its stages, then cancel
	// whatever is still waiting on a delay.
	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := mgr.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout")
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}

	mgr.Shutdown()
	ctxStop, cancelStop := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelStop()
	mgr.DrainUntil(ctxStop)

	if err := lg.Close(); err != nil {
		obs.Logger.Error("order_log_close_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}
