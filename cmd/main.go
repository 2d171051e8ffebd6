package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tinoosan/ermay/internal/config"
	httpapi "github.com/tinoosan/ermay/internal/httpapi/v1"
	"github.com/tinoosan/ermay/internal/ledger"
	"github.com/tinoosan/ermay/internal/logging"
	"github.com/tinoosan/ermay/internal/service/party"
	"github.com/tinoosan/ermay/internal/service/record"
	"github.com/tinoosan/ermay/internal/storage/memory"
	pgstore "github.com/tinoosan/ermay/internal/storage/postgres"
	redisstore "github.com/tinoosan/ermay/internal/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	var store httpapi.Store
	var closers []func()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closers = append(closers, pg.Close)
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		store = memory.New()
		logger.Info("storage backend: memory")
	}

	opts := httpapi.Options{
		Auth: httpapi.AuthConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.RedisURL != "" {
		rs, err := redisstore.Open(ctx, cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "err", err)
			os.Exit(1)
		}
		closers = append(closers, func() { _ = rs.Close() })
		opts.Idempotency = rs
		logger.Info("idempotency keys: redis", "ttl", cfg.IdempotencyTTL)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_HS256_SECRET not set; owner_id is taken from the query string")
	}

	if cfg.DevSeed {
		ids, err := seedDev(ctx, store)
		if err != nil {
			logger.Error("dev seed failed", "err", err)
		} else {
			logger.Info("DEV seed", "ids", ids)
			printDevSeedBanner(ids)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(store, logger, opts).Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ermay back office listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

type devSeed struct {
	OwnerID    uuid.UUID
	CustomerID uuid.UUID
	SupplierID uuid.UUID
}

// seedDev creates one customer with a sale and a check payment, and one
// supplier with a USD purchase, all under a fresh owner.
func seedDev(ctx context.Context, store httpapi.Store) (devSeed, error) {
	parties := party.New(store, store)
	records := record.New(store, store, nil)
	owner := uuid.New()

	cust, err := parties.Create(ctx, ledger.Party{OwnerID: owner, Kind: ledger.PartyCustomer, Name: "Yıldız Market"})
	if err != nil {
		return devSeed{}, err
	}
	usd := ledger.CurrencyUSD
	sup, err := parties.Create(ctx, ledger.Party{OwnerID: owner, Kind: ledger.PartySupplier, Name: "Kaya Un Fabrikası", DefaultCurrency: &usd})
	if err != nil {
		return devSeed{}, err
	}

	if _, _, err := records.CreateDebit(ctx, ledger.Debit{
		OwnerID: owner, PartyID: cust.ID, Kind: ledger.TypeSale, Date: "2024-03-01", Amount: 1000,
		Items: []ledger.LineItem{{Description: "Un", Quantity: 10, Unit: "çuval", UnitPrice: 100}},
	}, ""); err != nil {
		return devSeed{}, err
	}
	if _, _, err := records.CreateCredit(ctx, ledger.Credit{
		OwnerID: owner, PartyID: cust.ID, Kind: ledger.TypePayment, Date: "2024-03-05", Amount: 400,
		Method: ledger.MethodCheck,
		Check:  &ledger.CheckDetails{SerialNumber: "0001", Bank: "Ziraat", DueDate: "2024-05-01"},
	}, ""); err != nil {
		return devSeed{}, err
	}
	if _, _, err := records.CreateDebit(ctx, ledger.Debit{
		OwnerID: owner, PartyID: sup.ID, Kind: ledger.TypePurchase, Date: "2024-02-01", Amount: 250,
	}, ""); err != nil {
		return devSeed{}, err
	}
	return devSeed{OwnerID: owner, CustomerID: cust.ID, SupplierID: sup.ID}, nil
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(ids devSeed) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("owner_id:    %s\n", ids.OwnerID)
	fmt.Printf("customer_id: %s\n", ids.CustomerID)
	fmt.Printf("supplier_id: %s\n", ids.SupplierID)
	fmt.Println("==================================================")
}
