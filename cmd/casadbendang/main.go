package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yuzpew2/casadbendang/internal/app/bookings"
	"github.com/yuzpew2/casadbendang/internal/app/catalog"
	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
	"github.com/yuzpew2/casadbendang/internal/infra/broker/kafka"
	"github.com/yuzpew2/casadbendang/internal/infra/config"
	mongostore "github.com/yuzpew2/casadbendang/internal/infra/db/mongo"
	ginserver "github.com/yuzpew2/casadbendang/internal/infra/http/gin"
	"github.com/yuzpew2/casadbendang/internal/infra/messaging"
	"github.com/yuzpew2/casadbendang/internal/infra/obs"
	"github.com/yuzpew2/casadbendang/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	stores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer stores.close(logger)

	notifier, closeNotifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Error("kafka init failed", "brokers", cfg.KafkaBrokers, "error", err)
		os.Exit(1)
	}
	defer closeNotifier(logger)

	bookingSvc := bookings.NewService(logger, stores.bookings, stores.properties, stores.addons, notifier)
	catalogSvc := catalog.NewService(logger, stores.properties, stores.addons)
	reclaimer := bookings.NewReclaimer(logger, stores.bookings, stores.properties)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: stores.ready}, ginserver.Handlers{
		Public: ginserver.PublicHandler{Bookings: bookingSvc, Catalog: catalogSvc},
		Admin:  ginserver.AdminHandler{Bookings: bookingSvc, Catalog: catalogSvc, Reclaimer: reclaimer},
		Cron:   ginserver.CronHandler{Reclaimer: reclaimer, Secret: cfg.CronSecret},
	})

	go runSweepLoop(ctx, logger, reclaimer, cfg.SweepInterval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// runSweepLoop triggers the expiry sweep on a timer. The cron route stays
// available as an external trigger; both paths hit the same guarded store
// update, so overlapping runs are harmless.
func runSweepLoop(ctx context.Context, logger *slog.Logger, reclaimer *bookings.Reclaimer, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reclaimer.SweepAll(ctx); err != nil {
				logger.Error("scheduled sweep failed", "error", err)
			}
		}
	}
}

type stores struct {
	bookings   booking.Repository
	properties property.Repository
	addons     addon.Repository
	ready      func() error
	mongo      *mongostore.Client
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.Store {
	case "mongo":
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return stores{}, err
		}
		return stores{
			bookings:   mongostore.NewBookingRepository(client.DB),
			properties: mongostore.NewPropertyRepository(client.DB),
			addons:     mongostore.NewAddOnRepository(client.DB),
			ready: func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return client.Ping(pingCtx)
			},
			mongo: client,
		}, nil
	case "memory":
		propertiesRepo := memory.NewPropertyRepository()
		addonsRepo := memory.NewAddOnRepository()
		if err := loadPropertyFixture(ctx, propertiesRepo, addonsRepo, logger); err != nil {
			return stores{}, err
		}
		return stores{
			bookings:   memory.NewBookingRepository(),
			properties: propertiesRepo,
			addons:     addonsRepo,
			ready:      func() error { return nil },
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func (s stores) close(logger *slog.Logger) {
	if s.mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mongo.Close(ctx); err != nil {
		logger.Error("mongo disconnect failed", "error", err)
	}
}

func buildNotifier(cfg config.Config, logger *slog.Logger) (bookings.Notifier, func(*slog.Logger), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("no kafka brokers configured, logging booking handoffs instead")
		return messaging.LogNotifier{Log: logger}, func(*slog.Logger) {}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func(l *slog.Logger) {
		if err := producer.Close(); err != nil {
			l.Error("kafka producer close failed", "error", err)
		}
	}
	return messaging.NewKafkaNotifier(producer, cfg.KafkaTopicPrefix), closeFn, nil
}

// loadPropertyFixture seeds the memory store from data/property.json so the
// service is usable out of the box in demo runs.
func loadPropertyFixture(ctx context.Context, properties *memory.PropertyRepository, addons *memory.AddOnRepository, logger *slog.Logger) error {
	path := os.Getenv("PROPERTY_FIXTURE")
	if path == "" {
		path = filepath.Join("data", "property.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixture not found, starting empty", "path", path)
			return nil
		}
		return fmt.Errorf("read fixture: %w", err)
	}

	var fx propertyFixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}

	now := time.Now().UTC()
	tiers := make(map[int]money.Money, len(fx.TierPricesRM))
	for rooms, ringgit := range fx.TierPricesRM {
		tiers[rooms] = money.RM(ringgit)
	}
	prop := &property.Property{
		ID:                  fx.ID,
		Name:                fx.Name,
		TierPrices:          tiers,
		MaxGuests:           fx.MaxGuests,
		PendingTimeoutHours: fx.PendingTimeoutHours,
		WhatsAppNumber:      fx.WhatsAppNumber,
		Description:         fx.Description,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := properties.Save(ctx, prop); err != nil {
		return err
	}
	for _, fa := range fx.AddOns {
		a, err := addon.New(fa.ID, prop.ID, fa.Name, money.RM(fa.PriceRM), now)
		if err != nil {
			logger.Error("fixture add-on invalid", "addon_id", fa.ID, "error", err)
			continue
		}
		if err := addons.Save(ctx, a); err != nil {
			return err
		}
	}
	logger.Info("property fixture imported", "property_id", prop.ID, "add_ons", len(fx.AddOns))
	return nil
}

type propertyFixture struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	TierPricesRM        map[int]int64 `json:"tier_prices_rm"`
	MaxGuests           int           `json:"max_guests"`
	PendingTimeoutHours int           `json:"pending_timeout_hours"`
	WhatsAppNumber      string        `json:"whatsapp_number"`
	Description         string        `json:"description"`
	AddOns              []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		PriceRM int64  `json:"price_rm"`
	} `json:"add_ons"`
}
