package main // Entry point package

import (
	"context"
	"log" // Logging library
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/seatforge/ticketing/internal/config"
	"github.com/seatforge/ticketing/internal/database"
	"github.com/seatforge/ticketing/internal/handler"
	"github.com/seatforge/ticketing/internal/inventory"
	"github.com/seatforge/ticketing/internal/queue"
	"github.com/seatforge/ticketing/internal/repository"
	"github.com/seatforge/ticketing/internal/reservation"
	"github.com/seatforge/ticketing/internal/router"
	"github.com/seatforge/ticketing/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Select the store backend. The in-memory stores need no external
	// services; MySQL carries the same semantics across restarts.
	var (
		ga      inventory.Store
		seats   inventory.SeatStore
		records inventory.ReservationStore
	)
	switch cfg.StoreBackend {
	case config.BackendMySQL:
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		defer db.Close()
		ga = repository.NewTicketTypeRepo(db)
		seats = repository.NewSeatRepo(db)
		records = repository.NewReservationRepo(db)
	default:
		ga = inventory.NewMemoryStore()
		seats = inventory.NewMemorySeatStore()
		records = inventory.NewMemoryReservationStore()
	}

	// Redis backs the response cache, the rate limiter and the sweep
	// leader lock. A nil client degrades all three gracefully.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: cache, rate limiting and sweep leader election disabled")
	}

	mgrOpts := []reservation.Option{reservation.WithHoldTTL(cfg.HoldTTL)}
	if cfg.AMQPURL != "" {
		mgrOpts = append(mgrOpts, reservation.WithPublisher(service.NewAMQPPublisher(cfg.AMQPURL)))
		go func() {
			if err := queue.StartReservationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("reservation-consumer stopped: %v", err)
			}
		}()
	}
	mgr := reservation.NewManager(ga, seats, records, mgrOpts...)

	// Background expiry sweep.
	sweepOpts := []reservation.SweeperOption{}
	if rdb != nil {
		sweepOpts = append(sweepOpts, reservation.WithLeaderLock(rdb, cfg.SweepLockTTL))
	}
	sweeper := reservation.NewSweeper(ga, seats, records, cfg.SweepInterval, sweepOpts...)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweeper.Run(sweepCtx)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAvailability(e, handler.NewAvailabilityHandler(ga, seats), config.LoadCacheConfig(), rdb)
	router.RegisterCheckout(e, handler.NewCheckoutHandler(mgr), config.LoadRateLimitConfig(), rdb)
	router.RegisterAdmin(e, handler.NewAdminHandler(ga, seats))

	addr := ":" + cfg.Port                                                                        // Address string with port
	log.Printf("listening on %s (env=%s backend=%s)", addr, cfg.Env, cfg.StoreBackend)            // Print startup info

	go func() {
		if err := e.Start(addr); err != nil { // Start HTTP server
			log.Printf("server stopped: %v", err)
		}
	}()

	// Wait for SIGINT/SIGTERM, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
