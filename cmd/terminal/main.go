package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pos-connector/internal/application/auth"
	"github.com/jhoicas/pos-connector/internal/application/connectivity"
	"github.com/jhoicas/pos-connector/internal/application/order"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/infrastructure/remote"
	"github.com/jhoicas/pos-connector/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/pos-connector/internal/interfaces/http"
	"github.com/jhoicas/pos-connector/pkg/config"
	"github.com/jhoicas/pos-connector/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("terminal", cfg.App.TerminalID).
		Str("store", cfg.Store.Driver).
		Msg("iniciando terminal")

	ctx := context.Background()
	shutdownTracing := telemetry.Setup(ctx, cfg.App.Name, telemetry.Config{
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
	}, log.Component("telemetry"))

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén de credenciales")
	}
	defer st.close()

	if cfg.Order.ConnectorURL != "" {
		err := st.connectors.Upsert(ctx, &entity.Connector{
			ID:        cfg.Order.ConnectorID,
			Name:      cfg.Order.ConnectorName,
			APIURL:    cfg.Order.ConnectorURL,
			Timeout:   cfg.Order.ConnectorTimeout,
			Active:    true,
			CreatedAt: time.Now(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("registrar conector por defecto")
		}
	}

	client := remote.NewClient(remote.Config{
		BaseURL:      cfg.Remote.BaseURL,
		LoginPath:    cfg.Remote.LoginPath,
		AccountPath:  cfg.Remote.AccountPath,
		BadgePath:    cfg.Remote.BadgePath,
		HealthPath:   cfg.Remote.HealthPath,
		Timeout:      cfg.Remote.Timeout,
		ProbeTimeout: cfg.Remote.ProbeTimeout,
	}, log.Component("remote"))

	monitor := connectivity.NewMonitor(client, cfg.Remote.ProbeTimeout, log.Component("connectivity"))
	monitor.Start(cfg.Connectivity.ProbeInterval)
	defer monitor.Stop()

	authMgr := auth.NewManager(st.credentials, client, monitor, auth.Config{
		SessionTTL:     cfg.Session.TTL,
		AllowedRoles:   cfg.Session.AllowedRoles,
		MaxPINAttempts: cfg.Session.MaxPINAttempts,
		BcryptCost:     cfg.Session.BcryptCost,
	}, log.Component("auth"))

	orderSvc := order.NewService(authMgr, monitor, client, client, st.connectors, st.history,
		order.Config{DefaultCustomerEmail: cfg.Order.DefaultCustomerEmail}, log.Component("order"))

	// el beneficiario escaneado no sobrevive al cajero que lo escaneó
	authMgr.Subscribe(func(ev auth.Event) {
		switch ev.Type {
		case auth.EventSessionCleared:
			orderSvc.ClearCustomer()
			log.Info().Str("reason", ev.Reason).Msg("sesión de cajero cerrada")
		case auth.EventEnrollmentRequired:
			log.Info().Str("email", ev.Session.Cashier.Email).Msg("registro de PIN offline requerido")
		case auth.EventSessionEstablished:
			log.Info().Str("email", ev.Session.Cashier.Email).Str("mode", string(ev.Session.Mode)).Msg("sesión de cajero abierta")
		}
	})

	// primer sondeo antes de revalidar la sesión persistida
	if monitor.CheckNow(ctx) {
		authMgr.VerifyExistingToken(ctx)
	} else {
		log.Warn().Msg("backend inaccesible al arrancar, la sesión persistida se revalidará en el próximo login")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Order.ConnectorTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "POS Connector API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Auth:         authMgr,
		Connectivity: monitor,
		Orders:       orderSvc,
		ServiceName:  cfg.App.Name,
	})

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cerrar exportador de trazas")
	}

	log.Info().Msg("terminal detenido")
}
