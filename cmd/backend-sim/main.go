package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-connector/internal/simulator"
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

	secret := cfg.Simulator.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("SIM_JWT_SECRET vacío: secreto aleatorio, los tokens no sobreviven a un reinicio")
	}

	backend := simulator.New(simulator.Config{
		JWTSecret: secret,
		Issuer:    cfg.Simulator.Issuer,
	}, log.Component("simulator"))
	if cfg.Simulator.Seed {
		if err := simulator.Seed(backend); err != nil {
			log.Fatal().Err(err).Msg("sembrar datos de demostración")
		}
		log.Info().Msg("datos de demostración cargados (cashier@pos.com / cashier123, badges B-0001 y B-0002)")
	}

	app := backend.App()

	addr := fmt.Sprintf(":%d", cfg.Simulator.Port)
	go func() {
		log.Info().Str("addr", addr).Msg("simulador de backend escuchando")
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	log.Info().Msg("simulador detenido")
}
