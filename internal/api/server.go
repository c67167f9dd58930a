package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/chainscribe-ledger/config"
	"github.com/swissborg/chainscribe-ledger/internal/idempotency"
)

type Server struct {
	echo    *echo.Echo
	store   Ledger
	replays *idempotency.Cache
}

func NewServer(store Ledger, replays *idempotency.Cache) *Server {
	return &Server{store: store, replays: replays}
}

func (s *Server) Start(cfg config.APIConf) error {
	log.Infof("API server starting...")

	s.echo = s.makeEcho()

	err := s.echo.Start(fmt.Sprintf("%s:%s", cfg.Host, cfg.Port))
	if err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	const shutdownTimeout = time.Second * 10

	if s.echo == nil {
		return nil
	}

	ctx, cancelTimeout := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelTimeout()

	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}

func (s *Server) makeEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.
				WithField("method", v.Method).
				WithField("uri", v.URI).
				WithField("status", v.Status).
				WithField("latency", v.Latency.String()).
				Info("handled")
			return nil
		},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	handlers := NewHandlers(s.store, s.replays)

	e.GET("/healthz", handlers.Health)

	certGroup := e.Group("/api/certificates")
	certGroup.GET("", handlers.ListCerts)
	certGroup.POST("", handlers.IssueCert)
	certGroup.POST("/verify", handlers.VerifyCert)
	certGroup.GET("/:id", handlers.GetCert)

	return e
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
