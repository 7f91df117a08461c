package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ewebtechsuk/aktonz2-sub001/cmd/listings/config"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/handler"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/logging"
	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/rabbitmq"
	"github.com/fluent/fluent-logger-golang/fluent"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatal().
			Err(err).
			Msg("can't load configuration")
	}

	var fluentClient *fluent.Fluent
	var poster logging.Poster
	if cfg.Fluent.Enabled {
		fluentClient, err = logging.NewFluent(cfg.Fluent.Host, cfg.Fluent.Port)
		if err != nil {
			bootLogger.Fatal().
				Err(err).
				Msg("can't connect to Fluent Bit")
		}
		poster = fluentClient
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, poster, cfg.Fluent.Tag)
	if err != nil {
		bootLogger.Fatal().
			Err(err).
			Msg("can't create logger")
	}

	comps, err := newComponents(ctx, cfg, &http.Client{}, logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't create components")
	}

	if cfg.WarmOnStart {
		go comps.service.Warm(ctx)
	}

	var conn *rabbitmq.RabbitMQ
	var amqpConnection *amqp.Connection
	if cfg.RabbitMQ.URL != "" {
		amqpConnection, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't open RabbitMQ connection")
		}

		conn, err = rabbitmq.NewRabbitMQ(amqpConnection, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't open RabbitMQ channel")
		}

		if err := conn.Bind(cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey+".*"); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't bind commands queue")
		}

		han := handler.NewHandler(conn, comps.service, &logger)

		// start consuming and handling commands
		if err := han.Start(ctx, cfg.RabbitMQ.Queue); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't start consuming")
		}
	}

	logger.Info().
		Str("overridesBackend", cfg.OverridesBackend).
		Bool("commands", conn != nil).
		Msg("listings service up and running")

	// handle graceful shutdown and context cancellation
	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-termChan:
		cancel()
	case <-ctx.Done():
	}

	logger.Info().Msg("graceful shutdown start")

	if conn != nil {
		// wait for consumer to finish
		<-conn.Done()

		if err := amqpConnection.Close(); err != nil {
			logger.Error().
				Err(err).
				Msg("can't close RabbitMQ connection")
		}
	}

	comps.close(logger)

	logger.Info().Msg("graceful shutdown successful")

	if fluentClient != nil {
		if err := fluentClient.Close(); err != nil {
			bootLogger.Error().
				Err(err).
				Msg("can't close Fluent Bit client")
		}
	}
}
