// Command grass-node runs a bandwidth-sharing node.
//
// It asks for the account credentials, logs in, then keeps one
// authenticated broker session alive for as long as the process runs,
// reconnecting after every failure. A background monitor reports the
// device's network quality score.
//
// Usage:
//
//	grass-node [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-log-level string     Log level: debug, info, warn, error (overrides config)
//	-protocol-log string  Capture broker traffic to this file (overrides config)
//
// Examples:
//
//	# Stock behavior
//	grass-node
//
//	# Verbose, with a capture file for grass-log
//	grass-node -log-level debug -protocol-log node.glog
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/grass-node/grass-go/cmd/grass-node/interactive"
	"github.com/grass-node/grass-go/pkg/api"
	"github.com/grass-node/grass-go/pkg/config"
	"github.com/grass-node/grass-go/pkg/httpretry"
	"github.com/grass-node/grass-go/pkg/log"
	"github.com/grass-node/grass-go/pkg/monitor"
	"github.com/grass-node/grass-go/pkg/node"
	"github.com/grass-node/grass-go/pkg/transport"
)

var (
	configFile  string
	logLevel    string
	protocolLog string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&protocolLog, "protocol-log", "", "Capture broker traffic to this file")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	prompter, err := interactive.NewPrompter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	username, password, err := prompter.Credentials()
	_ = prompter.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)

	// The node has no shutdown path; it runs until the process is killed.
	if err := run(context.Background(), cfg, logger, username, password); err != nil {
		logger.Fatal().Err(err).Msg("node stopped")
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return config.Config{}, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if protocolLog != "" {
		cfg.Log.ProtocolLog = protocolLog
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger, username, password string) error {
	if cfg.Proxy.InsecureSkipVerify {
		logger.Warn().Msg("TLS certificate verification is disabled for the broker and the API")
	}
	tlsCfg := transport.TLSConfig{InsecureSkipVerify: cfg.Proxy.InsecureSkipVerify}

	httpClient, err := api.NewHTTPClient(transport.NewClientTLSConfig(tlsCfg))
	if err != nil {
		return fmt.Errorf("http session: %w", err)
	}

	apiClient, err := api.NewClient(api.Config{
		BaseURL:        cfg.API.BaseURL,
		Origin:         cfg.API.Origin,
		UserAgent:      cfg.API.UserAgent,
		AcceptLanguage: cfg.API.AcceptLanguage,
		MaxAttempts:    cfg.API.MaxAttempts,
		Timeout:        cfg.API.Timeout,
		HTTP: httpretry.New(httpretry.Config{
			HTTPClient: httpClient,
			RetryDelay: cfg.API.RetryDelay,
			Logger:     logger,
		}),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	capture, closeCapture, err := newProtocolLogger(cfg.Log, logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	dialer, err := transport.NewDialer(transport.DialerConfig{
		Endpoints:        cfg.Proxy.Endpoints,
		Origin:           cfg.Proxy.Origin,
		AcceptLanguage:   cfg.Proxy.AcceptLanguage,
		TLS:              tlsCfg,
		HandshakeTimeout: cfg.Proxy.HandshakeTimeout,
		ReadTimeout:      cfg.Proxy.ReadTimeout,
		WriteTimeout:     cfg.Proxy.WriteTimeout,
	})
	if err != nil {
		return err
	}

	engine, err := node.NewEngine(node.Config{
		Dialer:           dialer,
		Devices:          apiClient,
		MessagePause:     cfg.Proxy.MessagePause,
		DeviceRetryDelay: cfg.Proxy.DeviceRetryDelay,
		Backoff:          cfg.Proxy.BackoffConfig(),
		Logger:           logger,
		ProtocolLogger:   capture,
	})
	if err != nil {
		return err
	}

	userID, err := apiClient.Login(ctx, username, password)
	if err != nil {
		return err
	}
	logger.Info().Str("user_id", string(userID)).Msg("logged in")

	if cfg.Monitor.Enabled {
		monCfg := monitor.Config{
			Devices:   apiClient,
			Interval:  cfg.Monitor.Interval,
			Threshold: cfg.Monitor.Threshold,
			Logger:    logger,
		}
		if cfg.Monitor.ReconnectOnLowQuality {
			monCfg.OnLow = func(api.Device) { engine.Reconnect() }
		}
		mon, err := monitor.New(monCfg)
		if err != nil {
			return err
		}
		go func() { _ = mon.Run(ctx) }()
	}

	return engine.Run(ctx, userID)
}

// newProtocolLogger builds the capture sink from the log settings.
func newProtocolLogger(cfg config.LogConfig, logger zerolog.Logger) (log.Logger, func(), error) {
	var (
		sinks []log.Logger
		file  *log.FileLogger
	)
	if cfg.ProtocolLog != "" {
		var err error
		file, err = log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, fmt.Errorf("protocol log: %w", err)
		}
		sinks = append(sinks, file)
		logger.Info().Str("path", cfg.ProtocolLog).Msg("capturing broker traffic")
	}
	if cfg.ProtocolConsole {
		sinks = append(sinks, log.NewZerologAdapter(logger))
	}

	closeFn := func() {
		if file != nil {
			_ = file.Close()
		}
	}

	switch len(sinks) {
	case 0:
		return log.NoopLogger{}, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	default:
		return log.NewMultiLogger(sinks...), closeFn, nil
	}
}
