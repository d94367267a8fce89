package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/framecast/framecast/internal/build"
	"github.com/framecast/framecast/internal/config"
	"github.com/framecast/framecast/internal/logging"
	"github.com/framecast/framecast/internal/metrics"
	"github.com/framecast/framecast/internal/relay"
	"github.com/framecast/framecast/internal/service"
	"github.com/framecast/framecast/internal/tools"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

func Run(cmd *cobra.Command, configFile string) {
	dotEnvUsed := false
	if tools.FileExists(".env") {
		err := godotenv.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("error loading .env file")
		}
		dotEnvUsed = true
	}
	cfg, cfgMeta, err := config.GetConfig(cmd, configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error getting config")
	}

	ctx, serviceCancel := context.WithCancel(context.Background())
	defer serviceCancel()

	logCloseFn := logging.Setup(cfg)
	if logCloseFn != nil {
		defer logCloseFn()
	}
	if cfgMeta.FileNotFound {
		log.Warn().Msg("config file not found, continue using environment and flag options")
	} else {
		absConfPath, _ := filepath.Abs(configFile)
		log.Info().Str("path", absConfPath).Msg("using config file")
		if dotEnvUsed {
			log.Info().Msg("environment variables have been loaded from .env file")
		}
	}
	err = tools.WritePidFile(cfg.PidFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error writing PID")
	}
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, i ...interface{}) {
		log.Info().Msgf(strings.ToLower(s), i...)
	}))

	// Registered services will be run before HTTP servers start and stopped
	// after node's shutdown and HTTP servers shutdown.
	serviceManager := service.NewManager()

	name := nodeName(cfg)

	log.Info().
		Str("version", build.Version).
		Str("runtime", runtime.Version()).
		Int("pid", os.Getpid()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Str("node", name).
		Msg("starting Framecast")

	if build.Version == "0.0.0" {
		log.Warn().Msg("running a development build of Framecast (version 0.0.0), ensure to use release build in production")
	}

	err = cfg.Validate()
	if err != nil {
		log.Fatal().Err(err).Msg("error validating config")
	}

	metrics.SetBuildInfo(build.Version)

	node := relay.New(relayNodeConfig(cfg, name))

	relayServer := relay.NewServer(node, relay.ServerConfig{
		Address: cfg.TCP.Address,
		Port:    cfg.TCP.Port,
	})
	if err = relayServer.Listen(); err != nil {
		log.Fatal().Err(err).Msg("error starting relay server")
	}
	log.Info().Msgf("serving relay endpoint on %s", relayServer.Addr())
	serviceManager.Register(relayServer)

	if cfg.Graphite.Enabled {
		serviceManager.Register(graphiteExporter(cfg, name))
	}

	serviceManager.Run(ctx)

	httpServers := runHTTPServers(node, cfg)

	logStartWarnings(cfg, cfgMeta)

	handleSignals(cmd, configFile, cfg, node, httpServers, serviceManager, serviceCancel)
}

func handleSignals(
	cmd *cobra.Command, configFile string, cfg config.Config, n *relay.Node,
	httpServers []*http.Server, serviceManager *service.Manager, serviceCancel context.CancelFunc,
) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, os.Interrupt, syscall.SIGTERM)
	for {
		sig := <-sigCh
		log.Info().Msgf("signal received: %v", sig)
		switch sig {
		case syscall.SIGHUP:
			// Reload application configuration on SIGHUP. Running sessions
			// keep the options they connected with, only the log level is
			// applied at runtime.
			log.Info().Msg("reloading configuration")
			newCfg, _, err := config.GetConfig(cmd, configFile)
			if err != nil {
				log.Err(err).Msg("error reading config")
				continue
			}
			if err = newCfg.Validate(); err != nil {
				log.Error().Msgf("error validating config: %v", err)
				continue
			}
			logging.SetLevel(strings.ToLower(newCfg.Log.Level))
			log.Info().Msg("configuration successfully reloaded")
		case syscall.SIGINT, os.Interrupt, syscall.SIGTERM:
			log.Info().Msg("shutting down ...")
			pidFile := cfg.PidFile
			shutdownTimeout := cfg.Shutdown.Timeout
			go time.AfterFunc(shutdownTimeout.ToDuration(), func() {
				if pidFile != "" {
					_ = os.Remove(pidFile)
				}
				log.Fatal().Msg("shutdown timeout reached")
			})

			var wg sync.WaitGroup

			for _, srv := range httpServers {
				wg.Add(1)
				go func(srv *http.Server) {
					defer wg.Done()
					_ = srv.Shutdown(context.Background()) // We have a separate timeout goroutine.
				}(srv)
			}

			_ = n.Shutdown(context.Background()) // We have a separate timeout goroutine.
			wg.Wait()

			serviceCancel()
			_ = serviceManager.Wait()

			if pidFile != "" {
				_ = os.Remove(pidFile)
			}
			os.Exit(0)
		}
	}
}
