package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/infra/buildinfo"
	"github.com/yndnr/statichost-go/internal/infra/confloader"
	"github.com/yndnr/statichost-go/internal/infra/shutdown"
	"github.com/yndnr/statichost-go/internal/server/adminserver"
	"github.com/yndnr/statichost-go/internal/server/config"
	"github.com/yndnr/statichost-go/internal/server/fileserver"
	"github.com/yndnr/statichost-go/internal/server/forwarder"
	"github.com/yndnr/statichost-go/internal/server/httpserver"
	"github.com/yndnr/statichost-go/internal/server/httpserver/handler"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
	"github.com/yndnr/statichost-go/internal/telemetry/metric"
	"github.com/yndnr/statichost-go/internal/telemetry/tracer"
)

// flagKeys maps serve flags to the settings keys they override.
var flagKeys = map[string]string{
	"port":        "server.http.port",
	"addr":        "server.http.addr",
	"tls-cert":    "server.http.tls_cert_file",
	"tls-key":     "server.http.tls_key_file",
	"admin-addr":  "server.admin.addr",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"pass-method": "proxy.pass_method",
}

// ServeCommand runs the edge server. It is also the application's default
// action.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve the routes (default when no command is given)",
		ArgsUsage: "[ROUTES]",
		Flags:     serveFlags(),
		Action:    serveAction,
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Edge listener port",
			Value:   config.DefaultHTTPPort,
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Edge listener bind host",
			Value: config.DefaultHTTPAddr,
		},
		&cli.StringFlag{
			Name:    "settings",
			Aliases: []string{"c"},
			Usage:   "Server settings file (YAML); watched for log level changes",
		},
		&cli.StringFlag{
			Name:  "tls-cert",
			Usage: "TLS certificate file for the edge listener",
		},
		&cli.StringFlag{
			Name:  "tls-key",
			Usage: "TLS key file for the edge listener",
		},
		&cli.StringFlag{
			Name:  "admin-addr",
			Usage: `Admin listener address, "host:port" or "unix:/path.sock"`,
		},
		&cli.BoolFlag{
			Name:  "pass-method",
			Usage: "Forward the client's method and body instead of a bodiless GET",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
	}
}

// overridesFrom collects the serve flags the user actually set.
func overridesFrom(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		switch flag {
		case "port":
			out[key] = c.Int(flag)
		case "pass-method":
			out[key] = c.Bool(flag)
		default:
			out[key] = c.String(flag)
		}
	}
	return out
}

func serveAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("expected at most one ROUTES argument", 2)
	}
	return Serve(c.Context, ServeOptions{
		RoutesArg:    c.Args().First(),
		SettingsFile: c.String("settings"),
		Overrides:    overridesFrom(c),
	})
}

// ServeOptions carries the inputs of Serve.
type ServeOptions struct {
	// RoutesArg is the positional route source; empty selects the default.
	RoutesArg    string
	SettingsFile string
	// Overrides are dotted settings keys applied after file and environment.
	Overrides map[string]any

	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer
	// EdgeListener replaces binding the configured edge address.
	EdgeListener net.Listener
	// OnReady is called once every listener accepts connections.
	OnReady func(edge, admin net.Addr)
}

// LoadSettings resolves the server settings: defaults, then the settings
// file, then STATICHOST_* environment variables, then overrides.
func LoadSettings(settingsFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithFlags(overrides)}
	if settingsFile != "" {
		opts = append(opts, confloader.WithConfigFile(settingsFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, domain.ErrInvalidSettings.WithCause(err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Serve compiles the routes, starts the edge and admin listeners and blocks
// until ctx is done, a termination signal arrives or a listener fails.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := LoadSettings(opts.SettingsFile, opts.Overrides)
	if err != nil {
		return err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	rules, src, err := compileRoutes(opts.RoutesArg)
	if err != nil {
		return err
	}

	info := buildinfo.Get()
	log.Info("starting statichost", "version", info.Version, "commit", info.Commit)
	log.Info("routes loaded",
		"source", src.Path,
		"kind", string(src.Kind),
		"implicit", src.Implicit,
		"rules", rules.Len())
	for _, v := range rules.Views() {
		log.Info("route", "prefix", v.Prefix, "kind", string(v.Kind), "target", logger.RedactURL(v.Target))
	}
	log.Debug("settings", "config", config.Sanitize(cfg))

	var reg *metric.Registry
	if cfg.Telemetry.Metrics {
		reg = metric.NewRegistry()
		reg.SetBuildInfo(info.Version, info.Commit, info.GoVersion)
		if err := reg.Register(metric.NewRuleCollector(rules)); err != nil {
			return fmt.Errorf("register rule metrics: %w", err)
		}
	}

	tp, err := tracer.New(tracer.Config{
		Enabled:  cfg.Telemetry.Tracing,
		Exporter: cfg.Telemetry.TracingExporter,
		Output:   out,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	tp.Install()

	fwd, err := forwarder.New(forwarder.Config{
		Timeout:      cfg.Proxy.Timeout,
		DialTimeout:  cfg.Proxy.DialTimeout,
		MaxIdleConns: cfg.Proxy.MaxIdleConns,
		PassMethod:   cfg.Proxy.PassMethod,
		PreserveHost: cfg.Proxy.PreserveHost,
		CAFile:       cfg.Proxy.CAFile,
	},
		forwarder.WithLogger(log),
		forwarder.WithMetrics(reg),
		forwarder.WithErrorRenderer(handler.WriteError),
	)
	if err != nil {
		return err
	}

	routerCfg := &httpserver.RouterConfig{
		Dispatcher: routing.NewDispatcher(rules),
		Files:      fileserver.New(fileserver.WithLogger(log)),
		Forwarder:  fwd,
		Logger:     log,
		Metrics:    reg,
		AccessLog:  cfg.Log.AccessLog,
	}
	if tp.Enabled() {
		routerCfg.Tracer = tp.Tracer()
	}

	edge, err := httpserver.New(httpserver.Config{
		Addr:              cfg.Server.HTTP.ListenAddr(),
		TLSCertFile:       cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:        cfg.Server.HTTP.TLSKeyFile,
		ReadHeaderTimeout: cfg.Server.HTTP.ReadHeaderTimeout,
		Logger:            log,
	}, httpserver.NewRouter(routerCfg))
	if err != nil {
		return domain.ErrInvalidSettings.WithDetails("edge tls").WithCause(err)
	}

	ln := opts.EdgeListener
	if ln == nil {
		if ln, err = net.Listen("tcp", edge.Addr()); err != nil {
			return fmt.Errorf("edge listener: %w", err)
		}
	}

	var admin *adminserver.Server
	if cfg.Server.Admin.Addr != "" {
		adminCfg := adminserver.Config{
			Addr:   cfg.Server.Admin.Addr,
			Token:  cfg.Server.Admin.Token,
			Logger: log,
		}
		if reg != nil {
			adminCfg.Metrics = reg.Handler()
		}
		admin = adminserver.New(adminCfg, rules)
		if err := admin.Listen(); err != nil {
			ln.Close()
			return fmt.Errorf("admin listener: %w", err)
		}
	}

	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, shutdown.WithLogger(logger.Slog(log)))
	sh.OnShutdown("tracer", tp.Shutdown)
	sh.OnShutdown("forwarder", func(context.Context) error {
		fwd.Close()
		return nil
	})

	if opts.SettingsFile != "" {
		w, err := watchSettings(log, opts.SettingsFile, opts.Overrides)
		if err != nil {
			log.Warn("settings watcher disabled", "path", opts.SettingsFile, "error", err)
		} else {
			sh.OnShutdown("settings watcher", func(context.Context) error {
				return w.Stop()
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if admin != nil {
		sh.OnShutdown("admin listener", admin.Shutdown)
		g.Go(func() error {
			log.Info("admin listener started", "addr", admin.Addr().String())
			if err := admin.Serve(); err != nil {
				return fmt.Errorf("admin listener: %w", err)
			}
			return nil
		})
	}

	sh.OnShutdown("edge listener", edge.Shutdown)
	if admin != nil {
		// Runs first: report not-ready before draining the edge.
		sh.OnShutdown("readiness", func(context.Context) error {
			admin.SetReady(false)
			return nil
		})
	}

	g.Go(func() error {
		log.Info("edge listener started", "addr", ln.Addr().String(), "tls", edge.TLS())
		if err := edge.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("edge listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sh.WaitContext(gctx)
	})

	var adminAddr net.Addr
	if admin != nil {
		admin.SetReady(true)
		adminAddr = admin.Addr()
	}
	if opts.OnReady != nil {
		opts.OnReady(ln.Addr(), adminAddr)
	}

	err = g.Wait()
	log.Info("server stopped")
	return err
}

// watchSettings re-applies log.level whenever the settings file changes.
// Routes are never reloaded.
func watchSettings(log logger.Logger, path string, overrides map[string]any) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		ReloadLogLevel(log, path, overrides)
	})
	w.StartAsync()
	return w, nil
}

// ReloadLogLevel reloads the settings and applies the resulting log level.
// Invalid settings are logged and ignored.
func ReloadLogLevel(log logger.Logger, path string, overrides map[string]any) {
	cfg, err := LoadSettings(path, overrides)
	if err != nil {
		log.Warn("settings reload rejected", "path", path, "error", err)
		return
	}

	old := logger.GetLevel()
	logger.SetLevel(cfg.Log.Level)
	if now := logger.GetLevel(); now != old {
		log.Info("log level changed", "from", old, "to", now)
	}
}
