package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/swoga/moto-exporter/api"
	"github.com/swoga/moto-exporter/cache"
	"github.com/swoga/moto-exporter/collect"
	"github.com/swoga/moto-exporter/collector"
	"github.com/swoga/moto-exporter/config"
	"github.com/swoga/moto-exporter/display"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
)

const exporterName = "moto_exporter"

var (
	app        = kingpin.New("moto-exporter", "Reads status, channels and logs from Motorola cable modems.")
	configFile = app.Flag("config.file", "Path to the YAML config file.").String()
	debug      = app.Flag("debug", "Enable debug logging.").Bool()

	deviceAddress  = app.Flag("device.address", "Modem address.").Envar("MOTO_HOSTNAME").String()
	deviceUsername = app.Flag("device.username", "Modem username.").Envar("MOTO_USERNAME").String()
	devicePassword = app.Flag("device.password", "Modem password.").Envar("MOTO_PASSWORD").String()

	readCmd  = app.Command("read", "Collect once and write to the configured sinks.")
	readInfo = readCmd.Flag("info", "Also collect connection info.").Bool()
	readLogs = readCmd.Flag("logs", "Also collect the modem log.").Bool()

	dumpCmd  = app.Command("dump", "Collect once and print tables.")
	dumpInfo = dumpCmd.Flag("info", "Also collect connection info.").Bool()
	dumpLogs = dumpCmd.Flag("logs", "Also collect the modem log.").Bool()
	dumpXLSX = dumpCmd.Flag("xlsx", "Write the tables to an Excel workbook.").String()
	dumpPDF  = dumpCmd.Flag("pdf", "Write the tables to a PDF report.").String()

	runCmd    = app.Command("run", "Collect continuously and write to the configured sinks.")
	runInfo   = runCmd.Flag("info", "Also collect connection info.").Bool()
	runLogs   = runCmd.Flag("logs", "Also collect the modem log.").Bool()
	runListen = runCmd.Flag("web.listen-address", "Address for the metrics endpoint, overrides prometheus.listen.").String()
)

func main() {
	app.Version(version.Print(exporterName))
	app.HelpFlag.Short('h')
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := zap.InfoLevel
	if *debug {
		level = zap.DebugLevel
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting moto-exporter", zap.String("version", version.Info()), zap.String("build_context", version.BuildContext()))

	sc := config.New(*configFile)
	if err := sc.LoadConfig(); err != nil {
		log.Fatal("error loading config", zap.Error(err))
	}
	sc.Update(applyFlags)

	registry := prometheus.NewRegistry()
	registry.MustRegister(versioncollector.NewCollector(exporterName))
	config.Register(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case readCmd.FullCommand():
		err = read(ctx, log, sc.Get(), registry, collect.Options{Info: *readInfo, Logs: *readLogs})
	case dumpCmd.FullCommand():
		err = dump(ctx, log, sc.Get(), registry, collect.Options{Info: *dumpInfo, Logs: *dumpLogs})
	case runCmd.FullCommand():
		err = run(ctx, log, sc, registry)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("exiting", zap.Error(err))
	}
}

// applyFlags overrides device settings from the command line or environment.
func applyFlags(c *config.Config) {
	if *deviceAddress != "" {
		c.Device.Address = *deviceAddress
	}
	if *deviceUsername != "" {
		c.Device.Username = *deviceUsername
	}
	if *devicePassword != "" {
		c.Device.Password = *devicePassword
	}
}

func newDevice(log *zap.Logger, cfg *config.Config, registry prometheus.Registerer) *api.Client {
	return api.NewClient(log, cfg.Device, cache.New(), api.WithHTTPClient(api.NewHTTPClient(cfg.Device, registry)))
}

func read(ctx context.Context, log *zap.Logger, cfg *config.Config, registry prometheus.Registerer, options collect.Options) error {
	sinks, err := openSinks(ctx, log, cfg, nil)
	if err != nil {
		return err
	}
	defer sinks.Close()
	if len(sinks.Multi) == 0 {
		log.Warn("no sink configured, nothing will be stored")
	}

	c := collect.New(log, newDevice(log, cfg, registry), collector.NewIngester(sinks.Multi, collector.RealClock{}),
		collect.WithObserver(display.NewProgress(os.Stderr)))
	return c.RunOnce(ctx, options)
}

func dump(ctx context.Context, log *zap.Logger, cfg *config.Config, registry prometheus.Registerer, options collect.Options) error {
	renderers := display.Multi{display.NewConsole(os.Stdout)}
	var xlsx *display.XLSX
	if *dumpXLSX != "" {
		xlsx = display.NewXLSX()
		renderers = append(renderers, xlsx)
	}
	var pdf *display.PDF
	if *dumpPDF != "" {
		pdf = display.NewPDF("Modem status " + time.Now().Format(time.RFC3339))
		renderers = append(renderers, pdf)
	}

	c := collect.New(log, newDevice(log, cfg, registry), display.NewEmitter(renderers),
		collect.WithObserver(display.NewProgress(os.Stderr)))
	if err := c.RunOnce(ctx, options); err != nil {
		return err
	}

	if xlsx != nil {
		if err := xlsx.Save(*dumpXLSX); err != nil {
			return fmt.Errorf("error writing workbook: %w", err)
		}
		log.Info("wrote workbook", zap.String("path", *dumpXLSX))
	}
	if pdf != nil {
		if err := pdf.Save(*dumpPDF); err != nil {
			return fmt.Errorf("error writing pdf: %w", err)
		}
		log.Info("wrote pdf", zap.String("path", *dumpPDF))
	}
	return nil
}

func run(ctx context.Context, log *zap.Logger, sc *config.SafeConfig, registry *prometheus.Registry) error {
	cfg := sc.Get()

	sinks, err := openSinks(ctx, log, cfg, registry)
	if err != nil {
		return err
	}
	defer sinks.Close()

	// setup config reload
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	reloadRequest := make(chan chan error)
	go watchReload(ctx, log, sc, hup, reloadRequest)

	listen := cfg.Prometheus.Listen
	if *runListen != "" {
		listen = *runListen
	}
	if listen != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Prometheus.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.Handle("/-/reload", reloadHandler(reloadRequest))
		server := &http.Server{Addr: listen, Handler: mux}
		go func() {
			log.Info("starting http server", zap.String("metrics_path", cfg.Prometheus.MetricsPath), zap.String("listen", listen))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("error starting http server", zap.Error(err))
			}
		}()
		defer server.Close()
	}

	c := collect.New(log, newDevice(log, cfg, registry), collector.NewIngester(sinks.Multi, collector.RealClock{}),
		collect.WithMetrics(collect.NewMetrics(registry)))

	interval := cfg.Collect.Interval
	if interval <= 0 {
		interval = collect.DefaultInterval
	}
	log.Info("collecting", zap.Duration("interval", interval))

	return c.Run(ctx, collect.NewTicker(interval), func() collect.Options {
		current := sc.Get().Collect
		return collect.Options{
			Info: current.Info || *runInfo,
			Logs: current.Logs || *runLogs,
		}
	})
}

// watchReload reloads the config file on SIGHUP or on requests from the reload
// endpoint until ctx is done. Flag overrides are applied again after each load.
func watchReload(ctx context.Context, log *zap.Logger, sc *config.SafeConfig, hup <-chan os.Signal, reloadRequest <-chan chan error) {
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-hup:
			log.Debug("config reload triggered by SIGHUP")
			err = reload(sc)
		case reloadResult := <-reloadRequest:
			log.Debug("config reload triggered by API")
			err = reload(sc)
			reloadResult <- err
		}
		if err != nil {
			log.Error("error reloading config", zap.Error(err))
		} else {
			log.Info("reloaded config file")
		}
	}
}

func reload(sc *config.SafeConfig) error {
	if err := sc.LoadConfig(); err != nil {
		return err
	}
	sc.Update(applyFlags)
	return nil
}

func reloadHandler(reloadRequest chan<- chan error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reloadResult := make(chan error, 1)
		select {
		case reloadRequest <- reloadResult:
		case <-r.Context().Done():
			http.Error(w, "reload not handled", http.StatusServiceUnavailable)
			return
		}
		if err := <-reloadResult; err != nil {
			http.Error(w, fmt.Sprintf("failed to reload config: %s", err), http.StatusInternalServerError)
		}
	}
}
