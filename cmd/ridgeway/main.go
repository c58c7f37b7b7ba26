// Command ridgeway runs the reverse proxy dispatch engine: it loads a
// config file describing listeners and services, then accepts and
// forwards connections until terminated.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ridgewayhq/ridgeway/internal/acceptor"
	"github.com/ridgewayhq/ridgeway/internal/config"
	"github.com/ridgewayhq/ridgeway/internal/forward"
	"github.com/ridgewayhq/ridgeway/internal/log/zaplog"
	"github.com/ridgewayhq/ridgeway/internal/metrics"
	"github.com/ridgewayhq/ridgeway/internal/tlsmgr"
	"github.com/ridgewayhq/ridgeway/internal/tracing"
	"github.com/ridgewayhq/ridgeway/pkg/log"
)

var (
	configFile = flag.String("config", "ridgeway.yaml", "Path to the listener/service config file")
	adminAddr  = flag.String("admin-addr", "127.0.0.1:9090", "Address for the metrics admin listener")
	version    = flag.Bool("version", false, "Print version information and exit")
)

const versionString = "ridgeway v0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Println(versionString)
		return
	}

	logger, err := zaplog.New(zaplog.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	log.InitGlobalFactory(logger)

	if err := run(logger); err != nil {
		logger.Fatal("ridgeway exited with error", log.Err(err))
	}
}

func run(logger log.Logger) error {
	file, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tracerProvider, err := tracing.New(tracing.Config{Enabled: false, ServiceName: "ridgeway"})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer tracerProvider.Shutdown(context.Background())

	promProvider := metrics.NewPrometheusProvider("ridgeway")
	dispatchMetrics := metrics.NewDispatch(promProvider)

	forwarder := forward.Traced{Next: forward.NewClient(), Tracer: tracerProvider.Tracer()}

	bundle, err := config.Build(file, forwarder, dispatchMetrics)
	if err != nil {
		return fmt.Errorf("build dispatch table: %w", err)
	}
	instrumented := metrics.Instrument(bundle, dispatchMetrics, "bundle")

	acceptors := make([]*acceptor.Acceptor, 0, len(file.Listeners))
	var acmeManagers []*tlsmgr.Manager
	for _, l := range file.Listeners {
		listenerLogger := logger.With(log.String("listener", l.Name))
		tlsConfig, acmeMgr, err := l.TLSConfigFromSpec(listenerLogger)
		if err != nil {
			return fmt.Errorf("listener %q: %w", l.Name, err)
		}
		var opts []acceptor.Option
		opts = append(opts, acceptor.WithLogger(listenerLogger))
		if tlsConfig != nil {
			opts = append(opts, acceptor.WithTLS(tlsConfig))
		}
		a, err := acceptor.New(l.Address, instrumented, opts...)
		if err != nil {
			return fmt.Errorf("listener %q: %w", l.Name, err)
		}
		acceptors = append(acceptors, a)
		if acmeMgr != nil {
			acmeManagers = append(acmeManagers, acmeMgr)
			go acmeMgr.Run()
		}
	}

	adminServer := &http.Server{Addr: *adminAddr, Handler: promProvider.Handler()}

	var wg sync.WaitGroup
	for _, a := range acceptors {
		wg.Add(1)
		go func(a *acceptor.Acceptor) {
			defer wg.Done()
			logger.Info("listener started", log.String("address", a.Addr().String()))
			if err := a.Run(); err != nil {
				logger.Error("listener stopped", log.Err(err))
			}
		}(a)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("admin metrics listener started", log.String("address", *adminAddr))
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin listener stopped", log.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	for _, a := range acceptors {
		_ = a.Close()
	}
	for _, m := range acmeManagers {
		m.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = adminServer.Shutdown(ctx)

	wg.Wait()
	return nil
}
