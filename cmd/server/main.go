package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	persistlog "voxeledit.ai/internal/persistence/log"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/editor"
	"voxeledit.ai/internal/sim/tuning"
	"voxeledit.ai/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		editorID    = flag.String("editor", "editor_1", "editor id reported in WELCOME")
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir     = flag.String("data", "./data", "runtime data directory (audit log + index)")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite audit index")
		metricsAddr = flag.String("metrics_addr", "", "separate listen address for /metrics (default: served on -addr)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if tune.ProtocolVersion != "" && tune.ProtocolVersion != protocol.Version {
		logger.Fatalf("tuning protocol_version=%s, server speaks %s", tune.ProtocolVersion, protocol.Version)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.RecordTuning(tune); err != nil {
			logger.Printf("index backend: record tuning: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := editor.NewMetrics(reg)
	if idx != nil {
		registerIndexMetrics(reg, idx)
	}

	ed, err := editor.New(editor.Config{
		ID:              *editorID,
		ChunkSize:       tune.ChunkSize,
		BootstrapOrigin: tune.BootstrapOrigin,
		MaxFloodFaces:   tune.MaxFloodFaces,
		MaxRectVolume:   tune.MaxRectVolume,
	}, log.New(os.Stdout, "[editor] ", log.LstdFlags|log.Lmicroseconds), metrics)
	if err != nil {
		logger.Fatalf("editor: %v", err)
	}

	auditLog := persistlog.NewAuditLogger(*dataDir, persistlog.Options{})
	defer auditLog.Close()
	sinks := multiAuditLogger{auditLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	ed.SetAuditLogger(sinks)

	validator, err := protocol.NewValidator()
	if err != nil {
		logger.Fatalf("schemas: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := ed.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("editor stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(ed, validator, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))
	wsSrv.MaxQueue = tune.ClientQueue

	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	servers := []*http.Server{{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
	if ma := strings.TrimSpace(*metricsAddr); ma != "" && ma != *addr {
		mm := http.NewServeMux()
		mm.Handle("/metrics", metricsHandler)
		servers = append(servers, &http.Server{Addr: ma, Handler: mm, ReadHeaderTimeout: 5 * time.Second})
		go func() {
			logger.Printf("metrics on %s", ma)
			if err := servers[1].ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics listener: %v", err)
			}
		}()
	} else {
		mux.Handle("/metrics", metricsHandler)
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		for _, srv := range servers {
			_ = srv.Shutdown(ctx2)
		}
	}()

	logger.Printf("listening on %s chunk_size=%d", *addr, tune.ChunkSize)
	if err := servers[0].ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
