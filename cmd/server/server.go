package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metrics-reporter/pkg/config"
	"github.com/metrics-reporter/pkg/source"
)

// SourceLister 提供当前已注册的指标源（/sources 使用）
type SourceLister interface {
	Registered() []source.MetricSource
}

// Server HTTP服务实例，封装核心依赖和配置
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	server   *http.Server
	registry *prometheus.Registry
	sources  SourceLister
	mux      *customMux
}

// statusWriter 包装ResponseWriter，捕获状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

// customMux 自定义Mux，兼容原生用法并记录路由
type customMux struct {
	http.ServeMux
	routes []string
	mu     sync.Mutex
}

func (m *customMux) Handle(pattern string, handler http.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(m.routes, pattern) {
		m.routes = append(m.routes, pattern)
	}
	m.ServeMux.Handle(pattern, handler)
}

func (m *customMux) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	m.Handle(pattern, http.HandlerFunc(handler))
}

// NewHTTPServer 创建HTTP服务实例（Start 之前不监听端口）
func NewHTTPServer(cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry, sources SourceLister) *Server {
	mux := &customMux{}

	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		sources:  sources,
		mux:      mux,
	}
	srv.registerEndpoints()

	srv.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.logMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return srv
}

// Handler 返回带日志中间件的根 handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Debug(
			"HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Metrics Reporter</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		h1 { color: #333; }
		a { display: block; margin: 8px 0; font-size: 18px; }
		code { background-color: #f0f0f0; padding: 2px 4px; }
	</style>
</head>
<body>
	<h1>Metrics Reporter</h1>
	<p>Mode: <code>%s</code>, interval: <code>%s</code></p>
	<h2>Available Endpoints:</h2>
	<a href="/health">/health - liveness</a>
	<a href="/metrics">/metrics - Prometheus exposition</a>
	<a href="/sources">/sources - registered metric sources</a>
</body>
</html>
`

func (s *Server) registerEndpoints() {
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, indexPage, s.cfg.Reporter.Mode, s.cfg.Reporter.Interval)
	})

	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(s.logger),
	}))

	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.mux.HandleFunc("/sources", func(w http.ResponseWriter, r *http.Request) {
		names := []string{}
		if s.sources != nil {
			for _, src := range s.sources.Registered() {
				names = append(names, src.Name())
			}
		}
		slices.Sort(names)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(names); err != nil {
			s.logger.Warn("encode sources failed", zap.Error(err))
		}
	})
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Start 启动HTTP服务（非阻塞）
func (s *Server) Start() error {
	s.logger.Info(
		"starting HTTP server",
		zap.String("listen_addr", s.cfg.Server.Addr),
		zap.Strings("handle_funcs", s.mux.routes),
	)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown 优雅关闭HTTP服务，等待进行中的请求结束
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server shutdown successfully")
	return nil
}
