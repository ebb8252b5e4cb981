// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"loanscore/monitoring"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   64 << 10,
	}
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, scorer Scorer, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := NewRouter(scorer, metrics, logger)

	chain := newMiddlewareChain(config, logger)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout + 5*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// newMiddlewareChain 创建中间件链
func newMiddlewareChain(config ServerConfig, logger *zap.Logger) Middleware {
	return Chain(
		LoggerMiddleware(logger),                   // 1. 日志中间件（最外层，panic请求也会记录）
		RecoveryMiddleware(logger),                 // 2. 恢复中间件（捕获panic）
		SecurityHeadersMiddleware,                  // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),      // 4. CORS中间件
		RequestSizeMiddleware(config.MaxBodyBytes), // 5. 请求大小限制
		TimeoutMiddleware(config.Timeout),          // 6. 超时中间件
	)
}

// NewRouter 注册所有处理器
func NewRouter(scorer Scorer, metrics *monitoring.MetricsCollector, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	h := newHandler(scorer, metrics, logger)
	RegisterHandlers(mux, h)
	RegisterPredictHandlers(mux, h)
	RegisterFormHandlers(mux, h)
	return mux
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler 返回包装后的处理器
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
