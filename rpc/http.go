package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"graphhub/core"
	"graphhub/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeRateLimited    = -32020
	codePaused         = -32030
	codeSignature      = -32040
	codeRejected       = -32050
)

// ServerConfig carries the transport settings of the RPC server.
type ServerConfig struct {
	RateLimit RateLimit
	Logger    *slog.Logger
	// ShutdownTimeout bounds graceful shutdown in Serve.
	ShutdownTimeout time.Duration
}

type Server struct {
	hub     *core.Hub
	limiter *RateLimiter
	logger  *slog.Logger
	metrics interface {
		Observe(method string, code int, duration time.Duration)
		RecordThrottle(reason string)
	}
	shutdownTimeout time.Duration

	serverMu   sync.Mutex
	httpServer *http.Server
}

func NewServer(hub *core.Hub, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		hub:             hub,
		limiter:         NewRateLimiter(cfg.RateLimit),
		logger:          logger.With("component", "rpc"),
		metrics:         observability.ModuleMetrics(),
		shutdownTimeout: timeout,
	}
}

// Handler returns the HTTP routes of the node.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/events", s.handleEventsWS)
	r.With(s.limiter.Middleware(s.metrics.RecordThrottle)).Post("/", s.handle)
	return otelhttp.NewHandler(r, "graphhub-rpc")
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("JSON-RPC server listening", "addr", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rpc: shutdown: %w", err)
		}
		return nil
	}
}

type requestIDKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

type methodHandler func(s *Server, params []json.RawMessage) (interface{}, *RPCError)

var methods = map[string]methodHandler{
	"hub_sendTransaction":    (*Server).sendTransaction,
	"hub_getState":           (*Server).getState,
	"hub_getRoles":           (*Server).getRoles,
	"hub_getHead":            (*Server).getHead,
	"hub_ownerOf":            (*Server).ownerOf,
	"hub_balanceOf":          (*Server).balanceOf,
	"hub_tokenData":          (*Server).tokenData,
	"hub_getApproved":        (*Server).getApproved,
	"hub_isApprovedForAll":   (*Server).isApprovedForAll,
	"hub_sigNonce":           (*Server).sigNonce,
	"hub_accountNonce":       (*Server).accountNonce,
	"hub_domainSeparator":    (*Server).domainSeparator,
	"hub_chainId":            (*Server).chainID,
	"hub_getOwnershipProof":  (*Server).ownershipProof,
	"hub_isExecutorApproved": (*Server).isExecutorApproved,
	"hub_delegationConfig":   (*Server).delegationConfig,
	"hub_getProfile":         (*Server).getProfile,
	"hub_getPublication":     (*Server).getPublication,
	"hub_isFollowing":        (*Server).isFollowing,
	"hub_isBlocked":          (*Server).isBlocked,
	"hub_isProfileCreator":   (*Server).isProfileCreator,
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := methods[req.Method]
	if !ok {
		s.metrics.Observe(req.Method, codeMethodNotFound, time.Since(start))
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	result, rpcErr := handler(s, req.Params)
	s.metrics.Observe(req.Method, errCode(rpcErr), time.Since(start))
	if rpcErr != nil {
		s.logger.Debug("rpc call failed",
			"method", req.Method,
			"requestid", requestIDFrom(r.Context()),
			"code", rpcErr.Code,
			"error", rpcErr.Message)
		writeError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func errCode(err *RPCError) int {
	if err == nil {
		return 0
	}
	return err.Code
}
