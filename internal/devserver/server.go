// Package devserver is a local stand-in for the form upload service. It
// accepts the same multipart request the upload client sends, checks the
// token the way the real service does and keeps files in a BlobStore.
package devserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/tendant/qiniu-upload/pkg/qiniu/token"
	"github.com/tendant/qiniu-upload/pkg/qiniu/upload"
	"github.com/tendant/qiniu-upload/pkg/storage"
)

const (
	defaultMaxMemory     = 32 << 20
	defaultMaxUploadSize = 1 << 30
)

// Server handles uploads and serves stored objects back by key
type Server struct {
	store           storage.BlobStore
	verifier        *token.Verifier
	bucket          string
	keys            upload.KeyGenerator
	maxMemory       int64
	maxUploadSize   int64
	shutdownTimeout time.Duration
	logger          *slog.Logger
	clock           func() time.Time
}

// Option is a functional option for configuring a Server
type Option func(*Server)

// WithBucket restricts uploads to tokens scoped to bucket.
// Without it any scope is accepted.
func WithBucket(bucket string) Option {
	return func(s *Server) {
		s.bucket = bucket
	}
}

// WithKeyGenerator sets how keys are chosen when a request has no "key" field
func WithKeyGenerator(g upload.KeyGenerator) Option {
	return func(s *Server) {
		if g != nil {
			s.keys = g
		}
	}
}

// WithMaxMemory sets how much of a multipart form is held in memory
func WithMaxMemory(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxMemory = n
		}
	}
}

// WithMaxUploadSize caps the size of an upload request body.
// Larger requests are rejected with 413.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadSize = n
		}
	}
}

// WithLogger sets the request and lifecycle logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time used to check token deadlines
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.clock = now
	}
}

// New creates a Server storing into store and resolving secrets with keys
func New(store storage.BlobStore, keys token.KeyLookup, opts ...Option) *Server {
	s := &Server{
		store:           store,
		keys:            upload.NewUUIDKeys(),
		maxMemory:       defaultMaxMemory,
		maxUploadSize:   defaultMaxUploadSize,
		shutdownTimeout: 10 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.verifier = token.NewVerifier(keys, token.WithVerifierClock(s.clock))
	return s
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
	r.Post("/", s.handleUpload)
	r.Get("/*", s.handleGet)

	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("upload server starting", "address", ln.Addr().String(), "bucket", s.bucket)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down upload server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type uploadReply struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	tok := r.FormValue("token")
	if tok == "" {
		writeError(w, r, http.StatusUnauthorized, "token not specified")
		return
	}

	policy, err := s.verifier.Verify(tok)
	if err != nil {
		s.logger.Warn("rejected upload token", "err", err, "request_id", middleware.GetReqID(r.Context()))
		switch {
		case errors.Is(err, token.ErrExpired):
			writeError(w, r, http.StatusForbidden, "expired token")
		case errors.Is(err, token.ErrInvalidSignature):
			writeError(w, r, http.StatusForbidden, "invalid signature")
		default:
			writeError(w, r, http.StatusUnauthorized, "bad token")
		}
		return
	}

	if s.bucket != "" && policy.Scope != s.bucket {
		writeError(w, r, http.StatusForbidden, "scope "+strconv.Quote(policy.Scope)+" does not match bucket")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file not specified")
		return
	}
	defer file.Close()

	key := r.FormValue("key")
	if key == "" {
		key = s.keys.GenerateKey()
	}

	hash := sha1.New()
	content := io.TeeReader(file, hash)
	if err := s.store.Put(r.Context(), key, content, header.Header.Get("Content-Type")); err != nil {
		s.logger.Error("failed to store upload", "key", key, "err", err)
		writeError(w, r, http.StatusInternalServerError, "failed to store file")
		return
	}

	reply := uploadReply{Key: key, Hash: hex.EncodeToString(hash.Sum(nil))}
	s.logger.Info("stored upload", "key", key, "bucket", policy.Scope, "size", header.Size)
	render.JSON(w, r, reply)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, r, http.StatusNotFound, "object key is required")
		return
	}

	rc, meta, err := s.store.Get(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "no such file or directory")
		return
	}
	if err != nil {
		s.logger.Error("failed to read object", "key", key, "err", err)
		writeError(w, r, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("failed to stream object", "key", key, "err", err)
	}
}

// writeError replies in the service's {"error": "..."} format
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}
