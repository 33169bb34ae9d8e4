package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"voicenotes/internal/config"
	"voicenotes/internal/generation"
	"voicenotes/internal/model"
	"voicenotes/internal/pipeline"
	"voicenotes/internal/prompt"
	"voicenotes/internal/upstream/openai"
	"voicenotes/internal/validation"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Gateway interface {
	Transcribe(ctx context.Context, in pipeline.TranscribeInput) (string, error)
	Transform(ctx context.Context, in pipeline.TransformInput) (pipeline.TransformResult, error)
	Translate(ctx context.Context, in pipeline.TranslateInput) (pipeline.TranslateResult, error)
}

type UpstreamChecker interface {
	CheckModels(ctx context.Context) error
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
	ObserveOperation(operation, outcome string)
	ObserveConversion(format, outcome string)
	ObserveGeneration(operation string, promptTokens, completionTokens, outputChars int)
}

type Dependencies struct {
	Gateway        Gateway
	Upstream       UpstreamChecker
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg          config.Config
	logger       *slog.Logger
	gateway      Gateway
	upstream     UpstreamChecker
	metrics      MetricsObserver
	metricsRoute http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	maxJSONBodyBytes = 1 << 20
	serviceName      = "voicenotes"
)

const (
	opTranscribe = "transcribe"
	opConvert    = "convert"
	opTranslate  = "translate"

	// Route label for requests chi could not match.
	unmatchedRoute = "unmatched"
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Gateway == nil || deps.Upstream == nil {
		panic("httpapi: gateway and upstream dependencies are required")
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		gateway:      deps.Gateway,
		upstream:     deps.Upstream,
		metrics:      deps.Metrics,
		metricsRoute: deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.credentialsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	routes := func(r chi.Router) {
		r.Post("/transcribe", s.handleTranscribe)
		r.Post("/convert", s.handleConvert)
		r.Post("/translate", s.handleTranslate)
	}
	r.Group(routes)
	// The browser client posts to /api/<operation>.
	r.Route("/api", routes)

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{OK: true})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.cfg.UpstreamAPIKey == "" && openai.RequestAPIKeyFromContext(r.Context()) == "" {
		writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: serviceName})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.upstream.CheckModels(ctx); err != nil {
		s.logger.Warn("readiness check failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		s.writeError(w, r, http.StatusServiceUnavailable, "not_ready", "upstream check failed")
		return
	}
	writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: serviceName})
}

func (s *server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	file, header, form, err := s.readMultipartAudio(w, r)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer cleanupMultipartForm(form)
	defer func() { _ = file.Close() }()

	if header.Size == 0 {
		s.observeOperation(opTranscribe, "invalid_request")
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "No file provided")
		return
	}

	text, err := s.gateway.Transcribe(r.Context(), pipeline.TranscribeInput{
		File:     file,
		FileName: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Model:    strings.TrimSpace(r.FormValue("model")),
	})
	if err != nil {
		s.writeOperationError(w, r, opTranscribe, err)
		return
	}

	s.observeOperation(opTranscribe, "ok")
	writeJSON(w, http.StatusOK, model.TranscriptionResponse{Text: text})
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req model.ConvertRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	formatLabel := "invalid"
	if format, ok := prompt.ParseFormat(req.Format); ok {
		formatLabel = string(format)
	}

	result, err := s.gateway.Transform(r.Context(), pipeline.TransformInput{
		Text:   req.Text,
		Format: req.Format,
		Model:  req.Model,
	})
	if err != nil {
		code := s.writeOperationError(w, r, opConvert, err)
		s.observeConversion(formatLabel, code)
		return
	}

	s.logger.Debug("conversion complete",
		"request_id", requestIDFromContext(r.Context()),
		"format", string(result.Format),
		"markdown_chars", len(result.Markdown),
		"total_tokens", totalTokens(result.Usage),
	)
	s.observeOperation(opConvert, "ok")
	s.observeConversion(formatLabel, "ok")
	s.observeGeneration(opConvert, result.Usage, result.Markdown)
	writeJSON(w, http.StatusOK, model.ConvertResponse{ConvertedText: result.HTML})
}

func (s *server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req model.TranslateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.gateway.Translate(r.Context(), pipeline.TranslateInput{
		Text:  req.Text,
		Lang:  req.Lang,
		Model: req.Model,
	})
	if err != nil {
		s.writeOperationError(w, r, opTranslate, err)
		return
	}

	s.logger.Debug("translation complete",
		"request_id", requestIDFromContext(r.Context()),
		"language", result.Language,
		"total_tokens", totalTokens(result.Usage),
	)
	s.observeOperation(opTranslate, "ok")
	s.observeGeneration(opTranslate, result.Usage, result.Text)
	writeJSON(w, http.StatusOK, model.ConvertResponse{ConvertedText: result.Text})
}

func (s *server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return false
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return false
	}
	return true
}

func (s *server) readMultipartAudio(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, *multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(min(s.cfg.MaxUploadBytes, 8<<20)); err != nil {
		return nil, nil, r.MultipartForm, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, r.MultipartForm, err
	}
	return file, header, r.MultipartForm, nil
}

func (s *server) handleMultipartReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", fmt.Sprintf("request exceeds %d bytes", s.cfg.MaxUploadBytes))
	case errors.Is(err, http.ErrMissingFile):
		s.observeOperation(opTranscribe, "invalid_request")
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "No file provided")
	default:
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid multipart form data")
	}
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "JSON body too large")
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
}

// writeOperationError maps gateway errors onto a fixed set of client-visible
// messages. Upstream details go to the log only.
func (s *server) writeOperationError(w http.ResponseWriter, r *http.Request, operation string, err error) string {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := failureMessage(operation)

	var fieldErr *validation.Error
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		status = http.StatusBadRequest
		code = "invalid_request"
		if errors.As(err, &fieldErr) {
			message = fieldErr.Error()
		} else {
			message = "No file provided"
		}
	case errors.Is(err, context.Canceled):
		status = 499
		code = "canceled"
		message = "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		code = "upstream_timeout"
	case errors.Is(err, pipeline.ErrTranscriptionFailed):
		code = "transcription_failed"
	case errors.Is(err, pipeline.ErrRenderFailed):
		code = "render_failed"
	case errors.Is(err, pipeline.ErrGenerationFailed):
		code = "generation_failed"
	}

	if status >= http.StatusInternalServerError {
		attrs := []any{
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"code", code,
			"error", err,
		}
		var upstreamErr *openai.Error
		if errors.As(err, &upstreamErr) {
			attrs = append(attrs, "upstream_status", upstreamErr.StatusCode, "upstream_body", upstreamErr.Body)
			if upstreamErr.RateLimited() {
				attrs = append(attrs, "rate_limited", true)
			}
		}
		s.logger.Error("upstream operation failed", attrs...)
	}

	s.observeOperation(operation, code)
	s.writeError(w, r, status, code, message)
	return code
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	rid := requestIDFromContext(r.Context())
	if rid != "" {
		w.Header().Set(requestIDHeader, rid)
	}
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code, RequestID: rid})
}

func (s *server) observeOperation(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, outcome)
	}
}

func (s *server) observeConversion(format, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveConversion(format, outcome)
	}
}

func (s *server) observeGeneration(operation string, usage *generation.TokenUsage, output string) {
	if s.metrics == nil {
		return
	}
	var promptTokens, completionTokens int
	if usage != nil {
		promptTokens, completionTokens = usage.PromptTokens, usage.CompletionTokens
	}
	s.metrics.ObserveGeneration(operation, promptTokens, completionTokens, utf8.RuneCountInString(output))
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// credentialsMiddleware lets a caller supply the upstream API key as a bearer
// token. Without a server-side key such a token is mandatory.
func (s *server) credentialsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, hasHeader, ok := extractBearerToken(r.Header.Get("Authorization"))
		if hasHeader && !ok {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authorization must be Bearer <api_key>")
			return
		}
		if !isPublicPath(r.URL.Path) && token == "" && s.cfg.UpstreamAPIKey == "" {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing upstream API key")
			return
		}
		if token != "" {
			r = r.WithContext(openai.WithRequestAPIKey(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func isPublicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	default:
		return false
	}
}

func failureMessage(operation string) string {
	if operation == opTranscribe {
		return "Transcription failed"
	}
	return "Conversion failed"
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(value)
}

func ensureBodyFullyConsumed(decoder *json.Decoder) error {
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("multiple JSON values")
		}
		return err
	}
	return nil
}

func cleanupMultipartForm(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}

func extractBearerToken(header string) (token string, hasHeader bool, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, true
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", true, false
	}
	token = strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", true, false
	}
	return token, true, true
}

func totalTokens(u *generation.TokenUsage) int {
	if u == nil {
		return 0
	}
	return u.TotalTokens
}
