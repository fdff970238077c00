// Package mockserver is an in-process fake of the merge request backend.
// It serves the REST surface the client consumes from an in-memory store
// seeded by YAML fixtures, and is used by `mrview mock-server` and by tests.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ctxKey struct{}

// Options configures the server.
type Options struct {
	// Users maps bearer tokens to user ids. When empty every request is
	// accepted as user 1.
	Users  map[string]int64
	Logger zerolog.Logger
}

// Server serves the backend API.
type Server struct {
	store     *Store
	users     map[string]int64
	validator *validator.Validate
	logger    zerolog.Logger
}

// New creates a server over store.
func New(store *Store, opts Options) *Server {
	return &Server{
		store:     store,
		users:     opts.Users,
		validator: validator.New(),
		logger:    opts.Logger,
	}
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.With(s.requireUser).Get("/api/auth", s.handleAuth)

	r.Route("/api/mr", func(r chi.Router) {
		r.Get("/list", s.handleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/detail", s.handleDetail)
			r.Get("/files", s.handleFiles)
			r.Get("/files-changed", s.handleDiff)

			r.Group(func(r chi.Router) {
				r.Use(s.requireUser)
				r.Post("/merge", s.handleMerge)
				r.Post("/close", s.handleLifecycle(s.store.Close))
				r.Post("/reopen", s.handleLifecycle(s.store.Reopen))
				r.Post("/comment", s.handleComment)
				r.Post("/comment/{conv_id}/edit", s.handleEditComment)
			})
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			s.logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := int64(1)

		if len(s.users) > 0 {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			id, known := s.users[token]
			if !ok || !known {
				respondError(w, errUnauthorized)
				return
			}
			userID = id
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKey{}).(int64)
	return id
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{"user_id": userFrom(r.Context())})
}

type listQuery struct {
	Status string `validate:"omitempty,oneof=open closed merged all"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Status: r.URL.Query().Get("status")}
	if err := s.validator.Struct(q); err != nil {
		s.logger.Debug().Err(err).Msg("validation failed")
		respondError(w, errInvalidRequest)
		return
	}

	records := s.store.List(q.Status)
	out := make([]summaryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toSummary(rec))
	}
	respondOK(w, out)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toDetail(rec))
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]fileResponse, 0, len(rec.Files))
	for _, f := range rec.Files {
		out = append(out, fileResponse(f))
	}
	respondOK(w, out)
}

// handleDiff returns the diff as an enveloped string, or as plain text when
// the client asks for it.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rec.Diff))
		return
	}
	respondOK(w, rec.Diff)
}

// handleMerge reports merge failures inside a successful envelope, the way
// the backend does.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	res := mergeResponse{Result: true}
	if err := s.store.Merge(chi.URLParam(r, "id")); err != nil {
		if m := mapError(err); m.StatusCode != http.StatusOK {
			respondError(w, err)
			return
		}
		res = mergeResponse{Result: false, ErrMessage: err.Error()}
	}
	respondOK(w, res)
}

func (s *Server) handleLifecycle(fn func(id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		respondOK(w, nil)
	}
}

type contentRequest struct {
	Content string `json:"content" validate:"required,max=65536"`
}

func (s *Server) decodeContent(r *http.Request) (string, error) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.Join(errInvalidRequest, err)
	}
	if err := s.validator.Struct(req); err != nil {
		return "", errors.Join(errInvalidRequest, err)
	}
	if strings.TrimSpace(req.Content) == "" {
		return "", errInvalidRequest
	}
	return req.Content, nil
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	content, err := s.decodeContent(r)
	if err != nil {
		s.logger.Debug().Err(err).Msg("invalid comment")
		respondError(w, err)
		return
	}

	if err := s.store.Comment(chi.URLParam(r, "id"), userFrom(r.Context()), content); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	convID, err := strconv.ParseInt(chi.URLParam(r, "conv_id"), 10, 64)
	if err != nil {
		respondError(w, errInvalidRequest)
		return
	}

	content, err := s.decodeContent(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.store.EditComment(chi.URLParam(r, "id"), convID, content); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}
