// Package webapi provides a web API text moderation service.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/moderator/lib/spamcheck"
	"github.com/umputun/moderator/lib/stats"
)

//go:generate moq --out mocks/classifier.go --pkg mocks --with-resets --skip-ensure . Classifier

const maxRequestSize = 64 * 1024

// Server is a web API server.
type Server struct {
	Config
	spamDetected stats.Counter
}

// Config defines server parameters
type Config struct {
	Version    string     // version to show in /ping
	ListenAddr string     // listen address
	Classifier Classifier // spam classifier
	Counter    Counter    // shared counter of handled api requests
	AuthPasswd string     // basic auth password for user "moderator", auth disabled if empty
	Throttle   int64      // max number of requests processed concurrently, 0 - no limit
}

// Classifier is a spam classifier interface.
type Classifier interface {
	Classify(text string) spamcheck.Response
}

// Counter is a request counter interface, satisfied by stats.Counter.
type Counter interface {
	Inc() uint64
	Value() uint64
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	return &Server{Config: config}
}

// Run starts server and accepts requests checking for spam messages.
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.Throttle(s.Throttle), rest.AppInfo("moderator", "umputun", s.Version), rest.Ping)
	router.Use(rest.SizeLimit(maxRequestSize))
	router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler) // no body logging, texts are never recorded

	router.HandleFunc("GET /health", s.healthHandler) // liveness, always open

	router.Group().Route(func(api *routegroup.Bundle) {
		if s.AuthPasswd != "" {
			api.Use(rest.BasicAuthWithUserPasswd("moderator", s.AuthPasswd))
		}
		api.HandleFunc("POST /moderate", s.moderateHandler) // check a message for spam
		api.HandleFunc("GET /stats", s.statsHandler)       // total number of handled requests
		api.HandleFunc("GET /metrics", s.metricsHandler)   // prometheus exposition, not counted
	})

	return router
}

// moderateHandler handles POST /moderate request.
// It gets message text from request body and returns score, spam status and reasons.
// Rejected requests are not counted: 415 for non-json content type, 400 for malformed json
// or trailing data after the object, 422 if text is missing, null or not a string.
func (s *Server) moderateHandler(w http.ResponseWriter, r *http.Request) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil ||
		(mt != "application/json" && !strings.HasSuffix(mt, "+json")) {
		s.rejectRequest(w, http.StatusUnsupportedMediaType, "expected request with Content-Type: application/json")
		return
	}

	var req struct {
		Text *string `json:"text"`
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			s.rejectRequest(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.rejectRequest(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		s.rejectRequest(w, http.StatusBadRequest, "trailing data after json object")
		return
	}
	if req.Text == nil {
		s.rejectRequest(w, http.StatusUnprocessableEntity, "missing or null field text")
		return
	}

	s.Counter.Inc()
	resp := s.Classifier.Classify(*req.Text)
	if resp.IsSpam {
		s.spamDetected.Inc()
	}
	log.Printf("[DEBUG] moderated %d bytes, %s", len(*req.Text), resp.String())
	rest.RenderJSON(w, resp)
}

func (s *Server) rejectRequest(w http.ResponseWriter, code int, details string) {
	log.Printf("[WARN] can't decode request: %s", details)
	w.WriteHeader(code)
	rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": details})
}

// healthHandler handles GET /health request. It is a constant liveness signal, no checks performed.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.Counter.Inc()
	rest.RenderJSON(w, rest.JSON{"ok": true})
}

// statsHandler handles GET /stats request. The reported total includes this request.
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	s.Counter.Inc()
	rest.RenderJSON(w, rest.JSON{"requests_total": s.Counter.Value()})
}
