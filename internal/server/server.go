// Package server exposes the chat service over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/daisyflowers/budtender/internal/catalog"
	"github.com/daisyflowers/budtender/internal/classification"
	"github.com/daisyflowers/budtender/internal/common"
	"github.com/daisyflowers/budtender/internal/model"
	"github.com/daisyflowers/budtender/internal/recommend"
	"github.com/daisyflowers/budtender/internal/selector"
	"github.com/daisyflowers/budtender/internal/session"
	"github.com/daisyflowers/budtender/internal/storage"
)

// Logbook records served recommendations. Optional; failures are logged
// and never fail a request.
type Logbook interface {
	LogRecommendation(ctx context.Context, rec storage.Recommendation) error
}

// Config wires the server's dependencies. All stores are explicit: they
// are created at process start and torn down at shutdown, never held as
// package state.
type Config struct {
	Cache       *catalog.Cache
	Sessions    *session.Store
	Classifier  *classification.Classifier
	Selector    *selector.Selector
	Recommender recommend.Client
	Logbook     Logbook
	Version     string
}

// Server handles the HTTP chat surface.
type Server struct {
	app         *fiber.App
	cache       *catalog.Cache
	sessions    *session.Store
	classifier  *classification.Classifier
	selector    *selector.Selector
	recommender recommend.Client
	logbook     Logbook
	version     string
}

// New creates the server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		app:         fiber.New(fiber.Config{DisableStartupMessage: true}),
		cache:       cfg.Cache,
		sessions:    cfg.Sessions,
		classifier:  cfg.Classifier,
		selector:    cfg.Selector,
		recommender: cfg.Recommender,
		logbook:     cfg.Logbook,
		version:     cfg.Version,
	}

	s.app.Use(cors.New())
	s.app.Get("/health", s.handleHealth)
	s.app.Post("/chat", s.handleChat)

	return s
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// ListenTLS serves HTTPS with the given certificate until Shutdown is called.
func (s *Server) ListenTLS(addr string, cert tls.Certificate) error {
	return s.app.ListenTLSWithCertificate(addr, cert)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string       `json:"response"`
	Products []model.Card `json:"products"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"products":  s.cache.Count(),
		"version":   s.version,
	})
}

// handleChat runs the full selection pipeline for one message: sweep →
// session → catalog → classify → select → recommend → record pair.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: common.ErrNoMessage.Error()})
	}

	ctx := c.UserContext()

	s.sessions.Sweep()
	key := session.Key(c.IP(), c.Get(fiber.HeaderUserAgent))

	snapshot := s.cache.Products(ctx)
	category := s.classifier.Classify(req.Message)

	common.LogInfo("Chat request", common.Fields{
		"category": category.String(),
		"catalog":  len(snapshot.Products),
	})

	// Selection mutates session variety state, so it runs under the
	// session lock. An empty catalog yields an empty candidate list; the
	// recommender treats that as a valid state.
	var candidates []model.Product
	s.sessions.Update(key, func(sess *model.Session) {
		candidates = s.selector.Select(snapshot.Products, category, req.Message, sess)
	})

	cards := model.NewCards(candidates)
	text, err := s.recommender.Recommend(ctx, cards, req.Message, category)
	if err != nil {
		common.LogError(err, "Recommendation failed", common.Fields{"category": category.String()})
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}

	pair := s.selector.ChoosePair(candidates)
	s.sessions.Update(key, func(sess *model.Session) {
		for _, p := range pair {
			sess.MarkShown(p.Name)
		}
	})
	s.sessions.Touch(key)

	pairCards := model.NewCards(pair)
	if s.logbook != nil {
		names := make([]string, 0, len(pair))
		for _, p := range pair {
			names = append(names, p.Name)
		}
		if err := s.logbook.LogRecommendation(ctx, storage.Recommendation{
			SessionKey:   key,
			Query:        req.Message,
			Category:     category.String(),
			ProductNames: names,
			Response:     text,
		}); err != nil {
			common.LogError(err, "Failed to log recommendation", nil)
		}
	}

	return c.JSON(chatResponse{Response: text, Products: pairCards})
}
