// Package web provides a read-only telemetry dashboard for a tracking session.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/strobotta/minitrack/internal/log"
	"github.com/strobotta/minitrack/pkg/hub"
	"github.com/strobotta/minitrack/pkg/tracking"
)

// broadcastInterval throttles websocket pushes; the control loop publishes
// every tick but dashboards don't need more than a few updates per second.
const broadcastInterval = 100 * time.Millisecond

// Server exposes the current tracking session state over HTTP and websocket.
// It implements tracking.Sink; PublishSnapshot never blocks the control loop.
type Server struct {
	app  *fiber.App
	port string

	mu       sync.RWMutex
	snapshot tracking.Snapshot
	hasSnap  bool

	stateHub      *hub.Hub
	lastBroadcast time.Time
}

// NewServer creates a telemetry server listening on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:     port,
		stateHub: hub.New("state"),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/api/state", s.handleState)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// Start runs the server. Blocks; call in a goroutine.
func (s *Server) Start() error {
	go s.stateHub.Run()
	log.Info("telemetry dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishSnapshot records the latest session snapshot and fans it out to
// websocket clients, throttled to broadcastInterval.
func (s *Server) PublishSnapshot(snap tracking.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.hasSnap = true
	due := time.Since(s.lastBroadcast) >= broadcastInterval
	if due {
		s.lastBroadcast = time.Now()
	}
	s.mu.Unlock()

	if due && s.stateHub.ClientCount() > 0 {
		s.stateHub.BroadcastJSON(snap)
	}
}

func (s *Server) handleState(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasSnap {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no session snapshot yet",
		})
	}
	return c.JSON(s.snapshot)
}

func (s *Server) handleStateWS(conn *websocket.Conn) {
	client := hub.NewClient(s.stateHub, conn)
	client.Run()
}
