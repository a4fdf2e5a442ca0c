package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	app "recycle-guide/internal/application"
	"recycle-guide/internal/domain/entity"
	"recycle-guide/internal/domain/port"
)

// LoopInfo то, что сервер показывает о контроллере цикла
type LoopInfo interface {
	Phase() app.Phase
	Stats() app.LoopStats
}

// StatusView ответ /status и сообщения /ws
type StatusView struct {
	entity.Snapshot
	StatusLine string         `json:"status_line"`
	Phase      string         `json:"phase,omitempty"`
	Stats      *app.LoopStats `json:"stats,omitempty"`
}

// Server HTTP-витрина текущего шага
type Server struct {
	app   *fiber.App
	store port.StateStore
	loop  LoopInfo
	log   logrus.FieldLogger
}

// NewServer создаёт сервер. loop может быть nil.
func NewServer(store port.StateStore, loop LoopInfo, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		store: store,
		loop:  loop,
		log:   log.WithField("component", "web"),
	}

	f := fiber.New(fiber.Config{
		AppName:               "recycle-guide",
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
	})

	f.Get("/healthz", s.handleHealth)
	f.Get("/status", s.handleStatus)

	f.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	f.Get("/ws", websocket.New(s.handleStatusWS))

	s.app = f
	return s
}

// Listen блокирует до остановки сервера
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("status server listening")
	return s.app.Listen(addr)
}

// Shutdown закрывает listener и активные соединения
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.view(s.store.Current()))
}

func (s *Server) view(snap entity.Snapshot) StatusView {
	v := StatusView{Snapshot: snap, StatusLine: snap.StatusLine()}
	if s.loop != nil {
		stats := s.loop.Stats()
		v.Phase = s.loop.Phase().String()
		v.Stats = &stats
	}
	return v
}

// handleStatusWS отправляет текущий снимок, затем каждый новый.
// Медленному клиенту достаётся только последний снимок.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	updates := make(chan entity.Snapshot, 1)
	unsubscribe := s.store.Subscribe(func(snap entity.Snapshot) {
		select {
		case updates <- snap:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := c.WriteJSON(s.view(s.store.Current())); err != nil {
		s.log.WithError(err).Debug("websocket write failed")
		return
	}

	for {
		select {
		case snap := <-updates:
			if err := c.WriteJSON(s.view(snap)); err != nil {
				s.log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-closed:
			return
		}
	}
}
