package server

import (
	"context"
	"reflect"
	"strings"
	"time"

	"school_portal/internal/attendance"
	"school_portal/internal/portal"
	"school_portal/src/logger"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// Server wires the attendance service and portal menus to HTTP
type Server struct {
	app      *fiber.App
	service  *attendance.Service
	menus    *portal.Registry
	tools    map[string]tool.InvokableTool
	validate *validator.Validate
	log      zerolog.Logger
}

// New builds the fiber app and registers every route
func New(ctx context.Context, service *attendance.Service, menus *portal.Registry) (*Server, error) {
	tools, err := service.Tools()
	if err != nil {
		return nil, err
	}

	s := &Server{
		service:  service,
		menus:    menus,
		tools:    make(map[string]tool.InvokableTool, len(tools)),
		validate: newValidator(),
		log:      logger.Component("http"),
	}
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		s.tools[info.Name] = t
	}

	s.app = fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	s.app.Use(s.requestID)

	s.routes()
	return s, nil
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on addr
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown waits for in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api")

	att := api.Group("/attendance")
	att.Get("/", s.lookup(attendance.FlowFull))
	att.Get("/quick", s.lookup(attendance.FlowQuick))
	att.Get("/cached", s.lookup(attendance.FlowCached))
	att.Get("/summary", s.summary)

	api.Post("/ids/normalize", s.normalizeID)
	api.Get("/menu/:role", s.menu)

	api.Get("/tools", s.listTools)
	api.Post("/tools/:name", s.runTool)
}

// requestID propagates or assigns X-Request-ID and logs the request once it completes
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(headerRequestID, id)
	c.Locals("reqid", id)
	c.SetUserContext(attendance.WithRequestID(c.UserContext(), id))

	start := time.Now()
	err := c.Next()
	s.log.Debug().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("path", c.OriginalURL()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request handled")
	return err
}

// newValidator reports fields by their query or json name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}
