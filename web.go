package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/rs/zerolog/log"

	"cropedit/internal/crop"
)

//go:embed static
var staticFS embed.FS
var isDebug = os.Getenv("DEBUG") == "1"

type Config struct {
	RootDir string
	// OutputDir is left out of image listings.
	OutputDir        string
	EditorOptions    []crop.Option
	OnBeforeShutdown func()
	OnReady          func(addr string)
	OnSave           func(ops Operations)
}

type WebApp struct {
	config       Config
	sessions     *SessionStore
	images       *ImagingCropper
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewWebApp(config Config) *WebApp {
	return &WebApp{
		config:     config,
		sessions:   NewSessionStore(config.EditorOptions...),
		images:     NewImagingCropper(),
		shutdownCh: make(chan struct{}),
	}
}

func (a *WebApp) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}

func (a *WebApp) Run(ctx context.Context) error {
	webapp := a.newServer()

	webapp.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-a.shutdownCh:
		}
		if fn := a.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := webapp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	// Let the OS assign a random available port
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", 0))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	// Use the listener that was already created
	if err := webapp.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (a *WebApp) newServer() *fiber.App {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	webapp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "Server running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	filesRoot := http.Dir(a.config.RootDir)
	webapp.Get("/api/view", func(c *fiber.Ctx) error {
		filePath := c.Query("file")
		return filesystem.SendFile(c, filesRoot, filePath)
	})

	webapp.Get("/api/ls", func(c *fiber.Ctx) error {
		var skip []string
		if rel, ok := relativeDir(a.config.RootDir, a.config.OutputDir); ok {
			skip = append(skip, rel)
		}
		dir, err := walkImages(a.config.RootDir, skip...)
		if err != nil {
			return fmt.Errorf("failed to walk dir: %w", err)
		}

		for i := range dir.Files {
			dir.Files[i].URL = "/api/view?file=" + url.QueryEscape(dir.Files[i].Name)
		}

		var response struct {
			Name  string     `json:"name"`
			Files []FileInfo `json:"files"`
		}
		response.Name = dir.Name
		response.Files = dir.Files

		return c.JSON(response)
	})

	sessions := webapp.Group("/api/sessions")
	sessions.Post("/", a.createSession)
	sessions.Get("/:id", a.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.State())
	}))
	sessions.Post("/:id/events", a.withSession(func(c *fiber.Ctx, s *Session) error {
		var request struct {
			Events []crop.PointerEvent `json:"events"`
		}
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		state, applied := s.Apply(request.Events)
		log.Ctx(c.UserContext()).Debug().
			Str("session", s.ID).
			Int("events", len(request.Events)).
			Int("applied", applied).
			Stringer("region", state.Region).
			Msg("pointer events")
		return c.JSON(state)
	}))
	sessions.Put("/:id/shape", a.withSession(func(c *fiber.Ctx, s *Session) error {
		var request struct {
			Shape crop.Shape `json:"shape"`
		}
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(s.SetShape(request.Shape))
	}))
	sessions.Put("/:id/layout", a.withSession(func(c *fiber.Ctx, s *Session) error {
		var request crop.Bounds
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(s.SetLayout(request))
	}))
	sessions.Get("/:id/preview", a.withSession(func(c *fiber.Ctx, s *Session) error {
		img, err := s.Preview()
		if err != nil {
			return err
		}
		var b bytes.Buffer
		if err := a.images.Encode(&b, img); err != nil {
			return err
		}
		c.Type("png")
		return c.Send(b.Bytes())
	}))
	sessions.Get("/:id/export", a.withSession(func(c *fiber.Ctx, s *Session) error {
		img, shape, err := s.Export()
		if err != nil {
			return err
		}
		var b bytes.Buffer
		if err := a.images.Encode(&b, img); err != nil {
			return err
		}
		log.Ctx(c.UserContext()).Info().
			Str("session", s.ID).
			Str("filename", s.Filename).
			Stringer("shape", shape).
			Msg("exported crop")
		c.Attachment(crop.ExportFilename(shape))
		return c.Send(b.Bytes())
	}))
	sessions.Delete("/:id", func(c *fiber.Ctx) error {
		if err := a.sessions.Delete(c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})

	webapp.Post("/api/save", func(c *fiber.Ctx) error {
		var request struct {
			Operations []Operation `json:"operations"`
		}

		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		if fn := a.config.OnSave; fn != nil {
			fn(request.Operations)
		}

		return c.SendStatus(http.StatusNoContent)
	})
	webapp.Post("/api/shutdown", func(c *fiber.Ctx) error {
		a.Shutdown()
		return nil
	})

	if isDebug {
		log.Debug().Msg("Debug mode enabled, serving static files from './static' directory")
		webapp.Static("/", "static")
	} else {
		log.Debug().Msg("Serving static files from embedded filesystem")
		webapp.Use("/", filesystem.New(filesystem.Config{
			Root:       http.FS(staticFS),
			PathPrefix: "/static",
		}))
	}

	return webapp
}

func (a *WebApp) withSession(fn func(c *fiber.Ctx, s *Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := a.sessions.Get(c.Params("id"))
		if err != nil {
			return err
		}
		return fn(c, s)
	}
}

// createSession opens an image in a new editor. The image is either a file
// under the root directory, named in a JSON body, or a multipart upload.
func (a *WebApp) createSession(c *fiber.Ctx) error {
	var request struct {
		File      string      `json:"file"`
		Container crop.Bounds `json:"container"`
		Shape     crop.Shape  `json:"shape"`
	}

	var (
		src  io.ReadCloser
		name string
	)
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "missing file upload")
		}
		if err := request.Shape.UnmarshalText([]byte(c.FormValue("shape"))); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if request.Container, err = formBounds(c); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("failed to open upload: %w", err)
		}
		src, name = f, fh.Filename
	} else {
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if request.File == "" {
			return fiber.NewError(http.StatusBadRequest, "file is required")
		}
		name = path.Clean("/" + request.File)[1:]
		f, err := http.Dir(a.config.RootDir).Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fiber.NewError(http.StatusNotFound, fmt.Sprintf("file %q not found", request.File))
			}
			return fmt.Errorf("failed to open %s: %w", name, err)
		}
		src = f
	}
	defer src.Close()

	img, err := a.images.Decode(src)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	}
	if request.Container.Empty() {
		// without layout information the image is shown at native size
		b := img.Bounds()
		request.Container = crop.Bounds{Width: float64(b.Dx()), Height: float64(b.Dy())}
	}

	s := a.sessions.Create(name, img, request.Container, request.Shape)
	log.Ctx(c.UserContext()).Info().
		Str("session", s.ID).
		Str("filename", name).
		Msg("opened editor session")
	return c.Status(http.StatusCreated).JSON(s.State())
}

func formBounds(c *fiber.Ctx) (crop.Bounds, error) {
	var b crop.Bounds
	for _, f := range []struct {
		key string
		dst *float64
	}{{"width", &b.Width}, {"height", &b.Height}} {
		v := c.FormValue(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return crop.Bounds{}, fmt.Errorf("invalid %s %q", f.key, v)
		}
		*f.dst = parsed
	}
	return b, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	var precondErr *crop.PreconditionError
	code := http.StatusInternalServerError
	message := "Internal Server Error"
	switch {
	case errors.As(err, &fiberErr):
		if fiberErr.Code == http.StatusNotFound && c.Path() == "/favicon.ico" {
			return nil
		}
		code, message = fiberErr.Code, fiberErr.Message
	case errors.Is(err, ErrSessionNotFound):
		code, message = http.StatusNotFound, err.Error()
	case errors.As(err, &precondErr):
		code, message = http.StatusPreconditionFailed, precondErr.Error()
	}

	event := log.Ctx(c.UserContext()).Error()
	if code < http.StatusInternalServerError {
		event = log.Ctx(c.UserContext()).Warn()
	}
	event.Err(err).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Int("status", code).
		Msg("Request failed")
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// relativeDir returns dir relative to root when dir lies inside root.
func relativeDir(root, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}
