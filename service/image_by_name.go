package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/db"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/events"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/models"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/resolver"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/store"
)

const (
	defaultMissesLimit = 50
	maxMissesLimit     = 500
	shutdownTimeout    = 10 * time.Second
)

type Service struct {
	cfg            *config.Config
	e              *echo.Echo
	store          store.Store
	resolver       *resolver.Resolver
	LookupDatabase db.LookupDatabase
	publisher      events.Publisher
	sqlDB          *sqlx.DB
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		e:              echo.New(),
		cfg:            cfg,
		LookupDatabase: db.NopLookupDatabase{},
		publisher:      events.NopPublisher{},
	}
}

func (s *Service) initBackends() error {
	//image storage init
	switch s.cfg.Storage.Backend {
	case config.BackendMinio:
		minioStore, err := store.NewMinioStore(s.cfg.Minio)
		if err != nil {
			return err
		}
		s.store = minioStore
		log.Printf("serving images from Minio bucket %s", s.cfg.Minio.Bucket)
	default:
		s.store = store.NewFileStore()
		log.Println("serving images from the local filesystem")
	}

	//lookup journal init
	if s.cfg.Postgres.Enabled {
		dB, err := sqlx.Open("postgres", s.cfg.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		s.sqlDB = dB
		journal, err := db.NewLookupDatabase(s.cfg.Postgres.AutoCreate, dB)
		if err != nil {
			s.closeBackends()
			return fmt.Errorf("failed to initialize lookup database: %w", err)
		}
		s.LookupDatabase = journal
		log.Println("connected to Postgres")
	}

	//missing image notifications init
	if s.cfg.RabbitMQ.Enabled {
		publisher, err := events.NewAMQPPublisher(s.cfg.RabbitMQ.URL(), s.cfg.RabbitMQ.Queue)
		if err != nil {
			s.closeBackends()
			return err
		}
		s.publisher = publisher
		log.Println("connected to RabbitMQ")
	}
	return nil
}

func (s *Service) closeBackends() {
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			log.Printf("failed to close Postgres: %v", err)
		}
	}
	if err := s.publisher.Close(); err != nil {
		log.Printf("failed to close RabbitMQ publisher: %v", err)
	}
}

func (s *Service) setupRoutes() {
	s.resolver = resolver.New(s.store, s.cfg.Images.Extensions)

	s.e.HideBanner = true
	s.e.Use(middleware.RequestID())
	s.e.Use(middleware.Logger())
	s.e.Use(middleware.Recover())

	s.e.GET("/health", s.Health)

	images := s.e.Group("/Images")
	images.GET("/General/:name/:type", s.GetGeneralImage)
	images.GET("/Ratings/:theme/:name", s.GetRatingImage)
	images.GET("/MediaInfo/:theme/:name", s.GetMediaInfoImage)

	v1 := s.e.Group("/api/v1")
	v1.GET("/lookups/misses", s.ListMisses)
}

// StartService blocks until ctx is cancelled or the server fails.
func (s *Service) StartService(ctx context.Context) error {
	if err := s.initBackends(); err != nil {
		return err
	}
	defer s.closeBackends()
	s.setupRoutes()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			log.Printf("failed to shut down server: %v", err)
		}
	}()

	if err := s.e.Start(s.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Service) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) GetGeneralImage(c echo.Context) error {
	request := &models.GeneralImageRequest{}
	if err := bindPath(c, request); err != nil {
		return err
	}
	if err := validateSegments(request.Name, request.Type); err != nil {
		return err
	}

	ctx := c.Request().Context()
	path := s.resolver.ResolveGeneral(ctx, s.cfg.Paths.General, request.Name, request.Type)
	err := s.serveFile(c, models.KindGeneral, request.Name, path)
	s.recordLookup(ctx, models.KindGeneral, "", request.Name, path, err == nil)
	return err
}

func (s *Service) GetRatingImage(c echo.Context) error {
	request := &models.RatingImageRequest{}
	if err := bindPath(c, request); err != nil {
		return err
	}
	return s.getThemedImage(c, models.KindRating, s.cfg.Paths.Ratings, request.Theme, request.Name)
}

func (s *Service) GetMediaInfoImage(c echo.Context) error {
	request := &models.MediaInfoImageRequest{}
	if err := bindPath(c, request); err != nil {
		return err
	}
	return s.getThemedImage(c, models.KindMediaInfo, s.cfg.Paths.MediaInfo, request.Theme, request.Name)
}

func (s *Service) getThemedImage(c echo.Context, kind models.ImageKind, root, theme, name string) error {
	if err := validateSegments(theme, name); err != nil {
		return err
	}

	ctx := c.Request().Context()
	path, err := s.resolver.ResolveThemed(ctx, kind, root, theme, name)
	if err != nil {
		var notFound *resolver.NotFoundError
		if errors.As(err, &notFound) {
			s.recordLookup(ctx, kind, theme, name, "", false)
			if err := s.publisher.PublishMissing(ctx, events.NewMissingImage(kind, theme, name)); err != nil {
				log.Printf("failed to publish missing image event: %v", err)
			}
			return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
		}
		return err
	}

	err = s.serveFile(c, kind, name, path)
	s.recordLookup(ctx, kind, theme, name, path, err == nil)
	return err
}

// bindPath fills request from route parameters only; a GET body never
// takes part in the lookup.
func bindPath(c echo.Context, request any) error {
	return (&echo.DefaultBinder{}).BindPathParams(c, request)
}

// serveFile streams path through http.ServeContent, which handles content
// type, conditional and range requests.
func (s *Service) serveFile(c echo.Context, kind models.ImageKind, name, path string) error {
	f, err := s.store.Open(c.Request().Context(), path)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			notFound := &resolver.NotFoundError{Kind: kind, Name: name}
			return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	defer f.Close()

	c.Response().Header().Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", s.cfg.Images.CacheMaxAge))
	http.ServeContent(c.Response(), c.Request(), f.Name, f.ModTime, f)
	return nil
}

func (s *Service) recordLookup(ctx context.Context, kind models.ImageKind, theme, name, path string, found bool) {
	_, err := s.LookupDatabase.RecordLookup(ctx, &models.Lookup{
		Kind:         kind,
		Theme:        theme,
		Name:         name,
		ResolvedPath: path,
		Found:        found,
	})
	if err != nil {
		log.Printf("failed to record lookup for %s: %v", name, err)
	}
}

func (s *Service) ListMisses(c echo.Context) error {
	limit := defaultMissesLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxMissesLimit)
	}

	lookups, err := s.LookupDatabase.ListMisses(c.Request().Context(), limit)
	if err != nil {
		if errors.Is(err, db.ErrJournalDisabled) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.JSON(http.StatusOK, lookups)
}

// validateSegments rejects values that are empty or could climb out of the
// configured image roots.
func validateSegments(values ...string) error {
	for _, v := range values {
		if v == "" || v == "." || v == ".." || strings.ContainsAny(v, "/\\\x00") {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid path parameter %q", v))
		}
	}
	return nil
}
