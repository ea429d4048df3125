package server

import (
	"context"
	"log/slog"

	"github.com/maiimostafaa/voyager-sub001/internal/auth"
	"github.com/maiimostafaa/voyager-sub001/internal/config"
	"github.com/maiimostafaa/voyager-sub001/internal/feed"
	"github.com/maiimostafaa/voyager-sub001/internal/friends"
	"github.com/maiimostafaa/voyager-sub001/internal/geocode"
	"github.com/maiimostafaa/voyager-sub001/internal/location"
	"github.com/maiimostafaa/voyager-sub001/internal/metrics"
	"github.com/maiimostafaa/voyager-sub001/internal/post"
	"github.com/maiimostafaa/voyager-sub001/internal/profile"
	"github.com/maiimostafaa/voyager-sub001/internal/storage"
	"github.com/maiimostafaa/voyager-sub001/internal/stream"
	"github.com/maiimostafaa/voyager-sub001/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Log    *slog.Logger
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())

	log := slog.Default()
	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log.With("component", "stream")),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

// Close stops the realtime hub. The pools are owned by the caller.
func (s *Server) Close() {
	s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", metrics.Handler())

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	log := s.Log

	friendSvc := friends.NewService(s.DB, log.With("component", "friends"))
	profileSvc := profile.NewService(s.DB)
	posts := post.NewRepository(s.DB)

	store := storage.NewDiskStore(s.Cfg.StorageDir, s.Cfg.StoragePublicURL)
	storageSvc := storage.NewService(s.DB, store, log.With("component", "storage"))

	invalidator := feed.NewInvalidator(s.Stream, friendSvc, posts, log.With("component", "invalidator"))
	postSvc := post.NewService(posts, storageSvc, invalidator, log.With("component", "post"))

	engine := feed.NewEngine(posts, profileSvc, log.With("component", "enrich"))
	assembler := feed.NewAssembler(friendSvc, posts, engine, log.With("component", "feed"))
	reactions := feed.NewReactions(postSvc, posts, log.With("component", "reactions"))

	var geocoder geocode.Geocoder = geocode.NewClient(s.Cfg.GeocoderURL, s.Cfg.GeocoderUserAgent, log.With("component", "geocode"))
	geocoder = geocode.WithCache(geocoder, s.Redis, s.Cfg.GeocodeCacheTTL, log.With("component", "geocode-cache"))
	matcher := location.NewMatcher(posts, friendSvc, geocoder, location.Options{
		Mode:           location.ParseMode(s.Cfg.MatchMode),
		MinNameResults: s.Cfg.MatchMinNameResults,
		ProximityDeg:   s.Cfg.MatchProximityDeg,
		Concurrency:    s.Cfg.GeocodeConcurrency,
	}, log.With("component", "location"))
	search := func(ctx context.Context, viewerID, query string) any {
		return matcher.FindPostsNearLocation(ctx, viewerID, query)
	}

	feed.RegisterRoutes(s.App, assembler, reactions, jwtMiddleware)
	post.RegisterTagRoutes(s.App)
	post.RegisterRoutes(s.App.Group("/posts"), postSvc, jwtMiddleware)
	friends.RegisterRoutes(s.App.Group("/friends"), friendSvc, jwtMiddleware)
	profile.RegisterRoutes(s.App.Group("/profiles"), profileSvc, jwtMiddleware)
	location.RegisterRoutes(s.App.Group("/locations"), matcher, jwtMiddleware)
	trip.RegisterRoutes(s.App.Group("/trips"), trip.NewService(s.DB, matcher, log.With("component", "trip")), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storageSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware, search, s.Cfg.SearchDebounce)
}
