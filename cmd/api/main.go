package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/travelswipe/internal/config"
	"github.com/njprem/travelswipe/internal/deck"
	"github.com/njprem/travelswipe/internal/logging"
	"github.com/njprem/travelswipe/internal/repository/catalog"
	"github.com/njprem/travelswipe/internal/repository/localstore"
	"github.com/njprem/travelswipe/internal/repository/memory"
	storage "github.com/njprem/travelswipe/internal/repository/minio"
	"github.com/njprem/travelswipe/internal/repository/ports"
	"github.com/njprem/travelswipe/internal/repository/postgres"
	"github.com/njprem/travelswipe/internal/service"
	transport "github.com/njprem/travelswipe/internal/transport/http"
	"github.com/njprem/travelswipe/internal/util"
)

func main() {
	cfg := config.Load()

	logCloser := logging.Setup(cfg.LogstashTCPAddr)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := localstore.OpenFileStore(cfg.LocalStorePath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	log.Printf("local store at %s", local.Path())

	var db *sqlx.DB
	var remote ports.LikeRepository
	if cfg.DatabaseURL != "" {
		db, err = postgres.New(ctx, cfg.DatabaseURL, cfg.LikesRemoteTimeout)
		if err != nil {
			log.Printf("remote likes unavailable, using fallback cache: %v", err)
		} else {
			defer db.Close()
			remote = postgres.NewLikeRepo(db)
		}
	} else {
		log.Printf("DATABASE_URL not set, likes stay on this device")
	}

	packages, err := openCatalog(cfg, db)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}

	var images ports.ObjectStorage
	if cfg.MinIOEnabled() {
		client, err := storage.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("minio client: %v", err)
		}
		imageStorage := storage.NewImageStorage(client, cfg.MinIOBucketPackages, cfg.MinIOPublicURL)
		if err := imageStorage.EnsureBucket(ctx); err != nil {
			log.Printf("package images disabled: %v", err)
		} else {
			images = imageStorage
		}
	}

	likes := service.NewLikeService(local, remote, memory.NewLikeCache(), service.LikeServiceConfig{
		SnapshotMaxBytes: cfg.LikesSnapshotMaxBytes,
		UnlikeScope:      service.UnlikeScope(cfg.LikesUnlikeScope),
		CountMode:        service.CountMode(cfg.LikesCountMode),
		RemoteTimeout:    cfg.LikesRemoteTimeout,
	})
	if status := likes.RemoteStatus(ctx); status.NeedsSetup {
		log.Printf("user_likes table missing, apply migrations/0001_init.sql; likes go to the fallback cache until then")
	}

	auth := service.NewAuthService(local, util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL), cfg.SessionTTL)
	profile := service.NewProfileService(local, likes)
	catalogSvc := service.NewCatalogService(packages, images, service.CatalogServiceConfig{
		ImageMaxBytes: cfg.PackageImageMaxBytes,
	})

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterSwagger(e)
	transport.RegisterAuth(e, auth, profile)
	transport.RegisterPackages(e, auth, catalogSvc)
	transport.RegisterLikes(e, auth, likes, catalogSvc)
	transport.RegisterDeck(e, auth, deck.Config{
		SwipeThreshold:    cfg.DeckSwipeThreshold,
		DirectionDeadzone: cfg.DeckDirectionDeadzone,
		TapSlop:           cfg.DeckTapSlop,
		TiltWidth:         cfg.DeckTiltWidth,
	}, likes, catalogSvc)
	transport.RegisterProfile(e, auth, profile)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openCatalog(cfg config.Config, db *sqlx.DB) (ports.PackageCatalog, error) {
	if cfg.CatalogSource == "postgres" {
		if db == nil {
			log.Printf("CATALOG_SOURCE=postgres without a database, using the built-in catalog")
			return catalog.Default()
		}
		return postgres.NewPackageRepo(db), nil
	}
	return catalog.Load(cfg.CatalogFile)
}
