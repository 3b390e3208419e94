package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"freelance/notifier/internal/client"
	"freelance/notifier/internal/config"
	"freelance/notifier/internal/notify"
	"freelance/notifier/internal/repository"
	"freelance/notifier/internal/taxonomy"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Repository *repository.Repository
	Taxonomy   *taxonomy.Model
	Sources    client.Registry
	Notifier   *notify.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	ctx := context.Background()

	container := &Container{
		Config: cfg,
	}

	db, err := pgxpool.New(ctx,
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, err
	}
	container.db = db

	repo := repository.NewRepository(db)
	if err := repo.Init(ctx); err != nil {
		return nil, err
	}
	container.Repository = repo
	log.Info("✅ Database schema ready")

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb
	log.Info("✅ Connected to Redis successfully")

	cache := taxonomy.NewCache(rdb, time.Duration(cfg.Redis.TaxonomyTTL)*time.Second)

	fetcher := client.NewFetcher(cfg.Sites)
	model := taxonomy.NewModel()
	container.Taxonomy = model

	flru := client.NewFLRU(fetcher)
	flua := client.NewFLUA(fetcher, model)
	container.Sources = client.NewRegistry(flru, flua)

	model.Build(ctx, cache, flru, flua)

	messenger, err := notify.NewTelegram(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	container.Notifier = notify.NewService(notify.Deps{
		Users:     repo,
		Filters:   repo,
		Sources:   container.Sources,
		Messenger: messenger,
		Mailer:    notify.NewSMTPMailer(cfg.SMTP),
	}, cfg.Notify)

	return container, nil
}

// Run drives the notification loop until it finishes or the context is
// cancelled
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Notifier.Run(ctx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	if err := c.redis.Close(); err != nil {
		return err
	}

	log.Info("Container shut down successfully")
	return nil
}
