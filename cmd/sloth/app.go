package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Alp4ka/sloth"
	"github.com/Alp4ka/sloth/blog"
	"github.com/Alp4ka/sloth/cache/memcache"
	"github.com/Alp4ka/sloth/cache/rediscache"
	"github.com/Alp4ka/sloth/internal/config"
	"github.com/Alp4ka/sloth/store/gormstore"
	"github.com/Alp4ka/sloth/store/memstore"
)

const redisPrefix = "sloth"

// app holds the connections behind a Repository.
type app struct {
	db   *gorm.DB
	rc   *redis.Client
	repo *blog.Repository
}

func openDB(cfg config.Database, logger logrus.FieldLogger) (*gorm.DB, error) {
	if cfg.Driver == "" {
		return nil, errors.New("database.driver is not configured")
	}

	return gormstore.Open(cfg.Driver, cfg.DSN, &gorm.Config{Logger: gormstore.NewLogger(logger)})
}

func newApp(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*app, error) {
	a := &app{}

	var (
		posts      blog.Backend[blog.Post]
		categories blog.Backend[blog.Category]
	)
	if cfg.Database.Driver == "" {
		logger.Warn("no database configured, posts are kept in memory")
		posts = memstore.New(blog.PostKey, blog.PostGetters)
		categories = memstore.New(blog.CategoryKey, blog.CategoryGetters)
	} else {
		db, err := openDB(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		posts = gormstore.New(db, blog.PostGetters)
		categories = gormstore.New(db, blog.CategoryGetters)
	}

	var cache sloth.Cache
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		rc, err := rediscache.Connect(ctx, rediscache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.rc = rc
		cache = rediscache.New(rc, redisPrefix)
	default:
		cache = memcache.New()
	}

	var pagerOpts []sloth.Option
	if cfg.Cache.CASRetries > 0 {
		pagerOpts = append(pagerOpts, sloth.WithCompareAndSwap(cfg.Cache.CASRetries))
	}

	repo, err := blog.New(posts, categories, cache, cfg.PageSize,
		blog.WithLogger(logger),
		blog.WithPaginatorOptions(pagerOpts...),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.repo = repo

	return a, nil
}

func (a *app) Close() error {
	var errs []error

	if a.rc != nil {
		errs = append(errs, a.rc.Close())
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get sql.DB: %w", err))
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}

	return errors.Join(errs...)
}
