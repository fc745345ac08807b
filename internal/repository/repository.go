package repository

import (
	"adv-service/internal/domain"
	"adv-service/internal/infrastructure/cache"
	"adv-service/internal/infrastructure/metrics"
	"adv-service/pkg/logger"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrConflict is returned by Create when the id is already taken.
var ErrConflict = errors.New("advertisement already exists")

const cacheTTL = 10 * time.Minute

// cacheTombstone marks a deleted id. It outlives any entry cached before the
// delete, and cache populates use SetNX so they never overwrite it.
const cacheTombstone = "deleted"

type AdvertisementRepository interface {
	Create(ctx context.Context, adv *domain.Advertisement) (*domain.Advertisement, error)
	GetByID(ctx context.Context, id int64) (*domain.Advertisement, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
}

type sqlAdvertisementRepository struct {
	db      *sql.DB
	dialect Dialect
	cache   cache.Cache
	metrics *metrics.RepositoryMetrics
	loggers *logger.Loggers
	tracer  trace.Tracer
}

func NewSQLAdvertisementRepository(db *sql.DB, dialect Dialect, cache cache.Cache, metrics *metrics.RepositoryMetrics, loggers *logger.Loggers) AdvertisementRepository {
	tracer := otel.Tracer("adv-service/repository")
	return &sqlAdvertisementRepository{
		db:      db,
		dialect: dialect,
		cache:   cache,
		metrics: metrics,
		loggers: loggers,
		tracer:  tracer,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("adv:%d", id)
}

func (r *sqlAdvertisementRepository) observe(query string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	r.metrics.QueryCount.WithLabelValues(query, *status).Inc()
	r.metrics.QueryDuration.WithLabelValues(query, *status).Observe(duration)
}

// Create inserts adv. A zero ID lets the database assign one; a non-zero ID
// is inserted as given and may collide with an existing row.
func (r *sqlAdvertisementRepository) Create(ctx context.Context, adv *domain.Advertisement) (*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", r.dialect.Name),
		attribute.String("adv.title", adv.Title),
	)

	startTime := time.Now()
	status := "success"
	defer r.observe("Create", startTime, &status)

	var (
		id  int64
		err error
	)
	if adv.ID != 0 {
		id, err = r.insert(ctx, r.dialect.insertWithID, adv.ID, adv.Title, adv.Description)
	} else {
		id, err = r.insert(ctx, r.dialect.insert, adv.Title, adv.Description)
	}
	if err != nil {
		span.RecordError(err)
		if r.dialect.isUniqueViolation(err) {
			status = "conflict"
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		status = "error"
		return nil, fmt.Errorf("failed to insert advertisement: %w", err)
	}

	span.SetAttributes(attribute.Int64("adv.id", id))

	// an explicit id may reuse a deleted one whose tombstone is still cached
	if adv.ID != 0 {
		cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Cache Delete")
		if err := r.cache.Delete(cacheSpanCtx, cacheKey(id)); err != nil {
			cacheSpan.RecordError(err)
			r.loggers.ErrorLogger.Error().Err(err).Int64("adv_id", id).Msg("Failed to clear cache tombstone")
		}
		cacheSpan.End()
	}

	return &domain.Advertisement{
		ID:          id,
		Title:       adv.Title,
		Description: adv.Description,
	}, nil
}

func (r *sqlAdvertisementRepository) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if r.dialect.returning {
		var id int64
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// GetByID returns sql.ErrNoRows when no advertisement has the given id.
func (r *sqlAdvertisementRepository) GetByID(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("adv.id", id))

	startTime := time.Now()
	status := "success"
	defer r.observe("GetByID", startTime, &status)

	key := cacheKey(id)

	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Cache Get")
	cached, err := r.cache.Get(cacheSpanCtx, key)
	cacheSpan.End()

	switch {
	case err == nil && cached == cacheTombstone:
		r.metrics.CacheResults.WithLabelValues("hit").Inc()
		status = "not_found"
		return nil, sql.ErrNoRows
	case err == nil:
		var adv domain.Advertisement
		if err := json.Unmarshal([]byte(cached), &adv); err == nil {
			r.metrics.CacheResults.WithLabelValues("hit").Inc()
			status = "cached"
			return &adv, nil
		}
		r.loggers.ErrorLogger.Warn().Str("key", key).Msg("Ignoring undecodable cache entry")
	case !errors.Is(err, cache.ErrMiss):
		r.loggers.ErrorLogger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
	}
	r.metrics.CacheResults.WithLabelValues("miss").Inc()

	adv := &domain.Advertisement{}
	err = r.db.QueryRowContext(ctx, r.dialect.selectByID, id).Scan(
		&adv.ID,
		&adv.Title,
		&adv.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, err
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get advertisement: %w", err)
	}

	if advJSON, err := json.Marshal(adv); err == nil {
		// SetNX: a delete that finished after the SELECT has left a tombstone
		cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Cache Set")
		if _, err := r.cache.SetNX(cacheSpanCtx, key, string(advJSON), cacheTTL); err != nil {
			cacheSpan.RecordError(err)
			r.loggers.ErrorLogger.Warn().Err(err).Str("key", key).Msg("Failed to populate cache")
		}
		cacheSpan.End()
	}

	return adv, nil
}

// DeleteByID reports whether a row existed and was removed.
func (r *sqlAdvertisementRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "Repository DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("adv.id", id))

	startTime := time.Now()
	status := "success"
	defer r.observe("DeleteByID", startTime, &status)

	result, err := r.db.ExecContext(ctx, r.dialect.deleteByID, id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return false, fmt.Errorf("failed to delete advertisement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return false, fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	// the row is gone either way, so shadow any cached copy
	r.tombstone(ctx, id)

	if rowsAffected == 0 {
		status = "not_found"
		return false, nil
	}

	return true, nil
}

func (r *sqlAdvertisementRepository) tombstone(ctx context.Context, id int64) {
	key := cacheKey(id)

	ctx, span := r.tracer.Start(ctx, "Cache Tombstone")
	defer span.End()

	err := r.cache.Set(ctx, key, cacheTombstone, cacheTTL)
	if err == nil {
		return
	}
	span.RecordError(err)
	r.loggers.ErrorLogger.Error().Err(err).Str("key", key).Msg("Failed to write cache tombstone")

	if err := r.cache.Delete(ctx, key); err != nil {
		r.loggers.ErrorLogger.Error().Err(err).Str("key", key).Msg("Failed to delete cache entry")
	}
}
