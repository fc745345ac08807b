package service

import (
	"adv-service/internal/domain"
	"adv-service/internal/infrastructure/metrics"
	"adv-service/internal/repository"
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidID   = errors.New("invalid advertisement ID")
	ErrAdvNotFound = errors.New("advertisement not found")
	ErrConflict    = repository.ErrConflict
)

type AdvertisementService interface {
	CreateAdvertisement(ctx context.Context, adv *domain.Advertisement) (*domain.Advertisement, error)
	GetAdvertisement(ctx context.Context, id int64) (*domain.Advertisement, error)
	DeleteAdvertisement(ctx context.Context, id int64) error
}

type advertisementService struct {
	repository repository.AdvertisementRepository
	metrics    *metrics.ServiceMetrics
	tracer     trace.Tracer
}

func NewAdvertisementService(repository repository.AdvertisementRepository, metrics *metrics.ServiceMetrics) AdvertisementService {
	tracer := otel.Tracer("adv-service/service")
	return &advertisementService{
		repository: repository,
		metrics:    metrics,
		tracer:     tracer,
	}
}

func (s *advertisementService) observe(method string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	s.metrics.MethodCount.WithLabelValues(method, *status).Inc()
	s.metrics.MethodDuration.WithLabelValues(method, *status).Observe(duration)
}

func (s *advertisementService) CreateAdvertisement(ctx context.Context, adv *domain.Advertisement) (*domain.Advertisement, error) {
	ctx, span := s.tracer.Start(ctx, "CreateAdvertisement")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer s.observe("CreateAdvertisement", startTime, &status)

	created, err := s.repository.Create(ctx, adv)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			status = "conflict"
		} else {
			status = "error"
		}
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("adv.id", created.ID),
		attribute.String("adv.title", created.Title),
	)
	return created, nil
}

func (s *advertisementService) GetAdvertisement(ctx context.Context, id int64) (*domain.Advertisement, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	ctx, span := s.tracer.Start(ctx, "GetAdvertisement")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer s.observe("GetAdvertisement", startTime, &status)

	span.SetAttributes(attribute.Int64("adv.id", id))

	adv, err := s.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, ErrAdvNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	return adv, nil
}

func (s *advertisementService) DeleteAdvertisement(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	ctx, span := s.tracer.Start(ctx, "DeleteAdvertisement")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer s.observe("DeleteAdvertisement", startTime, &status)

	span.SetAttributes(attribute.Int64("adv.id", id))

	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return err
	}
	if !deleted {
		status = "not_found"
		return ErrAdvNotFound
	}

	return nil
}
