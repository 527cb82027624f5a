package declare

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"declaration-manager/core/declaration"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"

	"go.uber.org/zap"
)

// InvalidError marks a declaration that could not be decoded or parsed.
type InvalidError struct {
	Err error
}

func (e *InvalidError) Error() string {
	return "invalid declaration: " + e.Err.Error()
}

func (e *InvalidError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one submitted declaration.
type Report struct {
	ID     string            `json:"id"`
	DryRun bool              `json:"dryRun"`
	Plan   *reconcile.Plan   `json:"plan"`
	Result *reconcile.Result `json:"result,omitempty"`
}

// ParseReport is the normalized view of a declaration.
type ParseReport struct {
	Tenants []string               `json:"tenants"`
	Classes declaration.ClassIndex `json:"classes"`
	Count   int                    `json:"count"`
}

// Service handles declaration submissions.
type Service struct {
	engine  *reconcile.Engine
	cache   *snapshot.Cache
	archive *Archive
	logger  *zap.Logger

	// cycle serializes apply cycles against the device. Dry runs skip it.
	cycle sync.Mutex
}

// NewService creates a new declare service. archive may be nil.
func NewService(engine *reconcile.Engine, cache *snapshot.Cache, archive *Archive, logger *zap.Logger) *Service {
	return &Service{
		engine:  engine,
		cache:   cache,
		archive: archive,
		logger:  logger,
	}
}

// Parse decodes and parses a declaration without planning it.
func (s *Service) Parse(body []byte) (*ParseReport, error) {
	parsed, err := s.parse(body)
	if err != nil {
		return nil, err
	}
	return &ParseReport{Tenants: parsed.Tenants, Classes: parsed.Classes, Count: parsed.Len()}, nil
}

// Declare plans the declaration and, unless dryRun, applies it.
func (s *Service) Declare(ctx context.Context, id string, body []byte, dryRun bool) (*Report, error) {
	parsed, err := s.parse(body)
	if err != nil {
		return nil, err
	}

	if !dryRun {
		s.cycle.Lock()
		defer s.cycle.Unlock()
	}

	plan, err := s.engine.PlanParsed(ctx, parsed, s.cache)
	if err != nil {
		var de *reconcile.DomainError
		if errors.As(err, &de) && de.Op == reconcile.OpPlan {
			return nil, &InvalidError{Err: err}
		}
		return nil, err
	}

	report := &Report{ID: id, DryRun: dryRun, Plan: plan}
	if dryRun {
		return report, nil
	}

	if s.archive != nil {
		if _, err := s.archive.Put(ctx, id, body); err != nil {
			s.logger.Warn("Failed to archive declaration", zap.String("id", id), zap.Error(err))
		}
	}

	result, err := s.engine.Apply(ctx, plan)
	report.Result = result
	if err != nil {
		return report, err
	}

	if result.DryRun {
		return report, nil
	}
	if err := s.cache.Record(ctx, parsed); err != nil && !errors.Is(err, snapshot.ErrReadOnly) {
		s.logger.Warn("Failed to record snapshot", zap.String("id", id), zap.Error(err))
	}
	return report, nil
}

// History lists archived declarations.
func (s *Service) History(ctx context.Context) ([]ArchiveEntry, error) {
	if s.archive == nil {
		return []ArchiveEntry{}, nil
	}
	return s.archive.List(ctx)
}

// Archived returns one archived declaration.
func (s *Service) Archived(ctx context.Context, id string) ([]byte, error) {
	if s.archive == nil {
		return nil, ErrNotArchived
	}
	return s.archive.Get(ctx, id)
}

func (s *Service) parse(body []byte) (*declaration.Parsed, error) {
	doc, err := declaration.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &InvalidError{Err: err}
	}
	parsed, err := declaration.ParseDocument(doc)
	if err != nil {
		return nil, &InvalidError{Err: err}
	}
	return parsed, nil
}
