package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
	"github.com/custodia-labs/similarity-core/internal/runtime"
)

// Ensure PlagiarismService implements driving.PlagiarismService
var _ driving.PlagiarismService = (*PlagiarismService)(nil)

const (
	defaultLockTTL      = 5 * time.Minute
	defaultLockWait     = 10 * time.Second
	lockPollingInterval = 100 * time.Millisecond
)

// LockConfig controls the per-submission recompute lock.
type LockConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Wait time.Duration `yaml:"wait"`
}

// DefaultLockConfig returns a 5 minute TTL and a 10 second wait.
func DefaultLockConfig() LockConfig {
	return LockConfig{TTL: defaultLockTTL, Wait: defaultLockWait}
}

// PlagiarismService computes one report per submission:
//  1. Serialise on the submission lock
//  2. Make sure every submitted file is processed with the current model
//  3. Match each file's chunks against the corpus, excluding the submission itself
//  4. Aggregate into per-file and overall scores
//  5. Upsert the report
//
// A failed check never touches the stored report.
type PlagiarismService struct {
	materialSvc driving.MaterialService
	materials   driven.MaterialStore
	chunks      driven.ChunkStore
	index       driven.CorpusIndex
	reports     driven.ReportStore
	lock        driven.DistributedLock
	services    *runtime.Services
	matcher     *Matcher
	lockCfg     LockConfig
	logger      *slog.Logger
}

// PlagiarismServiceConfig holds dependencies for PlagiarismService.
type PlagiarismServiceConfig struct {
	MaterialService driving.MaterialService
	MaterialStore   driven.MaterialStore
	ChunkStore      driven.ChunkStore
	CorpusIndex     driven.CorpusIndex
	ReportStore     driven.ReportStore
	Lock            driven.DistributedLock // Optional; without it rechecks are not serialised across instances
	Services        *runtime.Services
	Match           MatchConfig
	LockConfig      LockConfig
	Logger          *slog.Logger
}

// NewPlagiarismService creates a new PlagiarismService.
func NewPlagiarismService(cfg PlagiarismServiceConfig) *PlagiarismService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockCfg := cfg.LockConfig
	if lockCfg.TTL <= 0 {
		lockCfg.TTL = defaultLockTTL
	}
	if lockCfg.Wait < 0 {
		lockCfg.Wait = 0
	}

	return &PlagiarismService{
		materialSvc: cfg.MaterialService,
		materials:   cfg.MaterialStore,
		chunks:      cfg.ChunkStore,
		index:       cfg.CorpusIndex,
		reports:     cfg.ReportStore,
		lock:        cfg.Lock,
		services:    cfg.Services,
		matcher:     NewMatcher(cfg.CorpusIndex, cfg.Match, logger),
		lockCfg:     lockCfg,
		logger:      logger,
	}
}

// Check computes the submission's report and upserts it.
func (s *PlagiarismService) Check(ctx context.Context, submissionID string) (*domain.Report, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submission id is required: %w", domain.ErrInvalidInput)
	}
	if err := s.ensureEmbedder(ctx); err != nil {
		s.logger.Warn("plagiarism check refused", "submission_id", submissionID, "error", err)
		return nil, err
	}

	release, err := s.acquire(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	defer release()

	startTime := time.Now()
	report, err := s.compute(ctx, submissionID)
	if err != nil {
		if domain.IsUserActionable(err) {
			s.logger.Warn("plagiarism check rejected",
				"submission_id", submissionID,
				"stage", stageOf(err),
				"error", err,
			)
		} else {
			s.logger.Error("plagiarism check failed",
				"submission_id", submissionID,
				"stage", stageOf(err),
				"error", err,
			)
		}
		return nil, err
	}

	saved, err := s.reports.Upsert(ctx, report)
	if err != nil {
		err = &domain.StageError{Stage: domain.StagePersist, SubmissionID: submissionID, Err: err}
		s.logger.Error("plagiarism check failed",
			"submission_id", submissionID,
			"stage", domain.StagePersist,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("plagiarism check completed",
		"submission_id", submissionID,
		"similarity_score", saved.SimilarityScore,
		"files", len(saved.Files),
		"sources", saved.Metadata.TotalSources,
		"degraded", saved.Metadata.Degraded,
		"duration_seconds", time.Since(startTime).Seconds(),
	)
	return saved, nil
}

// ensureEmbedder fails fast while the embedder is marked down. One health
// check lets a recovered embedder through without waiting for the scheduler.
func (s *PlagiarismService) ensureEmbedder(ctx context.Context) error {
	if s.services.Config().CanCheck() {
		return nil
	}
	if err := s.services.CheckHealth(ctx); err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// GetReport retrieves the stored report for a submission.
func (s *PlagiarismService) GetReport(ctx context.Context, submissionID string) (*domain.Report, error) {
	return s.reports.Get(ctx, submissionID)
}

// DeleteSubmission removes a submission's materials, their chunks and index
// entries, and its report. The storage keys of removed materials are returned.
func (s *PlagiarismService) DeleteSubmission(ctx context.Context, submissionID string) (*driving.DeleteResult, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submission id is required: %w", domain.ErrInvalidInput)
	}

	removed, err := s.materials.DeleteBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete materials: %w", err)
	}
	result, err := s.cascade(ctx, removed)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.DeleteBySubmissions(ctx, []string{submissionID})
	if err != nil {
		return nil, fmt.Errorf("failed to delete report: %w", err)
	}
	result.ReportsDeleted = reports

	if result.MaterialsDeleted == 0 && result.ReportsDeleted == 0 {
		return nil, fmt.Errorf("submission %s: %w", submissionID, domain.ErrNotFound)
	}

	s.logger.Info("submission deleted",
		"submission_id", submissionID,
		"materials", result.MaterialsDeleted,
		"reports", result.ReportsDeleted,
	)
	return result, nil
}

// DeleteAllSubmissions removes every submission material and every report.
func (s *PlagiarismService) DeleteAllSubmissions(ctx context.Context) (*driving.DeleteResult, error) {
	removed, err := s.materials.DeleteByOwnerType(ctx, domain.OwnerSubmission)
	if err != nil {
		return nil, fmt.Errorf("failed to delete materials: %w", err)
	}
	result, err := s.cascade(ctx, removed)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete reports: %w", err)
	}
	result.ReportsDeleted = reports

	s.logger.Info("all submissions deleted",
		"materials", result.MaterialsDeleted,
		"reports", result.ReportsDeleted,
	)
	return result, nil
}

// cascade removes the chunks and index entries of deleted materials.
func (s *PlagiarismService) cascade(ctx context.Context, removed []*domain.Material) (*driving.DeleteResult, error) {
	return removeFromCorpus(ctx, s.index, s.chunks, removed)
}

func (s *PlagiarismService) compute(ctx context.Context, submissionID string) (*domain.Report, error) {
	materials, err := s.materialSvc.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageLoad, SubmissionID: submissionID, Err: err}
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, &domain.StageError{
			Stage:        domain.StageEmbed,
			SubmissionID: submissionID,
			Err:          fmt.Errorf("no embedding service configured: %w", domain.ErrEmbeddingUnavailable),
		}
	}
	space := domain.EmbeddingSpace{Model: embedder.Model(), Dimension: embedder.Dimensions()}

	var (
		files       []FileMatches
		materialIDs []string
		lastInvalid error
	)
	for _, m := range materials {
		processed, err := s.materialSvc.Process(ctx, m.ID)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				// One unextractable file does not sink the whole submission
				s.logger.Warn("skipping unextractable file",
					"submission_id", submissionID,
					"material_id", m.ID,
					"stage", stageOf(err),
					"error", err,
				)
				lastInvalid = err
				continue
			}
			return nil, err
		}

		chunks, err := s.chunks.GetByMaterial(ctx, processed.ID)
		if err != nil {
			return nil, &domain.StageError{Stage: domain.StageMatch, SubmissionID: submissionID, MaterialID: processed.ID, Err: err}
		}

		matches, err := s.matcher.Match(ctx, MatchRequest{
			SubmissionID: submissionID,
			Scope:        processed.Scope(),
			CourseID:     processed.CourseID,
			Space:        space,
			Chunks:       chunks,
		})
		if err != nil {
			return nil, &domain.StageError{Stage: domain.StageMatch, SubmissionID: submissionID, MaterialID: processed.ID, Err: err}
		}

		files = append(files, FileMatches{FileName: processed.Title, MaterialID: processed.ID, Matches: matches})
		materialIDs = append(materialIDs, processed.ID)
	}

	if len(files) == 0 {
		return nil, lastInvalid
	}

	agg := Aggregate(files)
	now := time.Now()
	report := &domain.Report{
		ID:              domain.NewID(),
		SubmissionID:    submissionID,
		SimilarityScore: agg.SimilarityScore,
		Files:           agg.Files,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	report.Metadata = domain.ReportMetadata{
		MaterialID:   materialIDs[0],
		MaterialIDs:  materialIDs,
		TotalSources: len(report.SourceIDs()),
		Model:        space.Model,
		Dimension:    space.Dimension,
		Aggregation:  AggregationLengthWeightedMean,
		Degraded:     agg.Degraded,
	}
	return report, nil
}

// acquire takes the submission lock, polling until the configured wait
// elapses. The returned func releases it.
func (s *PlagiarismService) acquire(ctx context.Context, submissionID string) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}

	name := "plagiarism:" + submissionID
	deadline := time.Now().Add(s.lockCfg.Wait)
	for {
		acquired, err := s.lock.Acquire(ctx, name, s.lockCfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
		}
		if acquired {
			return func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
					s.logger.Warn("failed to release submission lock", "submission_id", submissionID, "error", err)
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("submission %s is being checked: %w", submissionID, domain.ErrConflict)
		}
		if err := sleepContext(ctx, lockPollingInterval); err != nil {
			return nil, err
		}
	}
}
