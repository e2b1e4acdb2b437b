package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
	"github.com/custodia-labs/similarity-core/internal/normalisers"
	"github.com/custodia-labs/similarity-core/internal/postprocessors"
	"github.com/custodia-labs/similarity-core/internal/runtime"
)

// Ensure MaterialService implements driving.MaterialService
var _ driving.MaterialService = (*MaterialService)(nil)

const materialLockTTL = 10 * time.Minute

// MaterialService runs the ingestion pipeline for a material:
//  1. Load the bytes (inline text or object store)
//  2. Normalise by MIME type
//  3. Chunk
//  4. Embed in batches
//  5. Replace the material's chunks in the chunk store
//  6. Replace the material's entries in the corpus index
//  7. Mark the material done
//
// A failure at any step marks the material as errored and leaves the
// previously stored chunks in place.
type MaterialService struct {
	materials     driven.MaterialStore
	chunks        driven.ChunkStore
	index         driven.CorpusIndex
	objects       driven.ObjectStore
	normaliserReg driven.NormaliserRegistry
	pipeline      driven.PostProcessorPipeline
	lock          driven.DistributedLock
	services      *runtime.Services
	embedder      *batchEmbedder
	logger        *slog.Logger
}

// MaterialServiceConfig holds dependencies for MaterialService.
type MaterialServiceConfig struct {
	MaterialStore  driven.MaterialStore
	ChunkStore     driven.ChunkStore
	CorpusIndex    driven.CorpusIndex
	ObjectStore    driven.ObjectStore // Optional; required for storage keys and uploads
	NormaliserReg  driven.NormaliserRegistry
	Pipeline       driven.PostProcessorPipeline
	Lock           driven.DistributedLock // Optional
	Services       *runtime.Services
	EmbeddingCache driven.EmbeddingCache // Optional
	Embed          EmbedConfig
	Logger         *slog.Logger
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(cfg MaterialServiceConfig) *MaterialService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MaterialService{
		materials:     cfg.MaterialStore,
		chunks:        cfg.ChunkStore,
		index:         cfg.CorpusIndex,
		objects:       cfg.ObjectStore,
		normaliserReg: cfg.NormaliserReg,
		pipeline:      cfg.Pipeline,
		lock:          cfg.Lock,
		services:      cfg.Services,
		embedder:      newBatchEmbedder(cfg.Embed, cfg.EmbeddingCache, logger),
		logger:        logger,
	}
}

// Register stores a new material in the pending state.
func (s *MaterialService) Register(ctx context.Context, req driving.RegisterMaterialRequest) (*domain.Material, error) {
	m, err := newMaterial(domain.NewID(), req)
	if err != nil {
		return nil, err
	}
	if m.StorageKey != "" && s.objects == nil {
		return nil, fmt.Errorf("storage key given but no object store configured: %w", domain.ErrInvalidInput)
	}
	if err := s.materials.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save material: %w", err)
	}

	s.logger.Info("material registered",
		"material_id", m.ID,
		"owner_type", m.OwnerType,
		"submission_id", m.SubmissionID,
	)
	return m, nil
}

// Upload puts data in the object store under materials/<id>/<title> and registers it.
func (s *MaterialService) Upload(ctx context.Context, req driving.RegisterMaterialRequest, data []byte) (*domain.Material, error) {
	if s.objects == nil {
		return nil, fmt.Errorf("object store not configured: %w", domain.ErrServiceUnavailable)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %w", domain.ErrInvalidInput)
	}

	id := domain.NewID()
	if req.MimeType == "" {
		req.MimeType = normalisers.MIMETypeForName(req.Title)
	}
	req.Text = ""
	req.StorageKey = path.Join("materials", id, safeObjectName(req.Title))

	m, err := newMaterial(id, req)
	if err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, m.StorageKey, data, m.MimeType); err != nil {
		return nil, fmt.Errorf("failed to upload material: %w", err)
	}
	if err := s.materials.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save material: %w", err)
	}

	s.logger.Info("material uploaded", "material_id", m.ID, "storage_key", m.StorageKey, "bytes", len(data))
	return m, nil
}

// Process ingests a material unless it is already done with the current model.
func (s *MaterialService) Process(ctx context.Context, materialID string) (*domain.Material, error) {
	return s.process(ctx, materialID, false)
}

// Reprocess ingests a material regardless of its state.
func (s *MaterialService) Reprocess(ctx context.Context, materialID string) (*domain.Material, error) {
	return s.process(ctx, materialID, true)
}

// Get retrieves a material by ID
func (s *MaterialService) Get(ctx context.Context, materialID string) (*domain.Material, error) {
	return s.materials.Get(ctx, materialID)
}

// ListBySubmission returns a submission's materials or domain.ErrNotFound.
func (s *MaterialService) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error) {
	materials, err := s.materials.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	if len(materials) == 0 {
		return nil, fmt.Errorf("no materials for submission %s: %w", submissionID, domain.ErrNotFound)
	}
	return materials, nil
}

// GetText reconstructs a material's normalised text from its stored chunks.
func (s *MaterialService) GetText(ctx context.Context, materialID string) (*domain.MaterialText, error) {
	m, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunks.GetByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("material %s has no extracted text: %w", materialID, domain.ErrNotFound)
	}

	spans := make([]driven.Chunk, len(chunks))
	for i, c := range chunks {
		spans[i] = driven.Chunk{
			Content:     c.Content,
			Position:    c.Index,
			StartOffset: c.StartChar,
			EndOffset:   c.EndChar,
		}
	}

	return &domain.MaterialText{
		MaterialID: m.ID,
		Title:      m.Title,
		Text:       postprocessors.Reconstruct(spans),
		ChunkCount: len(chunks),
	}, nil
}

// courseOwnerTypes are the materials that belong to a course rather than
// to a submission.
var courseOwnerTypes = []domain.OwnerType{domain.OwnerCourseMaterial, domain.OwnerAssignment}

// ListReferences returns every external reference, oldest first.
func (s *MaterialService) ListReferences(ctx context.Context) ([]*domain.Material, error) {
	materials, err := s.materials.ListByOwnerType(ctx, domain.OwnerExternalReference)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	return materials, nil
}

// ListByCourse returns a course's course materials and assignments, oldest first.
func (s *MaterialService) ListByCourse(ctx context.Context, courseID string) ([]*domain.Material, error) {
	if courseID == "" {
		return nil, fmt.Errorf("course id is required: %w", domain.ErrInvalidInput)
	}
	materials, err := s.materials.ListByCourse(ctx, courseID, courseOwnerTypes...)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

// Delete removes one non-submission material from the corpus. It refuses
// while the material is being processed.
func (s *MaterialService) Delete(ctx context.Context, materialID string) (*driving.DeleteResult, error) {
	m, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if m.OwnerType == domain.OwnerSubmission {
		return nil, fmt.Errorf("material %s belongs to submission %s; delete the submission instead: %w",
			materialID, m.SubmissionID, domain.ErrInvalidInput)
	}

	if s.lock != nil {
		name := "material:" + materialID
		acquired, err := s.lock.Acquire(ctx, name, materialLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire material lock: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("material %s is being processed: %w", materialID, domain.ErrConflict)
		}
		defer func() { _ = s.lock.Release(context.WithoutCancel(ctx), name) }()
	}

	removed, err := s.materials.Delete(ctx, materialID)
	if err != nil {
		return nil, err
	}
	result, err := removeFromCorpus(ctx, s.index, s.chunks, []*domain.Material{removed})
	if err != nil {
		return nil, err
	}

	s.logger.Info("material deleted",
		"material_id", materialID,
		"owner_type", removed.OwnerType,
		"chunks", result.ChunksDeleted,
	)
	return result, nil
}

// DeleteCourse removes a course's course materials and assignments.
// Submissions of the course are left alone.
func (s *MaterialService) DeleteCourse(ctx context.Context, courseID string) (*driving.DeleteResult, error) {
	if courseID == "" {
		return nil, fmt.Errorf("course id is required: %w", domain.ErrInvalidInput)
	}

	removed, err := s.materials.DeleteByCourse(ctx, courseID, courseOwnerTypes...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete materials: %w", err)
	}
	if len(removed) == 0 {
		return nil, fmt.Errorf("no materials found for course %s: %w", courseID, domain.ErrNotFound)
	}
	result, err := removeFromCorpus(ctx, s.index, s.chunks, removed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("course deleted",
		"course_id", courseID,
		"materials", result.MaterialsDeleted,
		"chunks", result.ChunksDeleted,
	)
	return result, nil
}

// DeleteAllCourses removes every course material and assignment.
func (s *MaterialService) DeleteAllCourses(ctx context.Context) (*driving.DeleteResult, error) {
	var removed []*domain.Material
	for _, ownerType := range courseOwnerTypes {
		ms, err := s.materials.DeleteByOwnerType(ctx, ownerType)
		if err != nil {
			return nil, fmt.Errorf("failed to delete %s materials: %w", ownerType, err)
		}
		removed = append(removed, ms...)
	}
	result, err := removeFromCorpus(ctx, s.index, s.chunks, removed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("all courses deleted",
		"materials", result.MaterialsDeleted,
		"chunks", result.ChunksDeleted,
	)
	return result, nil
}

func (s *MaterialService) process(ctx context.Context, materialID string, force bool) (*domain.Material, error) {
	m, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, &domain.StageError{
			Stage:        domain.StageEmbed,
			SubmissionID: m.SubmissionID,
			MaterialID:   m.ID,
			Err:          fmt.Errorf("no embedding service configured: %w", domain.ErrEmbeddingUnavailable),
		}
	}
	if !force && m.Status == domain.ProcessingDone && m.EmbeddingModel == embedder.Model() {
		return m, nil
	}

	if s.lock != nil {
		name := "material:" + materialID
		acquired, err := s.lock.Acquire(ctx, name, materialLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire material lock: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("material %s is already being processed: %w", materialID, domain.ErrConflict)
		}
		defer func() { _ = s.lock.Release(context.WithoutCancel(ctx), name) }()
	}

	startTime := time.Now()
	m.MarkProcessing()
	if err := s.materials.Save(ctx, m); err != nil {
		s.logger.Warn("failed to mark material processing", "material_id", m.ID, "error", err)
	}

	chunks, textLen, err := s.ingest(ctx, m, embedder)
	if err != nil {
		m.MarkError(err)
		if saveErr := s.materials.Save(context.WithoutCancel(ctx), m); saveErr != nil {
			s.logger.Warn("failed to mark material errored", "material_id", m.ID, "error", saveErr)
		}
		s.logger.Error("material processing failed",
			"material_id", m.ID,
			"submission_id", m.SubmissionID,
			"stage", stageOf(err),
			"error", err,
		)
		return nil, err
	}

	m.MarkDone(len(chunks), textLen, embedder.Model())
	if err := s.materials.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save material: %w", err)
	}

	s.logger.Info("material processed",
		"material_id", m.ID,
		"chunks", len(chunks),
		"text_length", textLen,
		"model", m.EmbeddingModel,
		"duration_seconds", time.Since(startTime).Seconds(),
	)
	return m, nil
}

// ingest runs load → normalise → chunk → embed → store → index.
func (s *MaterialService) ingest(ctx context.Context, m *domain.Material, embedder driven.EmbeddingService) ([]*domain.Chunk, int, error) {
	stageErr := func(stage domain.Stage, err error) error {
		return &domain.StageError{Stage: stage, SubmissionID: m.SubmissionID, MaterialID: m.ID, Err: err}
	}

	raw, err := s.load(ctx, m)
	if err != nil {
		return nil, 0, stageErr(domain.StageLoad, err)
	}

	text := raw
	if n := s.normaliserReg.Get(m.MimeType); n != nil {
		text = n.Normalise(raw, m.MimeType)
	}

	spans, err := s.pipeline.Process(text)
	if err != nil {
		return nil, 0, stageErr(domain.StageExtract, err)
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Content
	}
	embeddings, err := s.embedder.embed(ctx, embedder, texts)
	if err != nil {
		return nil, 0, stageErr(domain.StageEmbed, err)
	}

	now := time.Now()
	chunks := make([]*domain.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = &domain.Chunk{
			ID:           domain.NewID(),
			MaterialID:   m.ID,
			OwnerType:    m.OwnerType,
			CourseID:     m.CourseID,
			SubmissionID: m.SubmissionID,
			SourceURL:    m.SourceURL,
			Index:        span.Position,
			Content:      span.Content,
			StartChar:    span.StartOffset,
			EndChar:      span.EndOffset,
			ContentHash:  domain.ContentHash(span.Content),
			Embedding:    embeddings[i].Vector,
			Dimension:    embeddings[i].Dimension,
			Model:        embeddings[i].Model,
			CreatedAt:    now,
		}
	}

	if err := s.chunks.ReplaceForMaterial(ctx, m.ID, chunks); err != nil {
		return nil, 0, stageErr(domain.StageIndex, fmt.Errorf("failed to store chunks: %w", err))
	}
	if err := s.index.DeleteByMaterials(ctx, []string{m.ID}); err != nil {
		return nil, 0, stageErr(domain.StageIndex, fmt.Errorf("failed to clear index: %w", err))
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return nil, 0, stageErr(domain.StageIndex, fmt.Errorf("failed to index chunks: %w", err))
	}

	return chunks, len([]rune(text)), nil
}

func (s *MaterialService) load(ctx context.Context, m *domain.Material) (string, error) {
	if m.InlineText != "" {
		return m.InlineText, nil
	}
	if m.StorageKey == "" {
		return "", fmt.Errorf("material has neither text nor storage key: %w", domain.ErrInvalidInput)
	}
	if s.objects == nil {
		return "", fmt.Errorf("object store not configured: %w", domain.ErrServiceUnavailable)
	}
	data, err := s.objects.Get(ctx, m.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", m.StorageKey, err)
	}
	return string(data), nil
}

func newMaterial(id string, req driving.RegisterMaterialRequest) (*domain.Material, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if !req.OwnerType.IsValid() {
		return nil, fmt.Errorf("unknown owner type %q: %w", req.OwnerType, domain.ErrInvalidInput)
	}
	if req.OwnerType == domain.OwnerSubmission && req.SubmissionID == "" {
		return nil, fmt.Errorf("submission materials need a submission id: %w", domain.ErrInvalidInput)
	}
	if req.Text == "" && req.StorageKey == "" {
		return nil, fmt.Errorf("either text or storage key is required: %w", domain.ErrInvalidInput)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = normalisers.MIMETypeForName(req.Title)
	}

	return &domain.Material{
		ID:           id,
		Title:        req.Title,
		MimeType:     mimeType,
		OwnerType:    req.OwnerType,
		CourseID:     req.CourseID,
		AssignmentID: req.AssignmentID,
		SubmissionID: req.SubmissionID,
		StorageKey:   req.StorageKey,
		StorageURL:   req.StorageURL,
		SourceURL:    req.SourceURL,
		InlineText:   req.Text,
		Status:       domain.ProcessingPending,
		UploadedAt:   time.Now(),
	}, nil
}

// safeObjectName keeps object keys to one path segment.
func safeObjectName(title string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// stageOf returns the pipeline stage recorded in err, if any.
func stageOf(err error) domain.Stage {
	var se *domain.StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
