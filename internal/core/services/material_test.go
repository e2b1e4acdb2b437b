package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
)

const essay = "Photosynthesis converts light energy into chemical energy. " +
	"Plants absorb sunlight through chlorophyll in their leaves. " +
	"The process releases oxygen as a by-product and stores energy in glucose. " +
	"Without it, most life on Earth would not be possible."

func TestMaterialService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.md", essay)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, domain.ProcessingPending, m.Status)
	assert.Equal(t, "text/markdown", m.MimeType)

	stored, err := env.materialSvc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, stored.ID)
}

func TestMaterialService_Register_Invalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  driving.RegisterMaterialRequest
	}{
		{"missing title", driving.RegisterMaterialRequest{OwnerType: domain.OwnerCourseMaterial, Text: "x"}},
		{"unknown owner", driving.RegisterMaterialRequest{Title: "a", OwnerType: "teacher_notes", Text: "x"}},
		{"submission without id", driving.RegisterMaterialRequest{Title: "a", OwnerType: domain.OwnerSubmission, Text: "x"}},
		{"no content", driving.RegisterMaterialRequest{Title: "a", OwnerType: domain.OwnerCourseMaterial}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.materialSvc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestMaterialService_Process(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	processed, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ProcessingDone, processed.Status)
	assert.Equal(t, env.embedder.Model(), processed.EmbeddingModel)
	assert.Greater(t, processed.ChunkCount, 1)
	assert.Equal(t, len([]rune(essay)), processed.ExtractedTextLength)

	chunks, err := env.chunks.GetByMaterial(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, chunks, processed.ChunkCount)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "sub-1", c.Scope())
		assert.Len(t, c.Embedding, env.embedder.Dimensions())
		assert.Equal(t, domain.ContentHash(c.Content), c.ContentHash)
	}

	count, err := env.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, processed.ChunkCount, count)
	assert.False(t, env.lock.IsHeld("material:"+m.ID))
}

func TestMaterialService_Process_SkipsWhenCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	_, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)
	calls := env.embedder.Calls()

	_, err = env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, calls, env.embedder.Calls())

	_, err = env.materialSvc.Reprocess(ctx, m.ID)
	require.NoError(t, err)
	assert.Greater(t, env.embedder.Calls(), calls)
}

func TestMaterialService_Process_ReembedsAfterModelChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	_, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)

	env.embedder.SetModel("mock-embedding-model-v2")
	env.services.SetEmbeddingService(env.embedder)

	processed, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "mock-embedding-model-v2", processed.EmbeddingModel)

	chunks, _ := env.chunks.GetByMaterial(ctx, m.ID)
	for _, c := range chunks {
		assert.Equal(t, "mock-embedding-model-v2", c.Model)
	}
}

func TestMaterialService_Process_EmptyText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "blank.html", "<html><script>var x = 1;</script></html>")
	_, err := env.materialSvc.Process(ctx, m.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var se *domain.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.StageExtract, se.Stage)
	assert.Equal(t, m.ID, se.MaterialID)

	stored, _ := env.materials.Get(ctx, m.ID)
	assert.Equal(t, domain.ProcessingError, stored.Status)
	assert.NotEmpty(t, stored.StatusError)
}

func TestMaterialService_Process_EmbeddingFailureKeepsPreviousChunks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	first, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)

	env.embedder.FailNext(100)
	_, err = env.materialSvc.Reprocess(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	chunks, _ := env.chunks.GetByMaterial(ctx, m.ID)
	assert.Len(t, chunks, first.ChunkCount)

	stored, _ := env.materials.Get(ctx, m.ID)
	assert.Equal(t, domain.ProcessingError, stored.Status)
	assert.Equal(t, first.ChunkCount, stored.ChunkCount)
}

func TestMaterialService_Process_Conflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	env.lock.SetLockHeld("material:"+m.ID, materialLockTTL)

	_, err := env.materialSvc.Process(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMaterialService_Process_NoEmbedder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	env.services.SetEmbeddingService(nil)

	_, err := env.materialSvc.Process(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestMaterialService_Upload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	html := "<html><body><h1>Notes</h1><p>" + essay + "</p></body></html>"
	m, err := env.materialSvc.Upload(ctx, driving.RegisterMaterialRequest{
		Title:     "week 1/notes.html",
		OwnerType: domain.OwnerCourseMaterial,
		CourseID:  "course-1",
	}, []byte(html))
	require.NoError(t, err)

	assert.Equal(t, "text/html", m.MimeType)
	assert.True(t, strings.HasPrefix(m.StorageKey, "materials/"+m.ID+"/"))
	assert.NotContains(t, strings.TrimPrefix(m.StorageKey, "materials/"+m.ID+"/"), "/")

	processed, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingDone, processed.Status)

	text, err := env.materialSvc.GetText(ctx, m.ID)
	require.NoError(t, err)
	assert.NotContains(t, text.Text, "<p>")
	assert.Contains(t, text.Text, "Notes")
	assert.Contains(t, text.Text, "chlorophyll")
}

func TestMaterialService_Upload_Empty(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.materialSvc.Upload(context.Background(), driving.RegisterMaterialRequest{
		Title:     "empty.txt",
		OwnerType: domain.OwnerCourseMaterial,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMaterialService_GetText_Reconstructs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.submit(t, "sub-1", "essay.txt", essay)
	_, err := env.materialSvc.Process(ctx, m.ID)
	require.NoError(t, err)

	text, err := env.materialSvc.GetText(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, essay, text.Text)
	assert.Equal(t, "essay.txt", text.Title)
}

func TestMaterialService_GetText_Unprocessed(t *testing.T) {
	env := newTestEnv(t)

	m := env.submit(t, "sub-1", "essay.txt", essay)
	_, err := env.materialSvc.GetText(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMaterialService_ListBySubmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.submit(t, "sub-1", "a.txt", "first file")
	env.submit(t, "sub-1", "b.txt", "second file")
	env.submit(t, "sub-2", "c.txt", "other submission")

	materials, err := env.materialSvc.ListBySubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Len(t, materials, 2)

	_, err = env.materialSvc.ListBySubmission(ctx, "sub-unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSafeObjectName(t *testing.T) {
	assert.Equal(t, "a_b.txt", safeObjectName("a/b.txt"))
	assert.Equal(t, "upload", safeObjectName(".."))
	assert.Equal(t, "upload", safeObjectName("   "))
	assert.Equal(t, "report.pdf", safeObjectName("report.pdf"))
}

func TestMaterialService_ListByCourseAndReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	notes := env.courseMaterial(t, "course-1", "notes.txt", essay)
	env.courseMaterial(t, "course-2", "other.txt", essay)
	env.submit(t, "sub-1", "essay.txt", essay)
	ref := env.reference(t, "https://example.com/photosynthesis", essay)

	materials, err := env.materialSvc.ListByCourse(ctx, "course-1")
	require.NoError(t, err)
	require.Len(t, materials, 1, "submissions are not course materials")
	assert.Equal(t, notes.ID, materials[0].ID)

	refs, err := env.materialSvc.ListReferences(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ref.ID, refs[0].ID)

	_, err = env.materialSvc.ListByCourse(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMaterialService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.courseMaterial(t, "course-1", "notes.txt", essay)
	indexed, _ := env.index.Count(ctx)
	require.Equal(t, m.ChunkCount, indexed)

	result, err := env.materialSvc.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MaterialsDeleted)
	assert.Equal(t, m.ChunkCount, result.ChunksDeleted)
	assert.Empty(t, result.StorageKeys)

	indexed, _ = env.index.Count(ctx)
	assert.Zero(t, indexed)
	assert.Zero(t, env.chunks.Count())
	_, err = env.materialSvc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.materialSvc.Delete(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMaterialService_Delete_StopsMatching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ref := env.reference(t, "https://example.com/photosynthesis", essay)
	env.submit(t, "sub-x", "copy.txt", essay)

	report, err := env.plagiarismSvc.Check(ctx, "sub-x")
	require.NoError(t, err)
	require.InDelta(t, 1.0, report.SimilarityScore, 1e-3)

	_, err = env.materialSvc.Delete(ctx, ref.ID)
	require.NoError(t, err)

	report, err = env.plagiarismSvc.Check(ctx, "sub-x")
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.SimilarityScore)
	assert.Empty(t, report.MatchedSources())
}

func TestMaterialService_Delete_RefusesSubmissionFile(t *testing.T) {
	env := newTestEnv(t)

	m := env.submit(t, "sub-1", "essay.txt", essay)
	_, err := env.materialSvc.Delete(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.materialSvc.Get(context.Background(), m.ID)
	assert.NoError(t, err)
}

func TestMaterialService_Delete_WhileProcessing(t *testing.T) {
	env := newTestEnv(t)

	m := env.courseMaterial(t, "course-1", "notes.txt", essay)
	env.lock.SetLockHeld("material:"+m.ID, time.Minute)

	_, err := env.materialSvc.Delete(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMaterialService_DeleteCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.courseMaterial(t, "course-1", "notes.txt", essay)
	env.courseMaterial(t, "course-1", "slides.txt", "Cells divide by mitosis and meiosis.")
	other := env.courseMaterial(t, "course-2", "other.txt", essay)
	sub := env.submit(t, "sub-1", "essay.txt", essay)

	result, err := env.materialSvc.DeleteCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.MaterialsDeleted)
	assert.Positive(t, result.ChunksDeleted)

	_, err = env.materialSvc.Get(ctx, other.ID)
	assert.NoError(t, err)
	_, err = env.materialSvc.Get(ctx, sub.ID)
	assert.NoError(t, err, "submissions of the course are kept")

	indexed, _ := env.index.Count(ctx)
	assert.Equal(t, other.ChunkCount, indexed)

	_, err = env.materialSvc.DeleteCourse(ctx, "course-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMaterialService_DeleteAllCourses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.courseMaterial(t, "course-1", "notes.txt", essay)
	env.courseMaterial(t, "course-2", "other.txt", essay)
	ref := env.reference(t, "https://example.com/photosynthesis", essay)
	sub := env.submit(t, "sub-1", "essay.txt", essay)

	result, err := env.materialSvc.DeleteAllCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MaterialsDeleted)

	_, err = env.materialSvc.Get(ctx, ref.ID)
	assert.NoError(t, err)
	_, err = env.materialSvc.Get(ctx, sub.ID)
	assert.NoError(t, err)

	indexed, _ := env.index.Count(ctx)
	assert.Equal(t, ref.ChunkCount, indexed)
}
