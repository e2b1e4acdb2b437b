package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
	"github.com/custodia-labs/similarity-core/internal/normalisers"
	"github.com/custodia-labs/similarity-core/internal/postprocessors"
	"github.com/custodia-labs/similarity-core/internal/runtime"
)

// testEnv wires the real pipeline to in-memory ports.
type testEnv struct {
	materials *mocks.MockMaterialStore
	chunks    *mocks.MockChunkStore
	index     *mocks.MockCorpusIndex
	reports   *mocks.MockReportStore
	objects   *mocks.MockObjectStore
	lock      *mocks.MockDistributedLock
	embedder  *mocks.MockEmbeddingService
	services  *runtime.Services

	materialSvc   *MaterialService
	plagiarismSvc *PlagiarismService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env, err := buildTestEnv()
	require.NoError(t, err)
	return env
}

func buildTestEnv() (*testEnv, error) {
	pipeline, err := postprocessors.DefaultPipeline(postprocessors.ChunkConfig{Size: 120, OverlapRatio: 0.1, PreserveSentences: true})
	if err != nil {
		return nil, err
	}

	env := &testEnv{
		materials: mocks.NewMockMaterialStore(),
		chunks:    mocks.NewMockChunkStore(),
		index:     mocks.NewMockCorpusIndex(),
		reports:   mocks.NewMockReportStore(),
		objects:   mocks.NewMockObjectStore(),
		lock:      mocks.NewMockDistributedLock(),
		embedder:  mocks.NewMockEmbeddingService(),
		services:  runtime.NewServices(domain.NewRuntimeConfig("redis", "redis", "memory")),
	}
	env.services.SetEmbeddingService(env.embedder)

	embedCfg := DefaultEmbedConfig()
	embedCfg.InitialBackoff = time.Millisecond
	embedCfg.MaxBackoff = time.Millisecond

	env.materialSvc = NewMaterialService(MaterialServiceConfig{
		MaterialStore: env.materials,
		ChunkStore:    env.chunks,
		CorpusIndex:   env.index,
		ObjectStore:   env.objects,
		NormaliserReg: normalisers.DefaultRegistry(),
		Pipeline:      pipeline,
		Lock:          env.lock,
		Services:      env.services,
		Embed:         embedCfg,
		Logger:        discardLogger(),
	})
	env.plagiarismSvc = NewPlagiarismService(PlagiarismServiceConfig{
		MaterialService: env.materialSvc,
		MaterialStore:   env.materials,
		ChunkStore:      env.chunks,
		CorpusIndex:     env.index,
		ReportStore:     env.reports,
		Lock:            env.lock,
		Services:        env.services,
		Match:           DefaultMatchConfig(),
		LockConfig:      LockConfig{TTL: time.Minute, Wait: 50 * time.Millisecond},
		Logger:          discardLogger(),
	})
	return env, nil
}

// submit registers a text file for a submission.
func (e *testEnv) submit(t *testing.T, submissionID, title, text string) *domain.Material {
	t.Helper()
	m, err := e.materialSvc.Register(context.Background(), driving.RegisterMaterialRequest{
		Title:        title,
		OwnerType:    domain.OwnerSubmission,
		CourseID:     "course-1",
		SubmissionID: submissionID,
		Text:         text,
	})
	require.NoError(t, err)
	return m
}

// reference registers and ingests an external reference.
func (e *testEnv) reference(t *testing.T, url, text string) *domain.Material {
	t.Helper()
	m, err := e.materialSvc.Register(context.Background(), driving.RegisterMaterialRequest{
		Title:     url,
		OwnerType: domain.OwnerExternalReference,
		SourceURL: url,
		Text:      text,
	})
	require.NoError(t, err)
	m, err = e.materialSvc.Process(context.Background(), m.ID)
	require.NoError(t, err)
	return m
}

// courseMaterial registers and ingests a course material.
func (e *testEnv) courseMaterial(t *testing.T, courseID, title, text string) *domain.Material {
	t.Helper()
	m, err := e.materialSvc.Register(context.Background(), driving.RegisterMaterialRequest{
		Title:     title,
		OwnerType: domain.OwnerCourseMaterial,
		CourseID:  courseID,
		Text:      text,
	})
	require.NoError(t, err)
	m, err = e.materialSvc.Process(context.Background(), m.ID)
	require.NoError(t, err)
	return m
}
