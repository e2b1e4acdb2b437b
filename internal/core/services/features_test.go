package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
)

type plagiarismFeature struct {
	env      *testEnv
	report   *domain.Report
	scores   map[string]float64
	previous float64
}

func (f *plagiarismFeature) reset(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
	env, err := buildTestEnv()
	if err != nil {
		return ctx, err
	}
	f.env = env
	f.report = nil
	f.scores = make(map[string]float64)
	f.previous = 0
	return ctx, nil
}

func (f *plagiarismFeature) submissionContains(ctx context.Context, submissionID, text string) error {
	_, err := f.env.materialSvc.Register(ctx, driving.RegisterMaterialRequest{
		Title:        submissionID + ".txt",
		OwnerType:    domain.OwnerSubmission,
		CourseID:     "course-1",
		SubmissionID: submissionID,
		Text:         text,
	})
	return err
}

func (f *plagiarismFeature) referenceContains(ctx context.Context, url, text string) error {
	m, err := f.env.materialSvc.Register(ctx, driving.RegisterMaterialRequest{
		Title:     url,
		OwnerType: domain.OwnerExternalReference,
		SourceURL: url,
		Text:      text,
	})
	if err != nil {
		return err
	}
	_, err = f.env.materialSvc.Process(ctx, m.ID)
	return err
}

func (f *plagiarismFeature) submissionIsChecked(ctx context.Context, submissionID string) error {
	report, err := f.env.plagiarismSvc.Check(ctx, submissionID)
	if err != nil {
		return err
	}
	if score, ok := f.scores[submissionID]; ok {
		f.previous = score
	}
	f.scores[submissionID] = report.SimilarityScore
	f.report = report
	return nil
}

func (f *plagiarismFeature) similarityScoreIs(expected float64) error {
	if f.report.SimilarityScore != expected {
		return fmt.Errorf("expected similarity score %v, got %v", expected, f.report.SimilarityScore)
	}
	return nil
}

func (f *plagiarismFeature) noMatchedSources() error {
	if n := len(f.report.MatchedSources()); n != 0 {
		return fmt.Errorf("expected no matched sources, got %d", n)
	}
	return nil
}

func (f *plagiarismFeature) everySimilarityCloseToOne() error {
	sources := f.report.MatchedSources()
	if len(sources) == 0 {
		return errors.New("expected matched sources")
	}
	for _, s := range sources {
		if math.Abs(s.Similarity-1) > 1e-3 {
			return fmt.Errorf("chunk %d: similarity %v is not close to 1", s.ChunkIndex, s.Similarity)
		}
	}
	return nil
}

func (f *plagiarismFeature) everySourceIs(sourceType, sourceID string) error {
	for _, s := range f.report.MatchedSources() {
		if string(s.Source.Type()) != sourceType || s.Source.ID() != sourceID {
			return fmt.Errorf("chunk %d: got %s source %q", s.ChunkIndex, s.Source.Type(), s.Source.ID())
		}
	}
	return nil
}

func (f *plagiarismFeature) scoreDidNotDecrease() error {
	if f.report.SimilarityScore < f.previous {
		return fmt.Errorf("similarity score dropped from %v to %v", f.previous, f.report.SimilarityScore)
	}
	return nil
}

func (f *plagiarismFeature) exactlyOneReport(ctx context.Context, submissionID string) error {
	if _, err := f.env.plagiarismSvc.GetReport(ctx, submissionID); err != nil {
		return err
	}
	// Reports for A and Z
	if n := f.env.reports.Count(); n != 2 {
		return fmt.Errorf("expected 2 reports in the store, got %d", n)
	}
	return nil
}

func (f *plagiarismFeature) submissionIsDeleted(ctx context.Context, submissionID string) error {
	_, err := f.env.plagiarismSvc.DeleteSubmission(ctx, submissionID)
	return err
}

func (f *plagiarismFeature) reportNotFound(ctx context.Context, submissionID string) error {
	_, err := f.env.plagiarismSvc.GetReport(ctx, submissionID)
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("expected not found, got %v", err)
	}
	return nil
}

func initializePlagiarismScenario(sc *godog.ScenarioContext) {
	f := &plagiarismFeature{}
	sc.Before(f.reset)

	sc.Step(`^submission "([^"]*)" contains "([^"]*)"$`, f.submissionContains)
	sc.Step(`^the external reference "([^"]*)" contains "([^"]*)"$`, f.referenceContains)
	sc.Step(`^submission "([^"]*)" (?:is checked|has been checked|is checked again)$`, f.submissionIsChecked)
	sc.Step(`^the similarity score is (\d+(?:\.\d+)?)$`, f.similarityScoreIs)
	sc.Step(`^the report has no matched sources$`, f.noMatchedSources)
	sc.Step(`^every matched source has similarity close to 1$`, f.everySimilarityCloseToOne)
	sc.Step(`^every matched source is "([^"]*)" with source id "([^"]*)"$`, f.everySourceIs)
	sc.Step(`^the similarity score did not decrease$`, f.scoreDidNotDecrease)
	sc.Step(`^there is exactly one report for submission "([^"]*)"$`, f.exactlyOneReport)
	sc.Step(`^submission "([^"]*)" is deleted$`, f.submissionIsDeleted)
	sc.Step(`^the report for submission "([^"]*)" is not found$`, f.reportNotFound)
}

func TestPlagiarismFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "plagiarism",
		ScenarioInitializer: initializePlagiarismScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"testdata/features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
