package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induwarapathirana/cv-creator-sub000/internal/constants"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
)

func seedImport(t *testing.T, repo *fakeRepo, archive *fakeArchive, id, status, version string) {
	t.Helper()
	obj, err := archive.UploadOriginal(context.Background(), id, "cv.pdf", []byte("%PDF "+id))
	require.NoError(t, err)
	repo.imports[id] = &models.ResumeImport{
		SubmissionUUID: id,
		Source:         constants.ImportSourceAsync,
		FileName:       "cv.pdf",
		Status:         status,
		OriginalObject: obj,
		ParserVersion:  version,
		CreatedAt:      fixedNow,
	}
}

func TestReparseStale(t *testing.T) {
	repo := newFakeRepo()
	archive := newFakeArchive()
	seedImport(t, repo, archive, "u-failed", models.ImportStatusFailed, constants.DefaultParserVer)
	seedImport(t, repo, archive, "u-old", models.ImportStatusParsed, "heuristic-v0")
	seedImport(t, repo, archive, "u-current", models.ImportStatusParsed, constants.DefaultParserVer)
	seedImport(t, repo, archive, "u-pending", models.ImportStatusPending, "heuristic-v0")

	frags := &fakeFragments{pages: positionedPages("John Smith", "john@smith.dev", "Skills", "Go, Python")}
	svc := newTestService([]ComponentOpt{WithFragmentExtractor(frags), WithArchive(archive), WithRepository(repo)})

	summary, err := svc.ReparseStale(context.Background(), ReparseOptions{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Candidates)
	assert.Equal(t, 2, summary.Reparsed)
	assert.Zero(t, summary.Failed)

	for _, id := range []string{"u-failed", "u-old"} {
		imp := repo.imports[id]
		assert.Equal(t, models.ImportStatusParsed, imp.Status, id)
		assert.Equal(t, constants.DefaultParserVer, imp.ParserVersion, id)
		assert.Equal(t, "John Smith", imp.FullName, id)
		assert.Equal(t, constants.ImportSourceAsync, imp.Source, "保留原来源")
		assert.Equal(t, fixedNow, imp.CreatedAt, "保留提交时间")
	}
	assert.Equal(t, models.ImportStatusPending, repo.imports["u-pending"].Status)
}

func TestReparseStale_DryRunAndLimit(t *testing.T) {
	repo := newFakeRepo()
	archive := newFakeArchive()
	seedImport(t, repo, archive, "u-1", models.ImportStatusFailed, "")
	seedImport(t, repo, archive, "u-2", models.ImportStatusFailed, "")

	svc := newTestService([]ComponentOpt{WithArchive(archive), WithRepository(repo)})
	summary, err := svc.ReparseStale(context.Background(), ReparseOptions{Limit: 1, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Candidates)
	assert.Zero(t, summary.Reparsed)
	assert.Equal(t, models.ImportStatusFailed, repo.imports["u-1"].Status)
}

func TestReparseStale_Failures(t *testing.T) {
	t.Run("缺少存储", func(t *testing.T) {
		svc := newTestService(nil)
		_, err := svc.ReparseStale(context.Background(), ReparseOptions{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("原始文件丢失", func(t *testing.T) {
		repo := newFakeRepo()
		archive := newFakeArchive()
		seedImport(t, repo, archive, "u-gone", models.ImportStatusFailed, "")
		delete(archive.originals, repo.imports["u-gone"].OriginalObject)

		svc := newTestService([]ComponentOpt{WithArchive(archive), WithRepository(repo)})
		summary, err := svc.ReparseStale(context.Background(), ReparseOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, []string{"u-gone"}, summary.FailedUUIDs)
		assert.Contains(t, repo.failed, "u-gone")
	})

	t.Run("下载临时失败不标记", func(t *testing.T) {
		repo := newFakeRepo()
		archive := newFakeArchive()
		seedImport(t, repo, archive, "u-flaky", models.ImportStatusFailed, "")
		archive.getErr = errors.New("connection reset")

		svc := newTestService([]ComponentOpt{WithArchive(archive), WithRepository(repo)})
		err := svc.ReparseImport(context.Background(), repo.imports["u-flaky"])
		assert.ErrorIs(t, err, ErrArchiveFailed)
		assert.NotContains(t, repo.failed, "u-flaky")
	})

	t.Run("提取失败标记为失败", func(t *testing.T) {
		repo := newFakeRepo()
		archive := newFakeArchive()
		seedImport(t, repo, archive, "u-bad", models.ImportStatusParsed, "heuristic-v0")

		frags := &fakeFragments{err: errors.New("no text layer")}
		svc := newTestService([]ComponentOpt{WithFragmentExtractor(frags), WithArchive(archive), WithRepository(repo)})
		err := svc.ReparseImport(context.Background(), repo.imports["u-bad"])
		assert.ErrorIs(t, err, ErrExtractFailed)
		assert.Contains(t, repo.failed, "u-bad")
	})
}
