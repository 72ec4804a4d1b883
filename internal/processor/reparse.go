package processor

import (
	"context"
	"errors"
	"sync"

	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
)

// ReparseOptions 批量重新解析参数
type ReparseOptions struct {
	Limit   int
	Workers int
	DryRun  bool
}

// ReparseSummary 批量重新解析结果
type ReparseSummary struct {
	Candidates  int      `json:"candidates"`
	Reparsed    int      `json:"reparsed"`
	Failed      int      `json:"failed"`
	FailedUUIDs []string `json:"failedUuids,omitempty"`
}

// ReparseStale 用当前解析器重新解析失败或版本过旧的记录
func (s *ImportService) ReparseStale(ctx context.Context, opts ReparseOptions) (*ReparseSummary, error) {
	if s.comp.Repository == nil || s.comp.Archive == nil {
		return nil, newImportError("", "reparse", ErrUnavailable, errors.New("重新解析需要MySQL和MinIO"))
	}
	imps, err := s.comp.Repository.ListStaleImports(ctx, s.set.ParserVersion, opts.Limit)
	if err != nil {
		return nil, newImportError("", "reparse", ErrPersistFailed, err)
	}

	summary := &ReparseSummary{Candidates: len(imps)}
	if opts.DryRun || len(imps) == 0 {
		return summary, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := range imps {
		if ctx.Err() != nil {
			break
		}
		imp := imps[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			err := s.ReparseImport(ctx, &imp)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.FailedUUIDs = append(summary.FailedUUIDs, imp.SubmissionUUID)
				return
			}
			summary.Reparsed++
		}()
	}
	wg.Wait()

	s.set.Logger.Info().
		Int("candidates", summary.Candidates).
		Int("reparsed", summary.Reparsed).
		Int("failed", summary.Failed).
		Msg("重新解析完成")
	return summary, ctx.Err()
}

// ReparseImport 取回原始文件并以原提交UUID重新解析
func (s *ImportService) ReparseImport(ctx context.Context, imp *models.ResumeImport) error {
	if s.comp.Archive == nil {
		return newImportError(imp.SubmissionUUID, "reparse", ErrUnavailable, errors.New("未配置对象存储"))
	}
	log := s.set.Logger.With().Str("submission_uuid", imp.SubmissionUUID).Logger()

	data, err := s.comp.Archive.GetOriginal(ctx, imp.OriginalObject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.markFailed(ctx, imp.SubmissionUUID, err)
			return newImportError(imp.SubmissionUUID, "reparse", ErrNotFound, err)
		}
		log.Warn().Err(err).Msg("下载原始文件失败")
		return newImportError(imp.SubmissionUUID, "reparse", ErrArchiveFailed, err)
	}

	_, err = s.ImportPDF(ctx, ImportRequest{
		SubmissionUUID: imp.SubmissionUUID,
		FileName:       imp.FileName,
		Data:           data,
		Source:         imp.Source,
		OriginalObject: imp.OriginalObject,
		SubmittedAt:    imp.CreatedAt,
	})
	if err != nil {
		if IsPermanent(err) {
			s.markFailed(ctx, imp.SubmissionUUID, err)
		}
		log.Warn().Err(err).Msg("重新解析失败")
		return err
	}
	return nil
}
