package service

import (
	"context"
	"fmt"
	"sort"

	"ai-docview-be/internal/dto"
	"ai-docview-be/internal/entity"
	"ai-docview-be/pkg/cache"
	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/multiview"
	"ai-docview-be/pkg/status"
	"ai-docview-be/pkg/view"
)

// GetStatus derives each view's state: a stored row wins, then the tracker,
// and anything the tracker never saw is pending.
func (s *documentService) GetStatus(ctx context.Context, documentId string) (*dto.DocumentStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentId)
	}

	rows, err := uow.ViewResultRepository().FindAllByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	stored := make(map[view.Kind]bool, len(rows))
	for _, row := range rows {
		stored[row.View] = true
	}

	tracked, err := s.tracker.Get(ctx, documentId)
	if err != nil {
		s.logger.Warn("DocumentService", "Failed to read view status", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
		tracked = nil
	}

	extra := make(map[view.Kind]bool)
	for kind := range stored {
		if !profile.IsEnabled(kind) {
			extra[kind] = true
		}
	}
	kinds := append(append([]view.Kind{}, profile.EnabledViews...), sortedKinds(extra)...)

	res := &dto.DocumentStatusResponse{
		DocumentId:  documentId,
		PrimaryView: string(profile.PrimaryView),
		Views:       make(map[string]dto.ViewStatusResponse, len(kinds)),
	}
	for _, kind := range kinds {
		switch job, ok := tracked[kind]; {
		case stored[kind]:
			res.Views[string(kind)] = dto.ViewStatusResponse{State: string(status.StateCompleted), Ready: true}
		case ok:
			res.Views[string(kind)] = dto.ViewStatusResponse{State: string(job.State), Error: job.Error}
		default:
			res.Views[string(kind)] = dto.ViewStatusResponse{State: string(status.StatePending)}
		}
	}
	return res, nil
}

// GetContainer assembles every stored view into a read-only container.
func (s *documentService) GetContainer(ctx context.Context, documentId string) (*multiview.Container, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentId)
	}

	rows, err := uow.ViewResultRepository().FindAllByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}

	views := make(map[view.Kind]view.ResultData, len(rows))
	scores := make(map[view.Kind]float64, len(rows))
	for _, row := range rows {
		views[row.View] = row.ResultData
		if score, ok := row.ResultData.Confidence(); ok {
			scores[row.View] = score
		}
	}
	return multiview.New(views, profile.EnabledViews, scores, profile.PrimaryView), nil
}

func (s *documentService) GetView(ctx context.Context, documentId string, name string) (*dto.ViewResultResponse, error) {
	kind, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.ViewResultRepository().FindOne(ctx, documentId, kind)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return ToViewResultResponse(row), nil
	}

	exists, err := uow.IntermediateResultRepository().Exists(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentId)
	}
	return nil, fmt.Errorf("%w: %s", ErrViewNotReady, kind)
}

func (s *documentService) GetProfile(ctx context.Context, documentId string) (*dto.DocumentProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentId)
	}

	return &dto.DocumentProfileResponse{
		DocumentId:      profile.DocumentId,
		PrimaryView:     string(profile.PrimaryView),
		EnabledViews:    kindsToStrings(profile.EnabledViews),
		DetectionScores: scoresToMap(profile.DetectionScores),
		CacheKey:        profile.CacheKey,
		Method:          profile.Method,
		CreatedAt:       profile.CreatedAt,
		UpdatedAt:       profile.UpdatedAt,
	}, nil
}

// Delete removes the profile, the snapshot and every view row in one transaction.
func (s *documentService) Delete(ctx context.Context, documentId string) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	profile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	intermediate, err := uow.IntermediateResultRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	viewsDeleted, err := uow.ViewResultRepository().DeleteByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	hadIntermediate, err := uow.IntermediateResultRepository().Delete(ctx, documentId)
	if err != nil {
		return nil, err
	}
	hadProfile, err := uow.DocumentProfileRepository().Delete(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if viewsDeleted == 0 && !hadIntermediate && !hadProfile {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentId)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if err := s.tracker.Clear(ctx, documentId); err != nil {
		s.logger.Warn("DocumentService", "Failed to clear view status", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
	}
	if profile != nil && intermediate != nil {
		s.purgeCache(ctx, documentId, profile.CacheKey, intermediate.PreprocessedContent)
	}

	s.logger.Info("DocumentService", "Document deleted", map[string]interface{}{
		"document_id":   documentId,
		"views_deleted": viewsDeleted,
	})

	return &dto.DeleteDocumentResponse{DocumentId: documentId, ViewsDeleted: viewsDeleted}, nil
}

// purgeCache drops the cached result of every registered view for one snapshot.
func (s *documentService) purgeCache(ctx context.Context, documentId, cacheKey, content string) {
	if cacheKey == "" || s.resultCache == nil {
		return
	}
	for _, kind := range s.registry.Views() {
		if err := s.resultCache.Delete(ctx, cache.ViewKey(cacheKey, kind, content)); err != nil {
			s.logger.Warn("DocumentService", "Failed to purge cached view result", map[string]interface{}{
				"document_id": documentId,
				"view":        kind,
				"error":       err.Error(),
			})
		}
	}
}

func ToViewResultResponse(r *entity.ViewResult) *dto.ViewResultResponse {
	if r == nil {
		return nil
	}
	res := &dto.ViewResultResponse{
		DocumentId:       r.DocumentId,
		View:             string(r.View),
		TypeAlias:        r.TypeAlias,
		IsPrimary:        r.IsPrimary,
		ResultData:       r.ResultData,
		ProcessingTimeMs: r.ProcessingTime.Milliseconds(),
		UpdatedAt:        r.UpdatedAt,
	}
	if score, ok := r.ResultData.Confidence(); ok {
		res.Confidence = &score
	}
	return res
}

func kindsToStrings(kinds []view.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func scoresToMap(scores detect.Scores) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[string(k)] = v
	}
	return out
}

func sortedKinds(kinds map[view.Kind]bool) []view.Kind {
	out := make([]view.Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
