// Package catalog はサービス掲載情報のドメインロジックを提供する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/hitoshi/cardoctor/internal/repository"
)

// NormalizationRecorder は価格正規化件数の記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type NormalizationRecorder interface {
	RecordPricesNormalized(count int64)
}

// Service はサービス掲載情報のサービス層。
type Service struct {
	repo     repository.ServiceRepository
	recorder NormalizationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderがnilの場合は正規化件数を記録しない。
func NewService(repo repository.ServiceRepository, recorder NormalizationRecorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// ListServices は文字列priceを数値に正規化した後、検索条件に一致する掲載情報を返す。
// 正規化に失敗した場合は一覧を返さずエラーを返す。
// 正規化と検索は別々の文で実行され、両者の間に挿入された文字列priceは次回の呼び出しで正規化される。
func (s *Service) ListServices(ctx context.Context, query model.ServiceQuery) ([]model.Document, error) {
	n, err := s.repo.NormalizePrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("価格の正規化に失敗しました: %w", err)
	}
	if n > 0 {
		slog.Info("service prices normalized", slog.Int64("count", n))
		if s.recorder != nil {
			s.recorder.RecordPricesNormalized(n)
		}
	}

	docs, err := s.repo.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("サービス一覧の取得に失敗しました: %w", err)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// GetService は指定IDの掲載情報を射影して返す。
func (s *Service) GetService(ctx context.Context, id string) (*model.ServiceListing, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, model.NewInvalidIDError(id)
	}

	listing, err := s.repo.FindProjectedByID(ctx, parsed.String())
	if err != nil {
		return nil, fmt.Errorf("サービスの取得に失敗しました: %w", err)
	}
	if listing == nil {
		return nil, model.NewServiceNotFoundError(id)
	}
	return listing, nil
}
