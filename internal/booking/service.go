// Package booking は予約台帳のドメインロジックを提供する。
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/hitoshi/cardoctor/internal/repository"
)

// MutationPolicy は予約の作成・更新・削除に対する認可方針を表す。
type MutationPolicy string

const (
	// PolicyOpen は予約の変更操作にセッションを要求しない。
	PolicyOpen MutationPolicy = "open"
	// PolicyOwner は予約の変更操作にセッションを要求し、所有者本人のみに許可する。
	PolicyOwner MutationPolicy = "owner"
)

// CreationRecorder は予約作成件数の記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type CreationRecorder interface {
	RecordBookingCreated()
}

// Service は予約台帳のサービス層。
// 一覧取得時の所有者チェックと、変更操作の認可方針を適用する。
type Service struct {
	repo     repository.BookingRepository
	policy   MutationPolicy
	recorder CreationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// 未知のpolicyはPolicyOpenとして扱う。
func NewService(repo repository.BookingRepository, policy MutationPolicy, recorder CreationRecorder) *Service {
	if policy != PolicyOwner {
		policy = PolicyOpen
	}
	return &Service{repo: repo, policy: policy, recorder: recorder}
}

// Policy は適用中の変更操作の認可方針を返す。
func (s *Service) Policy() MutationPolicy {
	return s.policy
}

// List は予約一覧を返す。
// emailが指定され、呼び出し元のemailと一致しない場合はForbiddenを返す。
// emailが未指定の場合、PolicyOpenでは全件、PolicyOwnerでは呼び出し元の予約のみを返す。
func (s *Service) List(ctx context.Context, caller model.Identity, email *string) ([]model.Document, error) {
	if email != nil && *email != caller.Email {
		slog.Warn("booking list denied",
			slog.String("caller", caller.Email),
			slog.String("requested", *email),
		)
		return nil, model.NewForbiddenError()
	}

	filter := email
	if filter == nil && s.policy == PolicyOwner {
		own := caller.Email
		filter = &own
	}

	docs, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// Create は受け取ったJSONオブジェクトをそのまま予約として保存する。
// callerはセッションが無い場合nil。PolicyOwnerではcallerとbodyのemailの一致を要求する。
func (s *Service) Create(ctx context.Context, caller *model.Identity, body json.RawMessage) (*model.InsertResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, model.NewInvalidRequestError("予約はJSONオブジェクトで指定してください")
	}

	if s.policy == PolicyOwner {
		if caller == nil {
			return nil, model.NewUnauthorizedError()
		}
		var email string
		if raw, ok := fields["email"]; !ok || json.Unmarshal(raw, &email) != nil || email != caller.Email {
			return nil, model.NewForbiddenError()
		}
	}

	result, err := s.repo.Insert(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	if s.recorder != nil {
		s.recorder.RecordBookingCreated()
	}
	return result, nil
}

// UpdateStatus は予約のstatusフィールドのみを更新する。statusがnilの場合はnullを設定する。
// PolicyOpenでは対象が存在しない場合も一致件数0の結果を返す。
func (s *Service) UpdateStatus(ctx context.Context, caller *model.Identity, id string, status *string) (*model.UpdateResult, error) {
	bookingID, err := s.authorizeMutation(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.UpdateStatus(ctx, bookingID, status)
	if err != nil {
		return nil, fmt.Errorf("予約ステータスの更新に失敗しました: %w", err)
	}
	return result, nil
}

// Delete は予約を削除する。
// PolicyOpenでは対象が存在しない場合も削除件数0の結果を返す。
func (s *Service) Delete(ctx context.Context, caller *model.Identity, id string) (*model.DeleteResult, error) {
	bookingID, err := s.authorizeMutation(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.Delete(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	return result, nil
}

// authorizeMutation は識別子を検証し、PolicyOwnerでは所有者を確認する。
// 正規化した識別子を返す。
func (s *Service) authorizeMutation(ctx context.Context, caller *model.Identity, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", model.NewInvalidIDError(id)
	}
	bookingID := parsed.String()

	if s.policy != PolicyOwner {
		return bookingID, nil
	}
	if caller == nil {
		return "", model.NewUnauthorizedError()
	}

	existing, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return "", fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return "", model.NewBookingNotFoundError(id)
	}
	if existing.Email != caller.Email {
		slog.Warn("booking mutation denied",
			slog.String("caller", caller.Email),
			slog.String("booking_id", bookingID),
		)
		return "", model.NewForbiddenError()
	}
	return bookingID, nil
}
