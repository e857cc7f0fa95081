// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"encoding/json"

	"github.com/hitoshi/cardoctor/internal/model"
)

// ServiceRepository はサービス掲載情報の永続化インターフェース。
// 掲載情報の作成・更新・削除はこのシステムの外部で行われる。
type ServiceRepository interface {
	// NormalizePrices は文字列として保存されたpriceを数値に変換し、変換件数を返す。
	// 数値として解釈できない文字列は変更しない。冪等。
	NormalizePrices(ctx context.Context) (int64, error)

	// Find はタイトルの部分一致（大文字小文字を区別しない）で絞り込み、
	// priceで並べ替えたドキュメント全体を返す。
	Find(ctx context.Context, query model.ServiceQuery) ([]model.Document, error)

	// FindProjectedByID は指定IDの掲載情報を射影して返す。見つからない場合はnilを返す。
	FindProjectedByID(ctx context.Context, id string) (*model.ServiceListing, error)
}

// BookingRepository は予約の永続化インターフェース。
type BookingRepository interface {
	// Find は予約ドキュメントを返す。emailがnilでない場合は完全一致で絞り込む。
	Find(ctx context.Context, email *string) ([]model.Document, error)

	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// Insert はJSONオブジェクトをそのまま予約として保存する。"_id" キーは無視する。
	Insert(ctx context.Context, doc json.RawMessage) (*model.InsertResult, error)

	// UpdateStatus はstatusフィールドのみを更新する。statusがnilの場合はnullを設定する。
	UpdateStatus(ctx context.Context, id string, status *string) (*model.UpdateResult, error)

	// Delete は指定IDの予約を削除する。
	Delete(ctx context.Context, id string) (*model.DeleteResult, error)
}
