// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, booking, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInvalidIdentity = "INVALID_IDENTITY"
	ErrCodeServiceNotFound = "SERVICE_NOT_FOUND"
	ErrCodeBookingNotFound = "BOOKING_NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewUnauthorizedError はセッショントークンが無い、または無効な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized access",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は認証済みの識別情報と対象リソースの所有者が一致しない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "forbidden",
		Category: "auth",
		Action:   "自分の予約のみ参照・変更できます。",
	}
}

// NewInvalidIDError は識別子の形式が不正な場合のエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("識別子の形式が不正です: %s", id),
		Category: "validation",
		Action:   "一覧APIで取得した識別子を指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディを解釈できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストを解釈できません: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidIdentityError はトークン発行時の識別情報にemailが含まれない場合のエラーを生成する。
func NewInvalidIdentityError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidIdentity,
		Message:  "識別情報にemailが含まれていません。",
		Category: "auth",
		Action:   "emailを含むJSONオブジェクトを送信してください。",
	}
}

// NewServiceNotFoundError はサービス掲載情報が見つからない場合のエラーを生成する。
func NewServiceNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeServiceNotFound,
		Message:  fmt.Sprintf("指定されたサービスが見つかりません: %s", id),
		Category: "catalog",
		Action:   "サービスIDを確認してください。",
	}
}

// NewBookingNotFoundError は予約が見つからない場合のエラーを生成する。
func NewBookingNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  fmt.Sprintf("指定された予約が見つかりません: %s", id),
		Category: "booking",
		Action:   "予約IDを確認してください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
