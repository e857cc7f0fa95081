package model

import "encoding/json"

// Booking は予約レコードを表す。
// Docは呼び出し元が送信した予約ドキュメント全体で、形状は検証しない。
type Booking struct {
	ID    string          `db:"id"`
	Email string          `db:"email"`
	Doc   json.RawMessage `db:"doc"`
}

// InsertResult は予約作成時のストア応答を表す。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult は予約ステータス更新時のストア応答を表す。
// ModifiedCountは値が実際に変化したレコード数のみを数える。
type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedID    *string `json:"upsertedId"`
	UpsertedCount int64   `json:"upsertedCount"`
}

// DeleteResult は予約削除時のストア応答を表す。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
