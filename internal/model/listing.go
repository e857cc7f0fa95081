package model

import "encoding/json"

// Document はストアに保存されたJSONオブジェクト全体を表す。
// ストア側の識別子は "_id" キーとしてマージされた状態で保持する。
type Document = json.RawMessage

// ServiceListing はサービス掲載情報の射影（title, price, service_id, img）を表す。
// priceは読み取り時点で常に数値である。
type ServiceListing struct {
	ID        string  `json:"_id" db:"id"`
	Title     string  `json:"title" db:"title"`
	Price     float64 `json:"price" db:"price"`
	ServiceID string  `json:"service_id" db:"service_id"`
	Img       string  `json:"img" db:"img"`
}

// SortOrder は価格による並び順を表す。
type SortOrder string

const (
	// SortAsc は価格の昇順。
	SortAsc SortOrder = "asc"
	// SortDesc は価格の降順（デフォルト）。
	SortDesc SortOrder = "desc"
)

// ParseSortOrder はクエリパラメータの値をSortOrderに変換する。
// "asc" 以外（未指定を含む）はすべて降順とみなす。
func ParseSortOrder(s string) SortOrder {
	if s == string(SortAsc) {
		return SortAsc
	}
	return SortDesc
}

// ServiceQuery はサービス一覧の検索条件を表す。
type ServiceQuery struct {
	// Search はタイトルに対する大文字小文字を区別しない部分一致文字列。空の場合は全件。
	Search string
	Order  SortOrder
}
