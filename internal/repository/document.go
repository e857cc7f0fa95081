package repository

import (
	"strings"

	"github.com/hitoshi/cardoctor/internal/model"
)

// numericTextPattern はprice正規化の対象とする数値文字列のPOSIX正規表現。
// 前後の空白はPostgreSQLのdouble precision入力でも許容される。
const numericTextPattern = `^\s*[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?\s*$`

// likeEscaper はILIKEパターンのメタ文字をエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike は検索文字列を部分一致用にエスケープする。
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// priceOrderClause は並び順に対応するORDER BY句を返す。
// price未設定のドキュメントは昇順で先頭、降順で末尾に並ぶ。
func priceOrderClause(order model.SortOrder) string {
	if order == model.SortAsc {
		return `ORDER BY doc->'price' ASC NULLS FIRST, created_at ASC`
	}
	return `ORDER BY doc->'price' DESC NULLS LAST, created_at ASC`
}

// toDocuments はスキャン済みのバイト列をDocumentに変換する。
func toDocuments(rows [][]byte) []model.Document {
	docs := make([]model.Document, 0, len(rows))
	for _, b := range rows {
		docs = append(docs, model.Document(b))
	}
	return docs
}
