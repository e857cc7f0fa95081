package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresServiceRepo はPostgreSQLのJSONBドキュメントを使用したサービス掲載情報リポジトリ。
type PostgresServiceRepo struct {
	db *sqlx.DB
}

// NewPostgresServiceRepo はPostgresServiceRepoを生成する。
func NewPostgresServiceRepo(db *sql.DB) *PostgresServiceRepo {
	return &PostgresServiceRepo{db: sqlx.NewDb(db, "postgres")}
}

// NormalizePrices は文字列として保存されたpriceを数値に変換し、変換件数を返す。
// 単一のUPDATE文として実行され、後続の検索とはアトミックではない。
func (r *PostgresServiceRepo) NormalizePrices(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE services
		 SET doc = jsonb_set(doc, '{price}', to_jsonb((doc->>'price')::double precision))
		 WHERE jsonb_typeof(doc->'price') = 'string'
		   AND doc->>'price' ~ $1`,
		numericTextPattern,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to normalize service prices: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Find はタイトルの部分一致で絞り込み、priceで並べ替えたドキュメント全体を返す。
func (r *PostgresServiceRepo) Find(ctx context.Context, query model.ServiceQuery) ([]model.Document, error) {
	var rows [][]byte
	err := r.db.SelectContext(ctx, &rows,
		`SELECT doc || jsonb_build_object('_id', id) AS document
		 FROM services
		 WHERE $1 = '' OR title ILIKE '%' || $1 || '%' ESCAPE '\'
		 `+priceOrderClause(query.Order),
		escapeLike(query.Search),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	return toDocuments(rows), nil
}

// FindProjectedByID は指定IDの掲載情報をtitle, price, service_id, imgに射影して返す。
// 見つからない場合はnilを返す。priceは未正規化の数値文字列も数値として返す。
func (r *PostgresServiceRepo) FindProjectedByID(ctx context.Context, id string) (*model.ServiceListing, error) {
	listing := &model.ServiceListing{}
	err := r.db.GetContext(ctx, listing,
		`SELECT id::text AS id,
		        COALESCE(doc->>'title', '') AS title,
		        CASE
		            WHEN jsonb_typeof(doc->'price') = 'number'
		              OR (jsonb_typeof(doc->'price') = 'string' AND doc->>'price' ~ $2)
		            THEN (doc->>'price')::double precision
		            ELSE 0
		        END AS price,
		        COALESCE(doc->>'service_id', '') AS service_id,
		        COALESCE(doc->>'img', '') AS img
		 FROM services
		 WHERE id = $1`,
		id, numericTextPattern,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}
	return listing, nil
}

// compile-time interface check
var _ ServiceRepository = (*PostgresServiceRepo)(nil)
