package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresBookingRepo はPostgreSQLのJSONBドキュメントを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sqlx.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: sqlx.NewDb(db, "postgres")}
}

// bookingRow はbookingsテーブルのスキャン用の行。
type bookingRow struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Doc   []byte `db:"doc"`
}

// Find は予約ドキュメントを作成順に返す。emailがnilでない場合は完全一致で絞り込む。
func (r *PostgresBookingRepo) Find(ctx context.Context, email *string) ([]model.Document, error) {
	var rows [][]byte
	err := r.db.SelectContext(ctx, &rows,
		`SELECT doc || jsonb_build_object('_id', id) AS document
		 FROM bookings
		 WHERE $1::text IS NULL OR email = $1::text
		 ORDER BY created_at ASC, id ASC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	return toDocuments(rows), nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	var row bookingRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id::text AS id,
		        COALESCE(email, '') AS email,
		        doc || jsonb_build_object('_id', id) AS doc
		 FROM bookings
		 WHERE id = $1`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return &model.Booking{ID: row.ID, Email: row.Email, Doc: json.RawMessage(row.Doc)}, nil
}

// Insert はJSONオブジェクトをそのまま予約として保存する。
// 識別子はストアが生成するため、ドキュメント内の "_id" キーは取り除く。
func (r *PostgresBookingRepo) Insert(ctx context.Context, doc json.RawMessage) (*model.InsertResult, error) {
	var id string
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO bookings (doc) VALUES ($1::jsonb - '_id') RETURNING id::text`,
		string(doc),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}
	return &model.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// UpdateStatus はstatusフィールドのみを更新する。
// 一致件数と、値が実際に変化した件数を区別して返す。
func (r *PostgresBookingRepo) UpdateStatus(ctx context.Context, id string, status *string) (*model.UpdateResult, error) {
	value, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking status: %w", err)
	}

	result := &model.UpdateResult{Acknowledged: true}
	err = r.db.QueryRowxContext(ctx,
		`WITH target AS (
		     SELECT id, doc->'status' AS old_status
		     FROM bookings
		     WHERE id = $1
		     FOR UPDATE
		 ), updated AS (
		     UPDATE bookings b
		     SET doc = jsonb_set(b.doc, '{status}', $2::jsonb, true)
		     FROM target t
		     WHERE b.id = t.id AND t.old_status IS DISTINCT FROM $2::jsonb
		     RETURNING b.id
		 )
		 SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated)`,
		id, string(value),
	).Scan(&result.MatchedCount, &result.ModifiedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return result, nil
}

// Delete は指定IDの予約を削除する。
func (r *PostgresBookingRepo) Delete(ctx context.Context, id string) (*model.DeleteResult, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return &model.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
