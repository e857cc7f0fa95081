package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cardoctor/internal/middleware"
	"github.com/hitoshi/cardoctor/internal/model"
)

// maxBookingBodyBytes は予約リクエストボディの上限サイズ。
const maxBookingBodyBytes = 1 << 20

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
// callerはセッションが無い場合nil。
type BookingServiceInterface interface {
	List(ctx context.Context, caller model.Identity, email *string) ([]model.Document, error)
	Create(ctx context.Context, caller *model.Identity, body json.RawMessage) (*model.InsertResult, error)
	UpdateStatus(ctx context.Context, caller *model.Identity, id string, status *string) (*model.UpdateResult, error)
	Delete(ctx context.Context, caller *model.Identity, id string) (*model.DeleteResult, error)
}

// BookingHandler は予約台帳のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// updateStatusRequest は予約ステータス更新リクエストのボディ。
// status以外のフィールドは無視する。
type updateStatusRequest struct {
	Status *string `json:"status"`
}

// ListBookings は予約一覧を返す。セッション必須。
// GET /bookings?email=xxx
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	// 空文字列のemailも指定ありとして扱う
	var email *string
	if q := r.URL.Query(); q.Has("email") {
		v := q.Get("email")
		email = &v
	}

	docs, err := h.service.List(r.Context(), caller, email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// CreateBooking はリクエストボディのJSONオブジェクトをそのまま予約として保存する。
// POST /bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBookingBodyBytes))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディを読み取れません"))
		return
	}

	result, err := h.service.Create(r.Context(), callerFromRequest(r), json.RawMessage(body))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateBookingStatus は予約のstatusフィールドのみを更新する。
// PATCH /bookings/{id}
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookingBodyBytes)).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("statusは文字列で指定してください"))
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), callerFromRequest(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteBooking は予約を削除する。
// DELETE /bookings/{id}
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Delete(r.Context(), callerFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// callerFromRequest はセッションミドルウェアが注入した識別情報を返す。無い場合はnil。
func callerFromRequest(r *http.Request) *model.Identity {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	return &identity
}
