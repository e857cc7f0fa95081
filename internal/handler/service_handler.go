package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cardoctor/internal/model"
)

// CatalogServiceInterface はサービス掲載情報ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// ListServices は価格を正規化した後、検索条件に一致する掲載情報を返す。
	ListServices(ctx context.Context, query model.ServiceQuery) ([]model.Document, error)
	// GetService は指定IDの掲載情報を射影して返す。
	GetService(ctx context.Context, id string) (*model.ServiceListing, error)
}

// ServiceHandler はサービス掲載情報のHTTPハンドラー。
type ServiceHandler struct {
	service CatalogServiceInterface
}

// NewServiceHandler はServiceHandlerを生成する。
func NewServiceHandler(service CatalogServiceInterface) *ServiceHandler {
	return &ServiceHandler{service: service}
}

// ListServices はサービス掲載情報の一覧を返す。
// GET /services?search=xxx&sort=asc|desc
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := model.ServiceQuery{
		Search: q.Get("search"),
		Order:  model.ParseSortOrder(q.Get("sort")),
	}

	docs, err := h.service.ListServices(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// GetService はサービス掲載情報の射影を返す。
// GET /services/{id}
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}
