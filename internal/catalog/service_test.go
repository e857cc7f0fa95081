package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/cardoctor/internal/model"
)

// --- モック ---

type mockServiceRepo struct {
	calls             []string
	normalizePricesFn func(ctx context.Context) (int64, error)
	findFn            func(ctx context.Context, query model.ServiceQuery) ([]model.Document, error)
	findProjectedFn   func(ctx context.Context, id string) (*model.ServiceListing, error)
}

func (m *mockServiceRepo) NormalizePrices(ctx context.Context) (int64, error) {
	m.calls = append(m.calls, "normalize")
	if m.normalizePricesFn != nil {
		return m.normalizePricesFn(ctx)
	}
	return 0, nil
}

func (m *mockServiceRepo) Find(ctx context.Context, query model.ServiceQuery) ([]model.Document, error) {
	m.calls = append(m.calls, "find")
	if m.findFn != nil {
		return m.findFn(ctx, query)
	}
	return nil, nil
}

func (m *mockServiceRepo) FindProjectedByID(ctx context.Context, id string) (*model.ServiceListing, error) {
	m.calls = append(m.calls, "find_projected")
	return m.findProjectedFn(ctx, id)
}

type mockRecorder struct {
	total int64
}

func (m *mockRecorder) RecordPricesNormalized(count int64) { m.total += count }

const validServiceID = "4c1f8a2e-9d8b-4a7c-b3e5-0f2d6a9c1b7e"

// --- ListServices ---

func TestService_ListServices_NormalizesBeforeFind(t *testing.T) {
	var gotQuery model.ServiceQuery
	repo := &mockServiceRepo{
		normalizePricesFn: func(ctx context.Context) (int64, error) { return 2, nil },
		findFn: func(ctx context.Context, query model.ServiceQuery) ([]model.Document, error) {
			gotQuery = query
			return []model.Document{model.Document(`{"_id":"a","price":50}`)}, nil
		},
	}
	rec := &mockRecorder{}
	svc := NewService(repo, rec)

	query := model.ServiceQuery{Search: "engine", Order: model.SortAsc}
	docs, err := svc.ListServices(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("len(docs) = %d, want 1", len(docs))
	}
	if len(repo.calls) != 2 || repo.calls[0] != "normalize" || repo.calls[1] != "find" {
		t.Errorf("calls = %v, want [normalize find]", repo.calls)
	}
	if gotQuery != query {
		t.Errorf("query = %+v, want %+v", gotQuery, query)
	}
	if rec.total != 2 {
		t.Errorf("recorded = %d, want 2", rec.total)
	}
}

func TestService_ListServices_NormalizeErrorStopsListing(t *testing.T) {
	repo := &mockServiceRepo{
		normalizePricesFn: func(ctx context.Context) (int64, error) { return 0, errors.New("connection reset") },
	}
	svc := NewService(repo, nil)

	docs, err := svc.ListServices(context.Background(), model.ServiceQuery{Order: model.SortDesc})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if docs != nil {
		t.Errorf("docs = %v, want nil", docs)
	}
	for _, c := range repo.calls {
		if c == "find" {
			t.Error("Find should not be called when normalization fails")
		}
	}
}

func TestService_ListServices_FindError(t *testing.T) {
	repo := &mockServiceRepo{
		findFn: func(ctx context.Context, query model.ServiceQuery) ([]model.Document, error) {
			return nil, errors.New("db error")
		},
	}
	svc := NewService(repo, nil)

	if _, err := svc.ListServices(context.Background(), model.ServiceQuery{}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestService_ListServices_EmptyResultIsEmptySlice(t *testing.T) {
	svc := NewService(&mockServiceRepo{}, nil)

	docs, err := svc.ListServices(context.Background(), model.ServiceQuery{Search: "nothing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("docs = %v, want empty non-nil slice", docs)
	}
}

// --- GetService ---

func TestService_GetService_ReturnsListing(t *testing.T) {
	repo := &mockServiceRepo{
		findProjectedFn: func(ctx context.Context, id string) (*model.ServiceListing, error) {
			return &model.ServiceListing{ID: id, Title: "Oil Change", Price: 49.99, ServiceID: "03", Img: "oil.png"}, nil
		},
	}
	svc := NewService(repo, nil)

	listing, err := svc.GetService(context.Background(), validServiceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listing.ID != validServiceID || listing.Price != 49.99 {
		t.Errorf("listing = %+v", listing)
	}
}

func TestService_GetService_MalformedID(t *testing.T) {
	repo := &mockServiceRepo{}
	svc := NewService(repo, nil)

	_, err := svc.GetService(context.Background(), "not-an-id")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidID {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidID)
	}
	if len(repo.calls) != 0 {
		t.Errorf("repository should not be called, got %v", repo.calls)
	}
}

func TestService_GetService_NotFound(t *testing.T) {
	repo := &mockServiceRepo{
		findProjectedFn: func(ctx context.Context, id string) (*model.ServiceListing, error) { return nil, nil },
	}
	svc := NewService(repo, nil)

	_, err := svc.GetService(context.Background(), validServiceID)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeServiceNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeServiceNotFound)
	}
}

func TestService_GetService_RepositoryError(t *testing.T) {
	repo := &mockServiceRepo{
		findProjectedFn: func(ctx context.Context, id string) (*model.ServiceListing, error) {
			return nil, errors.New("db error")
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.GetService(context.Background(), validServiceID)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store failures should not be APIError, got %v", apiErr)
	}
}
