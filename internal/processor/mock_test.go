package processor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/mining-intel/internal/extract"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/scrape"
)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (*scrape.Result, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrape.Result), args.Error(1)
}

type mockCapability struct {
	mock.Mock
}

func (m *mockCapability) ExtractProjects(ctx context.Context, in extract.Input, max int) ([]model.RawExtractedProject, error) {
	args := m.Called(ctx, in, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawExtractedProject), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByNameAndCompany(ctx context.Context, name, company string) (*model.StoredProject, error) {
	args := m.Called(ctx, name, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredProject), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, p model.EnrichedProject) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id string, p model.EnrichedProject) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}
