package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sitemix/sitemix/pkg/storage"
	"github.com/sitemix/sitemix/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SaveRun(ctx context.Context, siteID string, run types.RunRecord) error {
	args := m.Called(ctx, siteID, run)
	return args.Error(0)
}

func (m *MockDatabase) GetRun(ctx context.Context, siteID, runID string) (types.RunRecord, error) {
	args := m.Called(ctx, siteID, runID)
	if len(args) > 0 {
		return args.Get(0).(types.RunRecord), args.Error(1)
	}
	return types.RunRecord{}, nil
}

func (m *MockDatabase) ListRuns(ctx context.Context, siteID string, start, end time.Time) ([]types.RunRecord, error) {
	args := m.Called(ctx, siteID, start, end)
	if len(args) > 0 {
		return args.Get(0).([]types.RunRecord), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetLatestRun(ctx context.Context, siteID string) (*types.RunRecord, error) {
	args := m.Called(ctx, siteID)
	if len(args) > 0 {
		run, _ := args.Get(0).(*types.RunRecord)
		return run, args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetSite(ctx context.Context, siteID string) (types.SiteData, error) {
	args := m.Called(ctx, siteID)
	if len(args) > 0 {
		return args.Get(0).(types.SiteData), args.Error(1)
	}
	return types.SiteData{}, nil
}

func (m *MockDatabase) SetSite(ctx context.Context, siteID string, site types.SiteData) error {
	args := m.Called(ctx, siteID, site)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
