package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicerecon/internal/reconcile"
	"invoicerecon/internal/service"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Render(kind service.ArtifactKind, summary *reconcile.BatchSummary) (*service.Artifact, error) {
	args := m.Called(kind, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Artifact), args.Error(1)
}

func (m *MockExportService) RenderAll(summary *reconcile.BatchSummary) ([]*service.Artifact, error) {
	args := m.Called(summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.Artifact), args.Error(1)
}

func (m *MockExportService) Publish(ctx context.Context, prefix string, artifacts []*service.Artifact) ([]service.PublishedArtifact, error) {
	args := m.Called(ctx, prefix, artifacts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.PublishedArtifact), args.Error(1)
}

func (m *MockExportService) Unpublish(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
