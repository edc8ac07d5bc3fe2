package tools

import (
	"context"

	"github.com/stretchr/testify/mock"

	"coursechat/internal/domain"
	"coursechat/internal/vectorstore"
)

// MockContentSearcher mocks the ContentSearcher interface
type MockContentSearcher struct {
	mock.Mock
}

func (m *MockContentSearcher) Search(ctx context.Context, query string, opts vectorstore.SearchOptions) domain.SearchResults {
	args := m.Called(ctx, query, opts)
	return args.Get(0).(domain.SearchResults)
}

// MockCourseCatalog mocks the CourseCatalog interface
type MockCourseCatalog struct {
	mock.Mock
}

func (m *MockCourseCatalog) ResolveCourseName(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockCourseCatalog) CourseMetadata(ctx context.Context, title string) (*domain.Course, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}
