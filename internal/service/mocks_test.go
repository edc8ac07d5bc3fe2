package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"coursechat/internal/domain"
	"coursechat/internal/llm"
	"coursechat/internal/tools"
)

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock"
}

func (m *MockProvider) AvailableModels() []string { return []string{"mock-model"} }

func (m *MockProvider) DefaultModel() string { return "mock-model" }

func (m *MockProvider) IsConfigured() bool { return true }

func (m *MockProvider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockSessionStore mocks the domain.SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) Append(ctx context.Context, sessionID string, exchange domain.Exchange) error {
	args := m.Called(ctx, sessionID, exchange)
	return args.Error(0)
}

func (m *MockSessionStore) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exchange), args.Error(1)
}

func (m *MockSessionStore) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockCourseStore mocks the CourseStore interface
type MockCourseStore struct {
	mock.Mock
}

func (m *MockCourseStore) AddCourse(ctx context.Context, course domain.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseStore) AddChunks(ctx context.Context, chunks []domain.CourseChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockCourseStore) CourseCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCourseStore) CourseTitles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockGenerator mocks the AnswerGenerator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, query, history, providerName, model string) (string, []domain.Source, error) {
	args := m.Called(ctx, query, history, providerName, model)
	var sources []domain.Source
	if args.Get(1) != nil {
		sources = args.Get(1).([]domain.Source)
	}
	return args.String(0), sources, args.Error(2)
}

// scriptedTool returns canned results and records its invocations
type scriptedTool struct {
	name    string
	result  tools.Result
	panics  bool
	calls   int
	lastArg map[string]any
}

func (t *scriptedTool) Definition() tools.Definition {
	return tools.Definition{Name: t.name, InputSchema: tools.Schema{Type: "object"}}
}

func (t *scriptedTool) Execute(_ context.Context, args map[string]any) tools.Result {
	t.calls++
	t.lastArg = args
	if t.panics {
		panic("tool exploded")
	}
	return t.result
}

func textResponse(text string) *llm.Response {
	return &llm.Response{
		Content:    []llm.ContentBlock{llm.TextBlock(text)},
		StopReason: llm.StopEndTurn,
	}
}

func toolUseResponse(id, name string, input map[string]any) *llm.Response {
	return &llm.Response{
		Content: []llm.ContentBlock{{
			Type:      llm.BlockToolUse,
			ID:        id,
			Name:      name,
			ToolInput: input,
		}},
		StopReason: llm.StopToolUse,
	}
}
