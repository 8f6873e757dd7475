package extract

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockCapability struct {
	mock.Mock
}

func (m *mockCapability) ExtractProjects(ctx context.Context, in Input, max int) ([]model.RawExtractedProject, error) {
	args := m.Called(ctx, in, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawExtractedProject), args.Error(1)
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *recordingSink) Emit(_ model.ProgressStage, _, _ int, ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) kinds() []model.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventKind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 1000, OutputTokens: 200},
	}
}

func fptr(f float64) *float64 { return &f }
