package command

import (
	"artcritic/internal/core/domain"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {
	// mocked
}

func (m *MockSender) NotifyAndReturnError(_ context.Context, _ error, _ *domain.Message) error {
	// mocked
	return nil
}

func (m *MockSender) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	args := m.Called(ctx, message, text)
	return args.Int(0), args.Error(1)
}

type MockHealthChecker struct {
	status domain.HealthStatus
}

func (m *MockHealthChecker) CheckHealth(_ context.Context) domain.HealthStatus {
	return m.status
}

func TestRemoveRespond(t *testing.T) {
	sessions := readySessions(t, &MockAnalyzer{})
	ts := &MockTextSender{}

	r := NewRemove(sessions, ts, "/remove")
	require.NoError(t, r.Respond(t.Context(), time.Minute, &domain.Message{ChatID: 1}))
	assert.Equal(t, domain.Empty, sessions.controller.State().Phase)
	assert.Empty(t, ts.last())

	require.NoError(t, r.Respond(t.Context(), time.Minute, &domain.Message{ChatID: 1}))
	assert.Equal(t, nothingToRemove, ts.last())
}

func TestRemoveRespondSendFailed(t *testing.T) {
	ts := &MockTextSender{err: errors.New("mock error")}

	r := NewRemove(newSessions(&MockNormalizer{}, &MockAnalyzer{}), ts, "/remove")
	err := r.Respond(t.Context(), time.Minute, &domain.Message{ChatID: 1})
	require.EqualError(t, err, "failed to send message: mock error")
}

func TestHealthRespond(t *testing.T) {
	checked := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		status domain.HealthStatus
		want   string
	}{
		{
			name:   "healthy",
			status: domain.HealthStatus{State: domain.Healthy, CheckedAt: checked},
			want:   "Analysis service: healthy at 2025-01-02T03:04:05Z",
		},
		{
			name:   "unhealthy",
			status: domain.HealthStatus{State: domain.Unhealthy, Message: "status 503", CheckedAt: checked},
			want:   "Analysis service: unhealthy (status 503) at 2025-01-02T03:04:05Z",
		},
		{
			name: "error",
			status: domain.HealthStatus{State: domain.HealthFail, Message: "connection refused",
				CheckedAt: checked},
			want: "Analysis service: error (connection refused) at 2025-01-02T03:04:05Z",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := &MockTextSender{}
			h := NewHealth(&MockHealthChecker{status: tc.status}, ts, "/health")

			require.NoError(t, h.Respond(t.Context(), time.Minute, &domain.Message{ChatID: 1}))
			assert.Equal(t, tc.want, ts.last())
		})
	}
}

func TestStatusRespond(t *testing.T) {
	sessions := readySessions(t, &MockAnalyzer{})
	ts := &MockTextSender{}

	s := NewStatus(sessions, ts, "/status")
	require.NoError(t, s.Respond(t.Context(), time.Minute, &domain.Message{ChatID: 1}))
	assert.Equal(t, "Image ready (800x800). Use /critique to analyze it.", ts.last())
}

func TestHelpRespond(t *testing.T) {
	registry := &Registry{}
	registry.Register(&MockResponder{command: "/select"})
	registry.Register(&MockResponder{command: "/critique"})

	mockSender := new(MockSender)
	msg := &domain.Message{ID: 123, ChatID: 456}

	mockSender.
		On(
			"SendMessageReply",
			mock.Anything,
			msg,
			mock.MatchedBy(func(text string) bool {
				return strings.Contains(text, "/select - choose an image") &&
					strings.Contains(text, "/critique - ask for a critique") &&
					!strings.Contains(text, "/health")
			}),
		).
		Return(1, nil)

	help := NewHelp(registry, mockSender, "/help")
	require.NoError(t, help.Respond(t.Context(), time.Second, msg))
	mockSender.AssertExpectations(t)
}
