package command

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/service"
	"context"
	"sync"
	"time"
)

type MockTextSender struct {
	mu      sync.Mutex
	err     error
	Message string
}

func (m *MockTextSender) SendMessageReply(_ context.Context, _ *domain.Message, message string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Message = message
	return 0, m.err
}

func (m *MockTextSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Message = err.Error()
	if m.err != nil {
		return m.err
	}
	return err
}

func (m *MockTextSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {}

func (m *MockTextSender) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Message
}

type MockLoader struct {
	asset domain.ImageAsset
	err   error
	ref   string
}

func (m *MockLoader) Load(_ context.Context, ref string) (domain.ImageAsset, error) {
	m.ref = ref
	return m.asset, m.err
}

type MockNormalizer struct {
	err error
}

func (m *MockNormalizer) Normalize(_ context.Context, asset domain.ImageAsset, maxWidth int) (domain.NormalizedImage,
	error) {
	if m.err != nil {
		return domain.NormalizedImage{}, m.err
	}
	return domain.NormalizedImage{Data: asset.Data, Width: maxWidth, Height: maxWidth}, nil
}

type MockEncoder struct{}

func (MockEncoder) Encode(data []byte) domain.TransportPayload {
	return domain.TransportPayload(data)
}

func (MockEncoder) Decode(payload domain.TransportPayload) ([]byte, error) {
	return []byte(payload), nil
}

type MockAnalyzer struct {
	mu       sync.Mutex
	calls    int
	response domain.CritiqueResult
	err      error
	delay    time.Duration
}

func (m *MockAnalyzer) Analyze(_ context.Context, _ domain.TransportPayload) (domain.CritiqueResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	time.Sleep(m.delay)
	return m.response, m.err
}

func (m *MockAnalyzer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

type MockLimiter struct {
	allowed  bool
	added    int
	refunded int
}

func (m *MockLimiter) TryAdd(_ context.Context, _ int64) bool {
	if m.allowed {
		m.added++
	}
	return m.allowed
}

func (m *MockLimiter) Refund(_ int64) {
	m.added--
	m.refunded++
}

func (m *MockLimiter) Used(_ int64) int {
	return m.added
}

type MockSessions struct {
	controller *service.Controller
}

func (m *MockSessions) Get(_ int64) *service.Controller {
	return m.controller
}

func newSessions(n *MockNormalizer, a *MockAnalyzer) *MockSessions {
	return &MockSessions{controller: service.NewController(service.ControllerParams{
		Normalizer: n,
		Encoder:    MockEncoder{},
		Analyzer:   a,
		MaxWidth:   800,
	})}
}
