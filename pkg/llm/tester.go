package llm

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
)

// SimulatedDelay is how long a test run pretends to wait on the model.
const SimulatedDelay = 1500 * time.Millisecond

// SimulatedResponse mirrors the canned output the console always produced
// for test runs; real invocation is a separate, future concern.
const SimulatedResponse = "测试结果：AI 响应内容...\n\n(此处为 Mock 数据，后续将接入真实 LLM)"

// TestResult contains the outcome of a simulated connection test.
type TestResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Response       string `json:"response,omitempty"`
	Provider       string `json:"provider"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}

// Tester runs simulated connection tests against configured models.
type Tester struct {
	delay  time.Duration
	logger *zap.Logger
}

// NewTester creates a Tester with the standard simulated delay.
func NewTester(logger *zap.Logger) *Tester {
	return &Tester{delay: SimulatedDelay, logger: logger.Named("llm-tester")}
}

// NewTesterWithDelay creates a Tester with a custom delay, for tests.
func NewTesterWithDelay(delay time.Duration, logger *zap.Logger) *Tester {
	return &Tester{delay: delay, logger: logger.Named("llm-tester")}
}

// Test validates the model's configuration, constructs its provider client,
// then waits the simulated delay and returns the canned response. The wait
// respects ctx, so an aborted request does not strand the run.
func (t *Tester) Test(ctx context.Context, m *models.Model) (*TestResult, error) {
	if m.APIEndpoint != "" {
		if _, err := url.ParseRequestURI(m.APIEndpoint); err != nil {
			return nil, fmt.Errorf("invalid API endpoint %q: %w", m.APIEndpoint, err)
		}
	}

	client, err := NewClient(m, t.logger)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("Simulated model test started",
		zap.String("model", m.Name),
		zap.String("provider", string(client.Provider())))

	start := time.Now()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(t.delay):
	}

	return &TestResult{
		Success:        true,
		Message:        "测试完成",
		Response:       SimulatedResponse,
		Provider:       string(client.Provider()),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// Simulate runs a test with no model bound at all, for the prompt editor's
// test panel: only the delay and the canned response.
func (t *Tester) Simulate(ctx context.Context) (*TestResult, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(t.delay):
	}
	return &TestResult{
		Success:        true,
		Message:        "测试完成",
		Response:       SimulatedResponse,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
