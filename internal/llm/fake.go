package llm

import (
	"context"
	"sync"
)

// FakeClient is a scripted Client for tests. Responses are returned in
// order; once exhausted, the last response repeats. Prompts are recorded.
type FakeClient struct {
	mu        sync.Mutex
	responses []fakeResponse
	index     int

	// Prompts records every prompt passed to the client, in call order.
	Prompts []string
}

type fakeResponse struct {
	text string
	err  error
}

// NewFakeClient returns an empty fake; script it with Respond/Fail.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// Respond queues a successful response.
func (f *FakeClient) Respond(text string) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{text: text})
	return f
}

// Fail queues an error response.
func (f *FakeClient) Fail(err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{err: err})
	return f
}

// GenerateContent returns the next scripted response.
func (f *FakeClient) GenerateContent(_ context.Context, prompt string, _ ModelTier) (string, error) {
	return f.next(prompt)
}

// GenerateJSON returns the next scripted response.
func (f *FakeClient) GenerateJSON(_ context.Context, prompt string, _ ModelTier) (string, error) {
	return f.next(prompt)
}

// GetModel returns a stub model name.
func (f *FakeClient) GetModel(tier ModelTier) string { return "fake-" + string(tier) }

// Close is a no-op.
func (f *FakeClient) Close() error { return nil }

// Calls returns how many generation calls were made.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

func (f *FakeClient) next(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)

	if len(f.responses) == 0 {
		return "", &BackendError{Kind: KindUnavailable, Message: "fake client has no scripted responses"}
	}
	resp := f.responses[f.index]
	if f.index < len(f.responses)-1 {
		f.index++
	}
	if resp.err != nil {
		return "", resp.err
	}
	return resp.text, nil
}
