package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockInvoker implements Invoker for testing. Responses are raw JSON
// payloads consumed in order; they pass through the same unmarshal and
// validation path as the production client, so shape failures surface
// the same way.
type MockInvoker struct {
	// Requests records every request received, in call order.
	Requests []Request

	responses     []string
	currentIndex  int
	loopResponses bool
	err           error
}

func NewMockInvoker() *MockInvoker {
	return &MockInvoker{}
}

// QueueResponses sets the raw JSON payloads to return in sequence.
func (m *MockInvoker) QueueResponses(responses []string, loop bool) {
	m.responses = responses
	m.currentIndex = 0
	m.loopResponses = loop
}

// QueueResponse appends a single raw JSON payload to the queue.
func (m *MockInvoker) QueueResponse(response string) {
	m.responses = append(m.responses, response)
}

// SetError makes every subsequent Invoke fail with err. A nil err
// restores normal behavior.
func (m *MockInvoker) SetError(err error) {
	m.err = err
}

func (m *MockInvoker) nextResponse() (string, error) {
	if len(m.responses) == 0 {
		return "", fmt.Errorf("no mock responses queued")
	}

	if m.currentIndex >= len(m.responses) {
		if !m.loopResponses {
			return "", fmt.Errorf("mock responses exhausted")
		}
		m.currentIndex = 0
	}

	response := m.responses[m.currentIndex]
	m.currentIndex++
	return response, nil
}

func (m *MockInvoker) Invoke(ctx context.Context, req Request, out any) error {
	m.Requests = append(m.Requests, req)

	if m.err != nil {
		return m.err
	}

	raw, err := m.nextResponse()
	if err != nil {
		return NewInvokeError(ErrorTypeResponse, "mock response unavailable", err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return NewInvokeError(ErrorTypeResponse, "result does not match output shape", err)
	}

	if err := Validate(out); err != nil {
		return NewInvokeError(ErrorTypeValidation, "result failed shape validation", err)
	}

	return nil
}

// LastRequest returns the most recent request, or a zero Request when
// none were made.
func (m *MockInvoker) LastRequest() Request {
	if len(m.Requests) == 0 {
		return Request{}
	}
	return m.Requests[len(m.Requests)-1]
}
