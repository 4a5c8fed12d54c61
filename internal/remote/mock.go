package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// MockClient is an in-memory marketplace for tests and offline runs. Calls
// are recorded and failures can be scripted per method.
type MockClient struct {
	mu sync.Mutex

	listings map[string][]byte // remoteID -> document
	policies map[string][]byte // policyType/remoteID -> document

	PublishCalls   []PublishCall
	PublishErrs    []error // consumed in order; nil means success
	FetchErr       error
	PolicyErr      error
	InventoryItems []Item
	InventoryErr   error

	nextID int
}

// PublishCall records one Publish invocation.
type PublishCall struct {
	Intent   domain.Intent
	RemoteID string
	Payload  []byte
}

// NewMockClient creates an empty in-memory marketplace.
func NewMockClient() *MockClient {
	return &MockClient{
		listings: make(map[string][]byte),
		policies: make(map[string][]byte),
	}
}

// SetListing seeds the remote document for an item.
func (m *MockClient) SetListing(remoteID string, doc []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[remoteID] = doc
}

// SetPolicy seeds one policy document.
func (m *MockClient) SetPolicy(policyType, remoteID string, doc []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[policyType+"/"+remoteID] = doc
}

// FailPublishWith queues scripted Publish outcomes, consumed one per call.
func (m *MockClient) FailPublishWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishErrs = append(m.PublishErrs, errs...)
}

func (m *MockClient) Publish(ctx context.Context, intent domain.Intent, remoteID string, payload []byte) (*PublishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls = append(m.PublishCalls, PublishCall{Intent: intent, RemoteID: remoteID, Payload: payload})

	if len(m.PublishErrs) > 0 {
		err := m.PublishErrs[0]
		m.PublishErrs = m.PublishErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	switch intent {
	case domain.IntentUpdate, domain.IntentDelete:
		if remoteID == "" {
			return nil, &Error{Message: fmt.Sprintf("remote id required for %s", intent), Transient: false}
		}
	default:
		if remoteID == "" {
			m.nextID++
			remoteID = fmt.Sprintf("mock-%d", m.nextID)
		}
	}

	if intent == domain.IntentDelete {
		delete(m.listings, remoteID)
	} else {
		m.listings[remoteID] = payload
	}
	return &PublishResult{RemoteID: remoteID}, nil
}

func (m *MockClient) FetchListing(ctx context.Context, remoteID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	doc, ok := m.listings[remoteID]
	if !ok {
		return nil, &Error{StatusCode: 404, Message: "listing not found", Transient: false}
	}
	return doc, nil
}

func (m *MockClient) FetchPolicy(ctx context.Context, policyType, remoteID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PolicyErr != nil {
		return nil, m.PolicyErr
	}
	doc, ok := m.policies[policyType+"/"+remoteID]
	if !ok {
		return nil, &Error{StatusCode: 404, Message: "policy not found", Transient: false}
	}
	return doc, nil
}

func (m *MockClient) FetchInventory(ctx context.Context, limit int) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InventoryErr != nil {
		return nil, m.InventoryErr
	}
	items := m.InventoryItems
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
