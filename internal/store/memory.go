package store

import (
	"context"
	"sync"
	"time"

	"github.com/cccrawl/crawler/internal/model"
)

// InMemoryStore is a Store implementation backed by process memory. It
// exists for tests: the Manager and store test suites need a Store
// double that doesn't require a running mongo instance.
type InMemoryStore struct {
	mu           sync.Mutex
	integrations map[string]model.Integration
	submissions  map[string]model.Submission
	configs      map[string]model.UserConfig
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		integrations: make(map[string]model.Integration),
		submissions:  make(map[string]model.Submission),
		configs:      make(map[string]model.UserConfig),
	}
}

func (s *InMemoryStore) Integrations(ctx context.Context) (<-chan model.Integration, <-chan error) {
	out := make(chan model.Integration)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		for {
			s.mu.Lock()
			snapshot := make([]model.Integration, 0, len(s.integrations))
			for _, i := range s.integrations {
				snapshot = append(snapshot, i)
			}
			s.mu.Unlock()

			for _, i := range snapshot {
				select {
				case out <- i:
				case <-ctx.Done():
					return
				}
			}

			if len(snapshot) == 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Millisecond):
				}
			}
		}
	}()

	return out, errs
}

func (s *InMemoryStore) UpsertIntegration(ctx context.Context, integration model.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrations[integration.ID] = integration
	return nil
}

func (s *InMemoryStore) UpsertSubmission(ctx context.Context, submission model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[submission.ID] = submission
	return nil
}

func (s *InMemoryStore) CollectedSubmissionIDs(ctx context.Context, integrationID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, sub := range s.submissions {
		if sub.IntegrationID == integrationID {
			ids = append(ids, sub.ID)
		}
	}
	return ids, nil
}

func (s *InMemoryStore) FindSubmission(ctx context.Context, id string) (model.Submission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	return sub, ok, nil
}

func (s *InMemoryStore) UpsertUserConfig(ctx context.Context, config model.UserConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.UID] = config
	return nil
}

// Submission returns the stored submission by id, for test assertions.
func (s *InMemoryStore) Submission(id string) (model.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	return sub, ok
}

// Integration returns the stored integration by id, for test assertions.
func (s *InMemoryStore) Integration(id string) (model.Integration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.integrations[id]
	return i, ok
}
