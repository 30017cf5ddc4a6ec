package community

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements PollStore and CreditStore in process
type MemoryStore struct {
	mu      sync.RWMutex
	polls   map[string]Poll
	voters  map[string]map[string]bool
	credits map[string]Credits
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		polls:   make(map[string]Poll),
		voters:  make(map[string]map[string]bool),
		credits: make(map[string]Credits),
	}
}

func clonePoll(p Poll) Poll {
	p.Options = append([]string(nil), p.Options...)
	p.Votes = append([]int(nil), p.Votes...)
	return p
}

func (s *MemoryStore) CreatePoll(_ context.Context, p Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[p.ID]; ok {
		return fmt.Errorf("poll %s already exists", p.ID)
	}
	p = clonePoll(p)
	if len(p.Votes) != len(p.Options) {
		p.Votes = make([]int, len(p.Options))
	}
	s.polls[p.ID] = p
	s.voters[p.ID] = make(map[string]bool)
	return nil
}

func (s *MemoryStore) GetPoll(_ context.Context, id string) (Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.polls[id]
	if !ok {
		return Poll{}, fmt.Errorf("poll %s: %w", id, ErrPollNotFound)
	}
	return clonePoll(p), nil
}

// ListPolls returns polls newest first
func (s *MemoryStore) ListPolls(_ context.Context) ([]Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Poll, 0, len(s.polls))
	for _, p := range s.polls {
		out = append(out, clonePoll(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) RecordVote(_ context.Context, pollID, voterID string, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return fmt.Errorf("poll %s: %w", pollID, ErrPollNotFound)
	}
	if option < 0 || option >= len(p.Votes) {
		return fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}
	if s.voters[pollID][voterID] {
		return fmt.Errorf("poll %s voter %s: %w", pollID, voterID, ErrAlreadyVoted)
	}

	s.voters[pollID][voterID] = true
	p.Votes[option]++
	return nil
}

func (s *MemoryStore) AddSurvey(_ context.Context, farmerID string, reward int) (Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.credits[farmerID]
	c.FarmerID = farmerID
	c.Credits += reward
	c.Surveys++
	c.UpdatedAt = time.Now().UTC()
	s.credits[farmerID] = c
	return c, nil
}

func (s *MemoryStore) Credits(_ context.Context, farmerID string) (Credits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.credits[farmerID]; ok {
		return c, nil
	}
	return Credits{FarmerID: farmerID}, nil
}
