package main

import "sync"

// MemoryRepository keeps everything in process memory behind one mutex.
// It backs the memory:// DB_URL scheme and the tests.
type MemoryRepository struct {
	mu       sync.Mutex
	polls    map[string]*Poll
	receipts map[string]map[string]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		polls:    make(map[string]*Poll),
		receipts: make(map[string]map[string]bool),
	}
}

func (r *MemoryRepository) CreatePoll(poll Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.polls[poll.ID]; exists {
		return ErrPollExists
	}

	stored := poll
	stored.Options = append([]PollOption(nil), poll.Options...)
	r.polls[poll.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetPoll(id string) (*Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[id]
	if !ok {
		return nil, ErrPollNotFound
	}

	// hand out a copy so callers cannot mutate the store
	copied := *stored
	copied.Options = append([]PollOption(nil), stored.Options...)
	return &copied, nil
}

func (r *MemoryRepository) IncrementOption(pollID string, option int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[pollID]
	if !ok {
		return ErrPollNotFound
	}
	if option < 1 || option > len(stored.Options) {
		return ErrInvalidOption
	}
	stored.Options[option-1].Count++
	return nil
}

func (r *MemoryRepository) SetPollActive(pollID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[pollID]
	if !ok {
		return ErrPollNotFound
	}
	stored.IsActive = active
	return nil
}

func (r *MemoryRepository) DeletePoll(pollID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.polls[pollID]; !ok {
		return ErrPollNotFound
	}
	delete(r.polls, pollID)
	return nil
}

func (r *MemoryRepository) HasReceipt(pollID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.receipts[pollID][userID], nil
}

func (r *MemoryRepository) InsertReceiptIfAbsent(pollID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	voters, ok := r.receipts[pollID]
	if !ok {
		voters = make(map[string]bool)
		r.receipts[pollID] = voters
	}
	if voters[userID] {
		return false, nil
	}
	voters[userID] = true
	return true, nil
}

func (r *MemoryRepository) DeleteReceiptsForPoll(pollID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.receipts, pollID)
	return nil
}

func (r *MemoryRepository) close() {}
