package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoll(id string) Poll {
	return Poll{
		ID:        id,
		CreatorID: "creator",
		Question:  "q?",
		ChannelID: "channel",
		IsActive:  true,
		Options:   []PollOption{{Text: "a"}, {Text: "b"}},
	}
}

func TestMemoryCreatePollDuplicate(t *testing.T) {
	repo := NewMemoryRepository()

	require.NoError(t, repo.CreatePoll(samplePoll("p1")))
	assert.ErrorIs(t, repo.CreatePoll(samplePoll("p1")), ErrPollExists)
}

func TestMemoryGetPollMissing(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.GetPoll("nope")
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestMemoryGetPollReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreatePoll(samplePoll("p1")))

	first, err := repo.GetPoll("p1")
	require.NoError(t, err)
	first.Options[0].Count = 99
	first.IsActive = false

	second, err := repo.GetPoll("p1")
	require.NoError(t, err)
	assert.Zero(t, second.Options[0].Count)
	assert.True(t, second.IsActive)
}

func TestMemoryIncrementOption(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreatePoll(samplePoll("p1")))

	require.NoError(t, repo.IncrementOption("p1", 2))
	assert.ErrorIs(t, repo.IncrementOption("p1", 0), ErrInvalidOption)
	assert.ErrorIs(t, repo.IncrementOption("p1", 3), ErrInvalidOption)
	assert.ErrorIs(t, repo.IncrementOption("nope", 1), ErrPollNotFound)

	poll, err := repo.GetPoll("p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), poll.Options[1].Count)
	assert.Zero(t, poll.Options[0].Count)
}

func TestMemorySetPollActive(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreatePoll(samplePoll("p1")))

	require.NoError(t, repo.SetPollActive("p1", false))
	poll, err := repo.GetPoll("p1")
	require.NoError(t, err)
	assert.False(t, poll.IsActive)

	assert.ErrorIs(t, repo.SetPollActive("nope", false), ErrPollNotFound)
}

func TestMemoryReceipts(t *testing.T) {
	repo := NewMemoryRepository()

	has, err := repo.HasReceipt("p1", "u1")
	require.NoError(t, err)
	assert.False(t, has)

	inserted, err := repo.InsertReceiptIfAbsent("p1", "u1")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertReceiptIfAbsent("p1", "u1")
	require.NoError(t, err)
	assert.False(t, inserted)

	has, err = repo.HasReceipt("p1", "u1")
	require.NoError(t, err)
	assert.True(t, has)

	// other users and other polls are unaffected
	inserted, err = repo.InsertReceiptIfAbsent("p1", "u2")
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = repo.InsertReceiptIfAbsent("p2", "u1")
	require.NoError(t, err)
	assert.True(t, inserted)

	require.NoError(t, repo.DeleteReceiptsForPoll("p1"))
	has, err = repo.HasReceipt("p1", "u1")
	require.NoError(t, err)
	assert.False(t, has)
	has, err = repo.HasReceipt("p2", "u1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryInsertReceiptRace(t *testing.T) {
	repo := NewMemoryRepository()

	const racers = 30
	var wg sync.WaitGroup
	winners := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := repo.InsertReceiptIfAbsent("p1", "u1")
			assert.NoError(t, err)
			winners <- inserted
		}()
	}
	wg.Wait()
	close(winners)

	won := 0
	for inserted := range winners {
		if inserted {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one racer may insert the receipt")
}
