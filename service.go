package main

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	pollIDLength  = 8
	maxIDAttempts = 5
)

type VoteService interface {
	CreatePoll(question string, choices []string, creatorID, channelID string) (*Poll, error)
	GetPoll(pollID string) (*Poll, error)
	CastVote(pollID string, option int, userID string) error
	Results(pollID string) (*PollResults, error)
	EndPoll(pollID, requesterID string) (*PollResults, error)
	DeletePoll(pollID, requesterID string) error
	close()
}

type VoteServiceImpl struct {
	pollRepo    PollRepository
	receiptRepo ReceiptRepository
}

func (s *VoteServiceImpl) CreatePoll(question string, choices []string, creatorID, channelID string) (*Poll, error) {
	question = strings.TrimSpace(question)

	if err := ValidateStruct(CreatePollRequest{Question: question, Choices: choices}); err != nil {
		switch {
		case question == "":
			return nil, ErrQuestionMissing
		case len(choices) == 0:
			return nil, ErrChoicesMissing
		default:
			return nil, ErrNotEnoughChoices
		}
	}

	options := make([]PollOption, len(choices))
	for i, choice := range choices {
		options[i] = PollOption{Text: choice}
	}

	// short ids can collide, regenerate a few times before giving up
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		poll := &Poll{
			ID:        uuid.New().String()[:pollIDLength],
			CreatorID: creatorID,
			Question:  question,
			ChannelID: channelID,
			IsActive:  true,
			Options:   options,
		}

		err := s.pollRepo.CreatePoll(*poll)
		if errors.Is(err, ErrPollExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return poll, nil
	}

	return nil, errors.New("could not allocate a unique poll id")
}

func (s *VoteServiceImpl) GetPoll(pollID string) (*Poll, error) {
	return s.pollRepo.GetPoll(pollID)
}

// CastVote admits a vote after checking, in order: the poll exists, it is
// still active, the option number is valid, the user has not voted yet.
// The receipt insert is the atomic gate, so two racing votes by the same
// user can never both reach the increment.
func (s *VoteServiceImpl) CastVote(pollID string, option int, userID string) error {
	poll, err := s.pollRepo.GetPoll(pollID)
	if err != nil {
		return err
	}
	if !poll.IsActive {
		return ErrPollEnded
	}
	if option < 1 || option > len(poll.Options) {
		return ErrInvalidOption
	}

	inserted, err := s.receiptRepo.InsertReceiptIfAbsent(pollID, userID)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyVoted
	}

	return s.pollRepo.IncrementOption(pollID, option)
}

func (s *VoteServiceImpl) Results(pollID string) (*PollResults, error) {
	poll, err := s.pollRepo.GetPoll(pollID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, opt := range poll.Options {
		total += opt.Count
	}

	ranked := make([]RankedOption, len(poll.Options))
	for i, opt := range poll.Options {
		var percent float64
		if total > 0 {
			percent = float64(opt.Count) / float64(total) * 100
		}
		ranked[i] = RankedOption{
			Number:  i + 1,
			Text:    opt.Text,
			Count:   opt.Count,
			Percent: percent,
		}
	}

	// ties keep the original option numbering
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	return &PollResults{
		PollID:     poll.ID,
		Question:   poll.Question,
		IsActive:   poll.IsActive,
		TotalVotes: total,
		Ranked:     ranked,
	}, nil
}

// EndPoll closes the poll and returns its final results. Ending an already
// closed poll is a no-op success.
func (s *VoteServiceImpl) EndPoll(pollID, requesterID string) (*PollResults, error) {
	poll, err := s.pollRepo.GetPoll(pollID)
	if err != nil {
		return nil, err
	}
	if poll.CreatorID != requesterID {
		return nil, ErrNotCreator
	}

	if err := s.pollRepo.SetPollActive(pollID, false); err != nil {
		return nil, err
	}

	return s.Results(pollID)
}

func (s *VoteServiceImpl) DeletePoll(pollID, requesterID string) error {
	poll, err := s.pollRepo.GetPoll(pollID)
	if err != nil {
		return err
	}
	if poll.CreatorID != requesterID {
		return ErrNotCreator
	}

	if err := s.pollRepo.DeletePoll(pollID); err != nil {
		return err
	}
	return s.receiptRepo.DeleteReceiptsForPoll(pollID)
}

func (s *VoteServiceImpl) close() {
	s.pollRepo.close()
	s.receiptRepo.close()
}
