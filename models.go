// this file defines the data structures used throughout the bot
package main

import "errors"

var (
	ErrPollExists       = errors.New("a poll with this id already exists")
	ErrPollNotFound     = errors.New("poll not found")
	ErrPollEnded        = errors.New("poll is already closed")
	ErrAlreadyVoted     = errors.New("you have already voted in this poll")
	ErrInvalidOption    = errors.New("no such option in this poll")
	ErrNotCreator       = errors.New("only the poll creator can do this")
	ErrQuestionMissing  = errors.New("question (-q) is missing")
	ErrChoicesMissing   = errors.New("choices (-c) are missing")
	ErrNotEnoughChoices = errors.New("at least 2 choices are required")
)

type Poll struct {
	ID        string       `json:"id" db:"id"`
	CreatorID string       `json:"creator_id" db:"creator_id"`
	Question  string       `json:"question" db:"question"`
	ChannelID string       `json:"channel_id" db:"channel_id"`
	IsActive  bool         `json:"is_active" db:"is_active"`
	Options   []PollOption `json:"options"`
}

// PollOption at index i of Poll.Options is option number i+1 everywhere
// users see it.
type PollOption struct {
	Text  string `json:"text" db:"text"`
	Count int64  `json:"count" db:"count"`
}

// Receipt records that a user has already voted in a poll.
type Receipt struct {
	PollID string `json:"poll_id" db:"poll_id"`
	UserID string `json:"user_id" db:"user_id"`
}

type RankedOption struct {
	Number  int     `json:"number"`
	Text    string  `json:"text"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type PollResults struct {
	PollID     string         `json:"poll_id"`
	Question   string         `json:"question"`
	IsActive   bool           `json:"is_active"`
	TotalVotes int64          `json:"total_votes"`
	Ranked     []RankedOption `json:"ranked"`
}
