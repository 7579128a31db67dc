package main

type PollRepository interface {
	// CreatePoll fails with ErrPollExists when the id is already taken.
	CreatePoll(poll Poll) error
	GetPoll(id string) (*Poll, error)
	// IncrementOption adds one vote to the given 1-based option number.
	IncrementOption(pollID string, option int) error
	SetPollActive(pollID string, active bool) error
	DeletePoll(pollID string) error
	close()
}

type ReceiptRepository interface {
	HasReceipt(pollID, userID string) (bool, error)
	// InsertReceiptIfAbsent returns false when the receipt was already
	// there. The check and the insert are a single atomic step.
	InsertReceiptIfAbsent(pollID, userID string) (bool, error)
	DeleteReceiptsForPoll(pollID string) error
	close()
}
