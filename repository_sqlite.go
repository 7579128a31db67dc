package main

import (
	"database/sql"
	"log"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLiteRepository struct {
	db *sql.DB
}

func (r *SQLiteRepository) CreatePoll(poll Poll) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin create poll")
	}

	_, err = tx.Exec(`insert into polls (id, creator_id, question, channel_id, is_active) values (?, ?, ?, ?, ?)`,
		poll.ID, poll.CreatorID, poll.Question, poll.ChannelID, poll.IsActive)
	if err != nil {
		tx.Rollback()
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrPollExists
		}
		return errors.Wrap(err, "insert poll")
	}

	for i, opt := range poll.Options {
		_, err = tx.Exec(`insert into poll_options (poll_id, num, text, count) values (?, ?, ?, ?)`,
			poll.ID, i+1, opt.Text, opt.Count)
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert poll option")
		}
	}

	return errors.Wrap(tx.Commit(), "commit create poll")
}

func (r *SQLiteRepository) GetPoll(id string) (*Poll, error) {
	p := Poll{}
	err := r.db.QueryRow(`select id, creator_id, question, channel_id, is_active from polls where id=?`, id).
		Scan(&p.ID, &p.CreatorID, &p.Question, &p.ChannelID, &p.IsActive)
	if err == sql.ErrNoRows {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select poll")
	}

	rows, err := r.db.Query(`select text, count from poll_options where poll_id=? order by num`, id)
	if err != nil {
		return nil, errors.Wrap(err, "select poll options")
	}
	defer rows.Close()

	for rows.Next() {
		opt := PollOption{}
		if err = rows.Scan(&opt.Text, &opt.Count); err != nil {
			return nil, errors.Wrap(err, "scan poll option")
		}
		p.Options = append(p.Options, opt)
	}

	return &p, errors.Wrap(rows.Err(), "iterate poll options")
}

func (r *SQLiteRepository) IncrementOption(pollID string, option int) error {
	res, err := r.db.Exec(`update poll_options set count = count + 1 where poll_id=? and num=?`, pollID, option)
	if err != nil {
		return errors.Wrap(err, "increment option")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidOption
	}
	return nil
}

func (r *SQLiteRepository) SetPollActive(pollID string, active bool) error {
	res, err := r.db.Exec(`update polls set is_active=? where id=?`, active, pollID)
	if err != nil {
		return errors.Wrap(err, "set poll active")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPollNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeletePoll(pollID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin delete poll")
	}

	if _, err = tx.Exec(`delete from poll_options where poll_id=?`, pollID); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "delete poll options")
	}

	res, err := tx.Exec(`delete from polls where id=?`, pollID)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "delete poll")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return ErrPollNotFound
	}

	return errors.Wrap(tx.Commit(), "commit delete poll")
}

func (r *SQLiteRepository) HasReceipt(pollID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`select exists(select 1 from receipts where poll_id=? and user_id=?)`, pollID, userID).
		Scan(&exists)
	return exists, errors.Wrap(err, "check receipt")
}

func (r *SQLiteRepository) InsertReceiptIfAbsent(pollID, userID string) (bool, error) {
	res, err := r.db.Exec(`insert or ignore into receipts (poll_id, user_id) values (?, ?)`, pollID, userID)
	if err != nil {
		return false, errors.Wrap(err, "insert receipt")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "insert receipt result")
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteReceiptsForPoll(pollID string) error {
	_, err := r.db.Exec(`delete from receipts where poll_id=?`, pollID)
	return errors.Wrap(err, "delete receipts")
}

func (r *SQLiteRepository) close() {
	r.db.Close()
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	if filePath == "" {
		filePath = "db.sqlite3"
	}
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	log.Println("using sqlite database at", filePath)

	// make sure the required tables exist
	// if not then create them
	tables := []string{
		`create table if not exists polls (
			id text primary key,
			creator_id text not null,
			question text not null,
			channel_id text,
			is_active boolean not null default true
		)`,
		`create table if not exists poll_options (
			poll_id text not null,
			num integer not null,
			text text not null,
			count integer not null default 0,
			primary key (poll_id, num)
		)`,
		`create table if not exists receipts (
			poll_id text not null,
			user_id text not null,
			unique (poll_id, user_id)
		)`,
	}

	for _, t := range tables {
		if _, err = db.Exec(t); err != nil {
			return nil, errors.Wrap(err, "create tables")
		}
	}

	return &SQLiteRepository{db: db}, nil
}
