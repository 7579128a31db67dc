package main

import (
	"database/sql"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const pqUniqueViolation = "23505"

type PostgresRepository struct {
	db *sqlx.DB
}

func (r *PostgresRepository) CreatePoll(poll Poll) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin create poll")
	}

	query := `
	  insert into polls (id, creator_id, question, channel_id, is_active)
	  values ($1, $2, $3, $4, $5);`

	_, err = tx.Exec(query, poll.ID, poll.CreatorID, poll.Question, poll.ChannelID, poll.IsActive)
	if err != nil {
		tx.Rollback()
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return ErrPollExists
		}
		return errors.Wrap(err, "insert poll")
	}

	optQuery := `
	  insert into poll_options (poll_id, num, text, count)
	  values ($1, $2, $3, $4);`

	for i, opt := range poll.Options {
		if _, err = tx.Exec(optQuery, poll.ID, i+1, opt.Text, opt.Count); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert poll option")
		}
	}

	return errors.Wrap(tx.Commit(), "commit create poll")
}

func (r *PostgresRepository) GetPoll(id string) (*Poll, error) {
	query := `
	  select id, creator_id, question, channel_id, is_active
	  from polls where id=$1;`

	p := Poll{}
	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.CreatorID, &p.Question, &p.ChannelID, &p.IsActive)
	if err == sql.ErrNoRows {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select poll")
	}

	rows, err := r.db.Query(`select text, count from poll_options where poll_id=$1 order by num;`, id)
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

func (r *PostgresRepository) IncrementOption(pollID string, option int) error {
	query := `update poll_options set count = count + 1 where poll_id=$1 and num=$2;`

	res, err := r.db.Exec(query, pollID, option)
	if err != nil {
		return errors.Wrap(err, "increment option")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidOption
	}
	return nil
}

func (r *PostgresRepository) SetPollActive(pollID string, active bool) error {
	res, err := r.db.Exec(`update polls set is_active=$2 where id=$1;`, pollID, active)
	if err != nil {
		return errors.Wrap(err, "set poll active")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPollNotFound
	}
	return nil
}

func (r *PostgresRepository) DeletePoll(pollID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin delete poll")
	}

	if _, err = tx.Exec(`delete from poll_options where poll_id=$1;`, pollID); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "delete poll options")
	}

	res, err := tx.Exec(`delete from polls where id=$1;`, pollID)
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

func (r *PostgresRepository) HasReceipt(pollID, userID string) (bool, error) {
	var exists bool
	query := `select exists(select 1 from receipts where poll_id=$1 and user_id=$2);`

	err := r.db.QueryRow(query, pollID, userID).Scan(&exists)
	return exists, errors.Wrap(err, "check receipt")
}

func (r *PostgresRepository) InsertReceiptIfAbsent(pollID, userID string) (bool, error) {
	query := `
	  insert into receipts (poll_id, user_id)
	  values ($1, $2)
      on conflict (poll_id, user_id) do nothing;`

	res, err := r.db.Exec(query, pollID, userID)
	if err != nil {
		return false, errors.Wrap(err, "insert receipt")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "insert receipt result")
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteReceiptsForPoll(pollID string) error {
	_, err := r.db.Exec(`delete from receipts where poll_id=$1;`, pollID)
	return errors.Wrap(err, "delete receipts")
}

func (r *PostgresRepository) close() {
	r.db.Close()
}

func NewPostgresRepository(dbUrl string) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", dbUrl)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	log.Println("connected to db. creating tables if needed")

	// make sure the required tables exist
	// if not then create them
	pollsTable := `
	  create table if not exists polls (
		id text primary key,
		creator_id text not null,
		question text not null,
		channel_id text,
		is_active boolean not null default true
	  );`
	optionsTable := `
	  create table if not exists poll_options (
		poll_id text not null,
		num integer not null,
		text text not null,
		count integer not null default 0,
		constraint poll_option_pk primary key (poll_id, num)
	  );`
	receiptsTable := `
	  create table if not exists receipts (
		poll_id text not null,
		user_id text not null,
		constraint unq unique (poll_id, user_id)
	  );`

	tables := []string{pollsTable, optionsTable, receiptsTable}

	for _, t := range tables {
		if _, err = db.Exec(t); err != nil {
			return nil, errors.Wrap(err, "create tables")
		}
	}

	return &PostgresRepository{db: db}, nil
}
