package main

import (
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"
)

func main() {

	var (
		pollRepo    PollRepository
		receiptRepo ReceiptRepository

		pgdb     *PostgresRepository
		sqlitedb *SQLiteRepository

		voteService VoteService
		dispatcher  *Dispatcher
		bot         *Bot
		wg          sync.WaitGroup
	)

	cfg := NewConfig()
	log.Println("database url", cfg.DBURL)

	u, err := url.Parse(cfg.DBURL)
	if err != nil {
		log.Fatal("invalid DB_URL: ", err)
	}
	switch u.Scheme {
	case "sqlite":
		sqlitedb, err = NewSQLiteRepository(u.Hostname())
		if err != nil {
			log.Fatal("failed to open sqlite database: ", err)
		}
		pollRepo = sqlitedb
		receiptRepo = sqlitedb

	case "postgres":
		pgdb, err = NewPostgresRepository(cfg.DBURL)
		if err != nil {
			log.Fatal("failed to connect to postgres: ", err)
		}
		pollRepo = pgdb
		receiptRepo = pgdb

	default:
		memdb := NewMemoryRepository()
		pollRepo = memdb
		receiptRepo = memdb
	}

	voteService = &VoteServiceImpl{
		pollRepo:    pollRepo,
		receiptRepo: receiptRepo,
	}
	defer voteService.close()

	dispatcher = NewDispatcher(voteService)

	messenger := NewMattermostClient(cfg.MattermostURL, cfg.MattermostToken)
	bot = NewBot(messenger, dispatcher, cfg.TeamName,
		time.Duration(cfg.PollIntervalSec)*time.Second,
		time.Duration(cfg.BackoffSec)*time.Second)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if startErr := bot.Start(); startErr != nil {
			log.Println("bot stopped:", startErr)
		}
	}()
	defer bot.Shutdown()

	echoRouter := NewHTTPRouter(voteService, cfg.JwtSecret)
	echoRouter.Start(":" + strconv.Itoa(cfg.Port))
	wg.Wait()
}
