// this file runs the chat polling loop of the bot
package main

import (
	"log"
	"time"

	"github.com/pkg/errors"
)

type Bot struct {
	messenger  Messenger
	dispatcher *Dispatcher

	userID   string
	teamName string
	interval time.Duration
	backoff  time.Duration

	// newest processed post per channel, volatile across restarts
	lastPostAt map[string]int64
	stopChan   chan struct{}
}

func NewBot(messenger Messenger, dispatcher *Dispatcher, teamName string, interval, backoff time.Duration) *Bot {
	return &Bot{
		messenger:  messenger,
		dispatcher: dispatcher,
		teamName:   teamName,
		interval:   interval,
		backoff:    backoff,
		lastPostAt: make(map[string]int64),
		stopChan:   make(chan struct{}),
	}
}

// Start resolves the bot identity and its channels, then processes messages
// until Shutdown. It only returns an error when the initial login fails;
// once the loop is running, failures are logged and retried forever.
func (b *Bot) Start() error {
	log.Println("starting voting bot...")

	me, err := b.messenger.Me()
	if err != nil {
		return errors.Wrap(err, "resolve bot user")
	}
	b.userID = me.ID
	log.Printf("bot is running as: %s (ID: %s)", me.Username, me.ID)

	team, err := b.messenger.TeamByName(b.teamName)
	if err != nil {
		return errors.Wrapf(err, "resolve team %q", b.teamName)
	}

	channels, err := b.messenger.ChannelsForUser(b.userID, team.ID)
	if err != nil {
		return errors.Wrap(err, "list channels")
	}

	log.Println("starting message processing loop over", len(channels), "channels")
	b.loop(channels)
	return nil
}

func (b *Bot) loop(channels []MMChannel) {
	for {
		select {
		case <-b.stopChan:
			log.Println("bot loop stopped")
			return
		default:
		}

		if err := b.pollChannels(channels); err != nil {
			log.Println("error in main loop:", err)
			time.Sleep(b.backoff)
			continue
		}
		time.Sleep(b.interval)
	}
}

// pollChannels does one pass over all channels and dispatches any post
// newer than the channel high-water mark.
func (b *Bot) pollChannels(channels []MMChannel) error {
	for _, channel := range channels {
		post, err := b.messenger.LatestPost(channel.ID)
		if err != nil {
			return err
		}
		if post == nil {
			continue
		}

		if last, seen := b.lastPostAt[channel.ID]; seen && post.CreateAt <= last {
			continue
		}
		b.lastPostAt[channel.ID] = post.CreateAt

		if post.UserID == b.userID {
			continue
		}

		b.handlePost(channel.ID, post)
	}
	return nil
}

func (b *Bot) handlePost(channelID string, post *MMPost) {
	reply, ok := b.dispatcher.HandleMessage(post.Message, channelID, post.UserID)
	if !ok || reply == "" {
		return
	}
	if err := b.messenger.CreatePost(channelID, reply); err != nil {
		log.Println("failed to send reply:", err)
	}
}

func (b *Bot) Shutdown() {
	close(b.stopChan)
}
