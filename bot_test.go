package main

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	me       MMUser
	team     MMTeam
	channels []MMChannel

	latest     map[string]*MMPost
	latestErr  error
	sent       []MMPost
	createErr  error
	latestHits int
}

func (f *fakeMessenger) Me() (*MMUser, error) { return &f.me, nil }

func (f *fakeMessenger) TeamByName(string) (*MMTeam, error) { return &f.team, nil }

func (f *fakeMessenger) ChannelsForUser(string, string) ([]MMChannel, error) {
	return f.channels, nil
}

func (f *fakeMessenger) LatestPost(channelID string) (*MMPost, error) {
	f.latestHits++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest[channelID], nil
}

func (f *fakeMessenger) CreatePost(channelID, message string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.sent = append(f.sent, MMPost{UserID: "bot", Message: message})
	return nil
}

func newTestBot(fake *fakeMessenger) *Bot {
	s, _ := newTestService()
	bot := NewBot(fake, NewDispatcher(s), "vk", 0, 0)
	bot.userID = "bot"
	return bot
}

func TestBotRepliesToCommands(t *testing.T) {
	fake := &fakeMessenger{
		latest: map[string]*MMPost{
			"ch1": {UserID: "alice", Message: "!vote results missing", CreateAt: 100},
		},
	}
	bot := newTestBot(fake)

	require.NoError(t, bot.pollChannels([]MMChannel{{ID: "ch1"}}))

	require.Len(t, fake.sent, 1)
	assert.Contains(t, fake.sent[0].Message, "Poll not found")
}

func TestBotHighWaterMark(t *testing.T) {
	fake := &fakeMessenger{
		latest: map[string]*MMPost{
			"ch1": {UserID: "alice", Message: "!vote results missing", CreateAt: 100},
		},
	}
	bot := newTestBot(fake)
	channels := []MMChannel{{ID: "ch1"}}

	require.NoError(t, bot.pollChannels(channels))
	require.NoError(t, bot.pollChannels(channels))
	assert.Len(t, fake.sent, 1, "an already processed post must not be handled twice")

	// an older post must not be processed either
	fake.latest["ch1"] = &MMPost{UserID: "alice", Message: "!vote results missing", CreateAt: 50}
	require.NoError(t, bot.pollChannels(channels))
	assert.Len(t, fake.sent, 1)

	// only a strictly newer post is
	fake.latest["ch1"] = &MMPost{UserID: "alice", Message: "!vote results missing", CreateAt: 200}
	require.NoError(t, bot.pollChannels(channels))
	assert.Len(t, fake.sent, 2)
}

func TestBotIgnoresOwnPosts(t *testing.T) {
	fake := &fakeMessenger{
		latest: map[string]*MMPost{
			"ch1": {UserID: "bot", Message: "!vote results missing", CreateAt: 100},
		},
	}
	bot := newTestBot(fake)

	require.NoError(t, bot.pollChannels([]MMChannel{{ID: "ch1"}}))
	assert.Empty(t, fake.sent)

	// but the high-water mark still advances past our own post
	fake.latest["ch1"].UserID = "alice"
	require.NoError(t, bot.pollChannels([]MMChannel{{ID: "ch1"}}))
	assert.Empty(t, fake.sent)
}

func TestBotIgnoresChatter(t *testing.T) {
	fake := &fakeMessenger{
		latest: map[string]*MMPost{
			"ch1": {UserID: "alice", Message: "lunch anyone?", CreateAt: 100},
			"ch2": nil,
		},
	}
	bot := newTestBot(fake)

	require.NoError(t, bot.pollChannels([]MMChannel{{ID: "ch1"}, {ID: "ch2"}}))
	assert.Empty(t, fake.sent)
}

func TestBotSurfacesTransportErrors(t *testing.T) {
	fake := &fakeMessenger{latestErr: errors.New("connection refused")}
	bot := newTestBot(fake)

	err := bot.pollChannels([]MMChannel{{ID: "ch1"}})
	assert.Error(t, err, "the loop needs the error to back off and retry")
}

func TestBotSendFailureIsIsolated(t *testing.T) {
	fake := &fakeMessenger{
		latest: map[string]*MMPost{
			"ch1": {UserID: "alice", Message: "!vote results missing", CreateAt: 100},
			"ch2": {UserID: "bob", Message: "!vote results missing", CreateAt: 100},
		},
		createErr: errors.New("posting disabled"),
	}
	bot := newTestBot(fake)

	// a failed reply is logged, not fatal; both channels are still polled
	require.NoError(t, bot.pollChannels([]MMChannel{{ID: "ch1"}, {ID: "ch2"}}))
	assert.Equal(t, 2, fake.latestHits)
}
