// this file implements the Mattermost REST client used by the bot
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type MMUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type MMTeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MMChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MMPost struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	CreateAt int64  `json:"create_at"`
}

// Messenger is the slice of the chat platform the bot needs.
type Messenger interface {
	Me() (*MMUser, error)
	TeamByName(name string) (*MMTeam, error)
	ChannelsForUser(userID, teamID string) ([]MMChannel, error)
	LatestPost(channelID string) (*MMPost, error)
	CreatePost(channelID, message string) error
}

type MattermostClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewMattermostClient(baseURL, token string) *MattermostClient {
	return &MattermostClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *MattermostClient) get(path string, target interface{}) error {
	req, err := http.NewRequest("GET", m.baseURL+"/api/v4"+path, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "mattermost request")
	}
	defer resp.Body.Close()

	respText, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("mattermost returned %d for %s", resp.StatusCode, path)
	}

	return errors.Wrap(json.Unmarshal(respText, target), "decode response")
}

func (m *MattermostClient) Me() (*MMUser, error) {
	user := &MMUser{}
	if err := m.get("/users/me", user); err != nil {
		return nil, err
	}
	return user, nil
}

func (m *MattermostClient) TeamByName(name string) (*MMTeam, error) {
	team := &MMTeam{}
	if err := m.get("/teams/name/"+name, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (m *MattermostClient) ChannelsForUser(userID, teamID string) ([]MMChannel, error) {
	channels := make([]MMChannel, 0)
	path := fmt.Sprintf("/users/%s/teams/%s/channels", userID, teamID)
	if err := m.get(path, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// LatestPost returns the newest post in the channel, or nil when the
// channel has no posts yet.
func (m *MattermostClient) LatestPost(channelID string) (*MMPost, error) {
	response := struct {
		Order []string          `json:"order"`
		Posts map[string]MMPost `json:"posts"`
	}{}

	path := fmt.Sprintf("/channels/%s/posts?per_page=10", channelID)
	if err := m.get(path, &response); err != nil {
		return nil, err
	}

	var latest *MMPost
	for id := range response.Posts {
		post := response.Posts[id]
		if latest == nil || post.CreateAt > latest.CreateAt {
			latest = &post
		}
	}
	return latest, nil
}

func (m *MattermostClient) CreatePost(channelID, message string) error {
	payload, err := json.Marshal(map[string]string{
		"channel_id": channelID,
		"message":    message,
	})
	if err != nil {
		return errors.Wrap(err, "encode post")
	}

	req, err := http.NewRequest("POST", m.baseURL+"/api/v4/posts", bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "mattermost request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return errors.Errorf("mattermost returned %d creating post", resp.StatusCode)
	}
	return nil
}
