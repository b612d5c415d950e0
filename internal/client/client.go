package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"gocommunity/internal/feed"
	"gocommunity/internal/models"
)

// Client talks to the community API over HTTP and implements feed.Gateway.
// The session cookie set at sign in is carried by the jar on every
// subsequent request, including the websocket upgrade.
type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	ws          *wsConn
	subscribers map[string]map[int]func(feed.Event)
	nextSub     int
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
		subscribers: make(map[string]map[int]func(feed.Event)),
	}, nil
}

// SetTransport replaces the underlying transport, for servers running on
// self-signed certificates.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

type signUpBody struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Niche       string `json:"niche"`
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", signUpBody{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}, &out)
	return out.User, err
}

func (c *Client) SignIn(ctx context.Context, email, password string) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out.User, err
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/signout", nil, nil)
}

func (c *Client) Session(ctx context.Context) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/auth/verify", nil, &out)
	return out.User, err
}

func (c *Client) ListCategories(ctx context.Context) ([]models.ChatCategory, error) {
	var out struct {
		Categories []models.ChatCategory `json:"categories"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/community/categories", nil, &out)
	return out.Categories, err
}

func (c *Client) ListMessages(ctx context.Context, categoryID string) ([]models.Message, error) {
	p := "/community/messages"
	if categoryID != "" {
		p += "?category=" + url.QueryEscape(categoryID)
	}
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	err := c.doJSON(ctx, http.MethodGet, p, nil, &out)
	return out.Messages, err
}

func (c *Client) GetMessage(ctx context.Context, id string) (models.Message, error) {
	var out struct {
		Message models.Message `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/community/messages/"+url.PathEscape(id), nil, &out)
	return out.Message, err
}

type createMessageBody struct {
	Content    string `json:"content"`
	CategoryId string `json:"category_id"`
}

func (c *Client) InsertMessage(ctx context.Context, message models.Message, image io.Reader, imageName string) (models.Message, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	body, err := json.Marshal(createMessageBody{
		Content:    message.Content,
		CategoryId: message.CategoryId,
	})
	if err != nil {
		return models.Message{}, err
	}
	if err := form.WriteField("body", string(body)); err != nil {
		return models.Message{}, err
	}

	if image != nil {
		part, err := form.CreateFormFile("image", imageName)
		if err != nil {
			return models.Message{}, err
		}
		if _, err := io.Copy(part, image); err != nil {
			return models.Message{}, err
		}
	}

	if err := form.Close(); err != nil {
		return models.Message{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/community/messages", &buf)
	if err != nil {
		return models.Message{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var out struct {
		Message models.Message `json:"message"`
	}
	err = c.send(req, &out)
	return out.Message, err
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/community/messages/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SetPinned(ctx context.Context, id string, pinned bool) error {
	return c.doJSON(ctx, http.MethodPatch, "/community/messages/"+url.PathEscape(id)+"/pin", map[string]bool{
		"pinned": pinned,
	}, nil)
}

func (c *Client) IncrementLikes(ctx context.Context, id string) (int, error) {
	var out struct {
		LikeCount int `json:"like_count"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/community/messages/"+url.PathEscape(id)+"/like", nil, &out)
	return out.LikeCount, err
}

func (c *Client) InsertComment(ctx context.Context, comment models.Comment) error {
	return c.doJSON(ctx, http.MethodPost, "/community/messages/"+url.PathEscape(comment.MessageId)+"/comments", map[string]string{
		"content": comment.Content,
	}, nil)
}

func (c *Client) ListPolls(ctx context.Context, categoryID string) ([]models.Poll, error) {
	p := "/community/polls"
	if categoryID != "" {
		p += "?category=" + url.QueryEscape(categoryID)
	}
	var out struct {
		Polls []models.Poll `json:"polls"`
	}
	err := c.doJSON(ctx, http.MethodGet, p, nil, &out)
	return out.Polls, err
}

func (c *Client) ListPollOptions(ctx context.Context, pollIDs []string) ([]models.PollOption, error) {
	if len(pollIDs) == 0 {
		return []models.PollOption{}, nil
	}
	var out struct {
		Options []models.PollOption `json:"options"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/community/poll-options?polls="+url.QueryEscape(strings.Join(pollIDs, ",")), nil, &out)
	return out.Options, err
}

func (c *Client) ListPollVotes(ctx context.Context, optionIDs []string) ([]models.PollVote, error) {
	if len(optionIDs) == 0 {
		return []models.PollVote{}, nil
	}
	var out struct {
		Votes []models.PollVote `json:"votes"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/community/poll-votes?options="+url.QueryEscape(strings.Join(optionIDs, ",")), nil, &out)
	return out.Votes, err
}

type createPollBody struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	CategoryId string   `json:"category_id"`
	ExpiresAt  string   `json:"expires_at,omitempty"`
}

func (c *Client) CreatePoll(ctx context.Context, poll models.Poll, options []string) (models.Poll, error) {
	var out struct {
		Poll models.Poll `json:"poll"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/community/polls", createPollBody{
		Question:   poll.Question,
		Options:    options,
		CategoryId: poll.CategoryId,
		ExpiresAt:  poll.ExpiresAt,
	}, &out)
	return out.Poll, err
}

func (c *Client) InsertVote(ctx context.Context, pollID, optionID string) error {
	return c.doJSON(ctx, http.MethodPost, "/community/polls/"+url.PathEscape(pollID)+"/votes", map[string]string{
		"option_id": optionID,
	}, nil)
}

func (c *Client) DeletePoll(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/community/polls/"+url.PathEscape(id), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		return apiError(res, feed.ErrAuthenticationRequired)
	}
	if res.StatusCode == http.StatusForbidden {
		return apiError(res, feed.ErrUnauthorized)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return apiError(res, nil)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func apiError(res *http.Response, sentinel error) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err == nil && payload.Message != "" {
		if sentinel != nil {
			return fmt.Errorf("%s: %w", payload.Message, sentinel)
		}
		return errors.New(payload.Message)
	}
	if sentinel != nil {
		return sentinel
	}
	return fmt.Errorf("unexpected status %d", res.StatusCode)
}
