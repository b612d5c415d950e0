package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gocommunity/internal/database"
	"gocommunity/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// stubDB overrides only the methods a test exercises; calling anything else
// panics through the nil embedded interface, which is what we want.
type stubDB struct {
	database.Service

	getUser        func(id, email string) (models.User, error)
	listCategories func() ([]models.ChatCategory, error)
	listMessages   func(categoryId string) ([]models.Message, error)
	getMessage     func(id string) (models.Message, error)
	deleteMessage  func(id string) error
	setPinned      func(id string, pinned bool) error
	incrementLikes func(id string) (int, error)
	createPoll     func(poll models.Poll, options []string) (models.Poll, error)
	createVote     func(optionId, userId string) error
	getWebhook     func(whType string) (models.Webhook, error)
	createSession  func(session models.Session) (models.Session, error)
	createLink     func(userId string) (string, error)
	redeemLink     func(token string) (string, error)
}

func (s *stubDB) GetUser(id, email string) (models.User, error) {
	return s.getUser(id, email)
}

func (s *stubDB) ListChatCategories() ([]models.ChatCategory, error) {
	return s.listCategories()
}

func (s *stubDB) ListMessages(categoryId string) ([]models.Message, error) {
	return s.listMessages(categoryId)
}

func (s *stubDB) GetMessage(id string) (models.Message, error) {
	return s.getMessage(id)
}

func (s *stubDB) DeleteMessage(id string) error {
	return s.deleteMessage(id)
}

func (s *stubDB) SetPinned(id string, pinned bool) error {
	return s.setPinned(id, pinned)
}

func (s *stubDB) IncrementLikes(id string) (int, error) {
	return s.incrementLikes(id)
}

func (s *stubDB) CreatePoll(poll models.Poll, options []string) (models.Poll, error) {
	return s.createPoll(poll, options)
}

func (s *stubDB) CreateVote(optionId, userId string) error {
	return s.createVote(optionId, userId)
}

func (s *stubDB) GetWebhookByType(whType string) (models.Webhook, error) {
	return s.getWebhook(whType)
}

func (s *stubDB) CreateSession(session models.Session) (models.Session, error) {
	return s.createSession(session)
}

func (s *stubDB) CreateMagicLink(userId string) (string, error) {
	return s.createLink(userId)
}

func (s *stubDB) RedeemMagicLink(token string) (string, error) {
	return s.redeemLink(token)
}

type stubMail struct {
	to   string
	link string
}

func (m *stubMail) SendMagicLink(email, url string) error {
	m.to = email
	m.link = url
	return nil
}

func newTestContext(method, target, body string, user *models.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set("user", *user)
	}
	return c, rec
}

func TestHandlerChatCategories(t *testing.T) {
	srv := &Server{db: &stubDB{
		listCategories: func() ([]models.ChatCategory, error) {
			return []models.ChatCategory{{ID: "chat_categories:g", Name: "General"}}, nil
		},
	}}

	c, rec := newTestContext(http.MethodGet, "/community/categories", "", nil)
	assert.NoError(t, srv.HandlerChatCategories(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"General"`)
}

func TestHandlerListMessagesFiltersByCategory(t *testing.T) {
	var gotCategory string
	srv := &Server{db: &stubDB{
		listMessages: func(categoryId string) ([]models.Message, error) {
			gotCategory = categoryId
			return []models.Message{}, nil
		},
	}}

	c, rec := newTestContext(http.MethodGet, "/community/messages?category=chat_categories:g", "", nil)
	assert.NoError(t, srv.HandlerListMessages(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chat_categories:g", gotCategory)
}

func TestHandlerSignUpRejectsInvalidEmail(t *testing.T) {
	srv := &Server{db: &stubDB{}}

	c, rec := newTestContext(http.MethodPost, "/auth/signup", `{"email":"not-an-email","password":"pw"}`, nil)
	assert.NoError(t, srv.HandlerSignUp(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "The format of the email is invalid.")
}

func TestHandlerSignUpRejectsTakenEmail(t *testing.T) {
	srv := &Server{db: &stubDB{
		getUser: func(id, email string) (models.User, error) {
			return models.User{ID: "profiles:existing", Email: email}, nil
		},
	}}

	c, rec := newTestContext(http.MethodPost, "/auth/signup", `{"email":"taken@example.com","password":"pw"}`, nil)
	assert.NoError(t, srv.HandlerSignUp(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "This email is unavailable.")
}

func TestHandlerMagicLinkSendsToken(t *testing.T) {
	mailer := &stubMail{}
	srv := &Server{
		db: &stubDB{
			getUser: func(id, email string) (models.User, error) {
				return models.User{ID: "profiles:me", Email: email}, nil
			},
			createLink: func(userId string) (string, error) {
				assert.Equal(t, "profiles:me", userId)
				return "t0k3n", nil
			},
		},
		mail: mailer,
	}

	c, rec := newTestContext(http.MethodPost, "/auth/magic-link", `{"email":"member@example.com"}`, nil)
	assert.NoError(t, srv.HandlerMagicLink(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "member@example.com", mailer.to)
	assert.Contains(t, mailer.link, "t0k3n")
}

func TestHandlerMagicLinkUnknownEmail(t *testing.T) {
	mailer := &stubMail{}
	srv := &Server{
		db: &stubDB{
			getUser: func(id, email string) (models.User, error) {
				return models.User{}, errors.New("not found")
			},
		},
		mail: mailer,
	}

	// same success response as a known address, and no mail goes out
	c, rec := newTestContext(http.MethodPost, "/auth/magic-link", `{"email":"stranger@example.com"}`, nil)
	assert.NoError(t, srv.HandlerMagicLink(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "success")
	assert.Empty(t, mailer.to)
}

func TestHandlerMagicLinkRejectsInvalidEmail(t *testing.T) {
	srv := &Server{db: &stubDB{}, mail: &stubMail{}}

	c, rec := newTestContext(http.MethodPost, "/auth/magic-link", `{"email":"not-an-email"}`, nil)
	assert.NoError(t, srv.HandlerMagicLink(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRedeemMagicLinkSignsIn(t *testing.T) {
	srv := &Server{db: &stubDB{
		redeemLink: func(token string) (string, error) {
			assert.Equal(t, "t0k3n", token)
			return "profiles:me", nil
		},
		getUser: func(id, email string) (models.User, error) {
			return models.User{ID: id, Email: "member@example.com", DisplayName: "me"}, nil
		},
		createSession: func(session models.Session) (models.Session, error) {
			session.ID = "sessions:abc"
			return session, nil
		},
	}}

	c, rec := newTestContext(http.MethodGet, "/auth/magic-link/verify?token=t0k3n", "", nil)
	assert.NoError(t, srv.HandlerRedeemMagicLink(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "member@example.com")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "session=sessions:abc")
}

func TestHandlerRedeemMagicLinkInvalidToken(t *testing.T) {
	srv := &Server{db: &stubDB{
		redeemLink: func(token string) (string, error) {
			return "", database.ErrInvalidMagicLink
		},
	}}

	c, rec := newTestContext(http.MethodGet, "/auth/magic-link/verify?token=expired", "", nil)
	assert.NoError(t, srv.HandlerRedeemMagicLink(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or has expired")
}

func TestHandlerDeleteMessageOwnership(t *testing.T) {
	srv := &Server{db: &stubDB{
		getMessage: func(id string) (models.Message, error) {
			return models.Message{ID: id, Author: models.User{ID: "profiles:owner"}}, nil
		},
	}}

	user := models.User{ID: "profiles:intruder"}
	c, rec := newTestContext(http.MethodDelete, "/community/messages/messages:1", "", &user)
	c.SetParamNames("id")
	c.SetParamValues("messages:1")

	assert.NoError(t, srv.HandlerDeleteMessage(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You can only delete your own messages")
}

func TestHandlerDeleteMessageAsAdmin(t *testing.T) {
	deleted := false
	srv := &Server{db: &stubDB{
		getMessage: func(id string) (models.Message, error) {
			return models.Message{ID: id, Author: models.User{ID: "profiles:owner"}}, nil
		},
		deleteMessage: func(id string) error {
			deleted = true
			return nil
		},
	}}

	user := models.User{ID: "profiles:admin", IsAdmin: true}
	c, rec := newTestContext(http.MethodDelete, "/community/messages/messages:1", "", &user)
	c.SetParamNames("id")
	c.SetParamValues("messages:1")

	assert.NoError(t, srv.HandlerDeleteMessage(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, deleted)
}

func TestHandlerTogglePin(t *testing.T) {
	var gotPinned bool
	srv := &Server{db: &stubDB{
		setPinned: func(id string, pinned bool) error {
			gotPinned = pinned
			return nil
		},
		getMessage: func(id string) (models.Message, error) {
			return models.Message{ID: id, IsPinned: true}, nil
		},
	}}

	c, rec := newTestContext(http.MethodPatch, "/community/messages/messages:1/pin", `{"pinned":true}`, nil)
	c.SetParamNames("id")
	c.SetParamValues("messages:1")

	assert.NoError(t, srv.HandlerTogglePin(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotPinned)
}

func TestHandlerLikeMessageReturnsCount(t *testing.T) {
	srv := &Server{db: &stubDB{
		incrementLikes: func(id string) (int, error) {
			return 7, nil
		},
		getMessage: func(id string) (models.Message, error) {
			return models.Message{ID: id}, nil
		},
	}}

	c, rec := newTestContext(http.MethodPost, "/community/messages/messages:1/like", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("messages:1")

	assert.NoError(t, srv.HandlerLikeMessage(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"like_count":7`)
}

func TestHandlerCreatePollNeedsTwoOptions(t *testing.T) {
	srv := &Server{db: &stubDB{}}

	user := models.User{ID: "profiles:me"}
	c, rec := newTestContext(http.MethodPost, "/community/polls", `{"question":"?","options":["only one"]}`, &user)

	assert.NoError(t, srv.HandlerCreatePoll(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "A poll needs a question and at least two options.")
}

func TestHandlerVotePollDuplicate(t *testing.T) {
	srv := &Server{db: &stubDB{
		createVote: func(optionId, userId string) error {
			return database.ErrDuplicateVote
		},
	}}

	user := models.User{ID: "profiles:me"}
	c, rec := newTestContext(http.MethodPost, "/community/polls/polls:1/votes", `{"option_id":"poll_options:a"}`, &user)
	c.SetParamNames("id")
	c.SetParamValues("polls:1")

	assert.NoError(t, srv.HandlerVotePoll(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionAuthMiddlewareRejectsMissingCookie(t *testing.T) {
	srv := &Server{db: &stubDB{}}

	c, _ := newTestContext(http.MethodGet, "/community/messages", "", nil)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	err := srv.SessionAuthMiddleware(next)(c)
	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAdminMiddleware(t *testing.T) {
	srv := &Server{db: &stubDB{}}
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	member := models.User{ID: "profiles:member"}
	c, _ := newTestContext(http.MethodPost, "/community/categories", "", &member)
	err := srv.AdminMiddleware(next)(c)
	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	admin := models.User{ID: "profiles:admin", IsAdmin: true}
	c, rec := newTestContext(http.MethodPost, "/community/categories", "", &admin)
	assert.NoError(t, srv.AdminMiddleware(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFireAuthWebhookPostsPayload(t *testing.T) {
	received := make(chan string, 1)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		received <- string(payload)
	}))
	defer target.Close()

	srv := &Server{db: &stubDB{
		getWebhook: func(whType string) (models.Webhook, error) {
			assert.Equal(t, "auth_webhook", whType)
			return models.Webhook{Type: whType, URL: target.URL}, nil
		},
	}}

	srv.FireAuthWebhook(models.User{
		Email:       "new@example.com",
		DisplayName: "new member",
	})

	payload := <-received
	assert.Contains(t, payload, "new@example.com")
	assert.Contains(t, payload, "new member")
}

func TestFireAuthWebhookSkipsWhenUnconfigured(t *testing.T) {
	srv := &Server{db: &stubDB{
		getWebhook: func(whType string) (models.Webhook, error) {
			return models.Webhook{}, errors.New("no webhook")
		},
	}}

	// nothing to call; must simply not panic
	srv.FireAuthWebhook(models.User{Email: "new@example.com"})
}
