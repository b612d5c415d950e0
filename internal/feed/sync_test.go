package feed

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gocommunity/internal/models"

	"github.com/stretchr/testify/assert"
)

type mockGateway struct {
	mu sync.Mutex

	sessionFn      func(ctx context.Context) (models.User, error)
	categoriesFn   func(ctx context.Context) ([]models.ChatCategory, error)
	listMessagesFn func(ctx context.Context, categoryID string) ([]models.Message, error)
	getMessageFn   func(ctx context.Context, id string) (models.Message, error)
	insertFn       func(ctx context.Context, m models.Message, image io.Reader, name string) (models.Message, error)
	deleteFn       func(ctx context.Context, id string) error
	pinFn          func(ctx context.Context, id string, pinned bool) error
	likeFn         func(ctx context.Context, id string) (int, error)
	commentFn      func(ctx context.Context, c models.Comment) error
	pollsFn        func(ctx context.Context, categoryID string) ([]models.Poll, error)
	optionsFn      func(ctx context.Context, pollIDs []string) ([]models.PollOption, error)
	votesFn        func(ctx context.Context, optionIDs []string) ([]models.PollVote, error)
	createPollFn   func(ctx context.Context, p models.Poll, options []string) (models.Poll, error)
	voteFn         func(ctx context.Context, pollID, optionID string) error
	deletePollFn   func(ctx context.Context, id string) error

	fetchCalls  int32
	deleteCalls int32
}

func (g *mockGateway) Session(ctx context.Context) (models.User, error) {
	if g.sessionFn != nil {
		return g.sessionFn(ctx)
	}
	return models.User{ID: "profiles:me", DisplayName: "me"}, nil
}

func (g *mockGateway) ListCategories(ctx context.Context) ([]models.ChatCategory, error) {
	if g.categoriesFn != nil {
		return g.categoriesFn(ctx)
	}
	return []models.ChatCategory{}, nil
}

func (g *mockGateway) ListMessages(ctx context.Context, categoryID string) ([]models.Message, error) {
	atomic.AddInt32(&g.fetchCalls, 1)
	if g.listMessagesFn != nil {
		return g.listMessagesFn(ctx, categoryID)
	}
	return []models.Message{}, nil
}

func (g *mockGateway) GetMessage(ctx context.Context, id string) (models.Message, error) {
	if g.getMessageFn != nil {
		return g.getMessageFn(ctx, id)
	}
	return models.Message{}, errors.New("not found")
}

func (g *mockGateway) InsertMessage(ctx context.Context, m models.Message, image io.Reader, name string) (models.Message, error) {
	if g.insertFn != nil {
		return g.insertFn(ctx, m, image, name)
	}
	m.ID = "messages:new"
	return m, nil
}

func (g *mockGateway) DeleteMessage(ctx context.Context, id string) error {
	atomic.AddInt32(&g.deleteCalls, 1)
	if g.deleteFn != nil {
		return g.deleteFn(ctx, id)
	}
	return nil
}

func (g *mockGateway) SetPinned(ctx context.Context, id string, pinned bool) error {
	if g.pinFn != nil {
		return g.pinFn(ctx, id, pinned)
	}
	return nil
}

func (g *mockGateway) IncrementLikes(ctx context.Context, id string) (int, error) {
	if g.likeFn != nil {
		return g.likeFn(ctx, id)
	}
	return 1, nil
}

func (g *mockGateway) InsertComment(ctx context.Context, c models.Comment) error {
	if g.commentFn != nil {
		return g.commentFn(ctx, c)
	}
	return nil
}

func (g *mockGateway) ListPolls(ctx context.Context, categoryID string) ([]models.Poll, error) {
	if g.pollsFn != nil {
		return g.pollsFn(ctx, categoryID)
	}
	return []models.Poll{}, nil
}

func (g *mockGateway) ListPollOptions(ctx context.Context, pollIDs []string) ([]models.PollOption, error) {
	if g.optionsFn != nil {
		return g.optionsFn(ctx, pollIDs)
	}
	return []models.PollOption{}, nil
}

func (g *mockGateway) ListPollVotes(ctx context.Context, optionIDs []string) ([]models.PollVote, error) {
	if g.votesFn != nil {
		return g.votesFn(ctx, optionIDs)
	}
	return []models.PollVote{}, nil
}

func (g *mockGateway) CreatePoll(ctx context.Context, p models.Poll, options []string) (models.Poll, error) {
	if g.createPollFn != nil {
		return g.createPollFn(ctx, p, options)
	}
	p.ID = "polls:new"
	return p, nil
}

func (g *mockGateway) InsertVote(ctx context.Context, pollID, optionID string) error {
	if g.voteFn != nil {
		return g.voteFn(ctx, pollID, optionID)
	}
	return nil
}

func (g *mockGateway) DeletePoll(ctx context.Context, id string) error {
	if g.deletePollFn != nil {
		return g.deletePollFn(ctx, id)
	}
	return nil
}

func (g *mockGateway) Subscribe(table string, fn func(Event)) (func(), error) {
	return func() {}, nil
}

func newTestSync(g Gateway) *Synchronizer {
	s := New(g)
	s.PollInterval = time.Hour
	s.RetryDelay = 5 * time.Millisecond
	return s
}

func runSync(t *testing.T, g Gateway) *Synchronizer {
	t.Helper()
	s := newTestSync(g)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestRunWithoutSession(t *testing.T) {
	g := &mockGateway{
		sessionFn: func(ctx context.Context) (models.User, error) {
			return models.User{}, errors.New("no cookie")
		},
	}

	s := newTestSync(g)
	err := s.Run(context.Background())

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, "Please sign in to view messages", s.Err())
	assert.Equal(t, int32(0), atomic.LoadInt32(&g.fetchCalls))
}

func TestDefaultCategoryIsGeneral(t *testing.T) {
	g := &mockGateway{
		categoriesFn: func(ctx context.Context) ([]models.ChatCategory, error) {
			return []models.ChatCategory{
				{ID: "chat_categories:a", Name: "Announcements"},
				{ID: "chat_categories:g", Name: "GENERAL Chat"},
				{ID: "chat_categories:w", Name: "Wins"},
			}, nil
		},
	}

	s := runSync(t, g)

	assert.Equal(t, "chat_categories:g", s.SelectedCategory())
	assert.Len(t, s.Categories(), 3)
}

func TestFetchPartitionsByPin(t *testing.T) {
	rows := []models.Message{
		{ID: "messages:1", Content: "newest"},
		{ID: "messages:2", Content: "rules", IsPinned: true},
		{ID: "messages:3", Content: "older"},
	}
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return rows, nil
		},
	}

	s := runSync(t, g)

	messages := s.Messages()
	pinned := s.PinnedMessages()
	assert.Len(t, messages, 2)
	assert.Len(t, pinned, 1)
	assert.Equal(t, "messages:1", messages[0].ID)
	assert.Equal(t, "messages:3", messages[1].ID)
	assert.Equal(t, "messages:2", pinned[0].ID)

	// a refetch of the same rows replaces, never accumulates
	assert.NoError(t, s.FetchMessages())
	assert.Len(t, s.Messages(), 2)
	assert.Len(t, s.PinnedMessages(), 1)
}

func TestFetchFailureClearsAndRetries(t *testing.T) {
	var failures int32 = 3
	g := &mockGateway{}
	g.listMessagesFn = func(ctx context.Context, categoryID string) ([]models.Message, error) {
		if atomic.LoadInt32(&g.fetchCalls) <= failures {
			return nil, errors.New("connection refused")
		}
		return []models.Message{{ID: "messages:1"}}, nil
	}

	s := newTestSync(g)
	s.RetryDelay = 100 * time.Millisecond
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer s.Close()

	assert.Empty(t, s.Messages())
	assert.Equal(t, "Connection error. Retrying...", s.Err())

	// retries back off from RetryDelay; three failures resolve well within the window
	assert.Eventually(t, func() bool {
		return len(s.Messages()) == 1 && s.Err() == ""
	}, 3*time.Second, 10*time.Millisecond)
}

func TestCloseStopsRetryScheduling(t *testing.T) {
	g := &mockGateway{}
	s := runSync(t, g)
	s.Close()

	// a fetch that failed after shutdown must not re-arm the retry chain
	s.fetchFailed(errors.New("connection refused"))

	calls := atomic.LoadInt32(&g.fetchCalls)
	time.Sleep(5 * s.RetryDelay)
	assert.Equal(t, calls, atomic.LoadInt32(&g.fetchCalls))
}

func TestFetchAuthFailureDoesNotRetry(t *testing.T) {
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return nil, ErrAuthenticationRequired
		},
	}

	s := runSync(t, g)

	assert.Equal(t, "Please sign in to view messages", s.Err())
	calls := atomic.LoadInt32(&g.fetchCalls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt32(&g.fetchCalls))
}

func TestDeleteMessageIsOptimistic(t *testing.T) {
	rows := []models.Message{
		{ID: "messages:1", Author: models.User{ID: "profiles:me"}},
		{ID: "messages:2", Author: models.User{ID: "profiles:other"}},
	}
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return rows, nil
		},
	}

	s := runSync(t, g)

	assert.NoError(t, s.DeleteMessage("messages:1", "profiles:me"))
	assert.Len(t, s.Messages(), 1)

	// the next poll cycle still returns the stale row; it must not come back
	assert.NoError(t, s.FetchMessages())
	assert.Len(t, s.Messages(), 1)
	assert.Equal(t, "messages:2", s.Messages()[0].ID)
}

func TestDeleteMessageRequiresOwnership(t *testing.T) {
	g := &mockGateway{}
	s := runSync(t, g)

	err := s.DeleteMessage("messages:1", "profiles:other")

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "You can only delete your own messages", s.Err())
	assert.Equal(t, int32(0), atomic.LoadInt32(&g.deleteCalls))
}

func TestAdminDeletesAnyMessage(t *testing.T) {
	g := &mockGateway{
		sessionFn: func(ctx context.Context) (models.User, error) {
			return models.User{ID: "profiles:admin", IsAdmin: true}, nil
		},
	}
	s := runSync(t, g)

	assert.NoError(t, s.DeleteMessage("messages:1", "profiles:other"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&g.deleteCalls))
}

func TestAddMessagePrepends(t *testing.T) {
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return []models.Message{{ID: "messages:old"}}, nil
		},
	}

	s := runSync(t, g)

	ok := s.AddMessage("hello", nil, "")
	assert.True(t, ok)

	messages := s.Messages()
	assert.Len(t, messages, 2)
	assert.Equal(t, "messages:new", messages[0].ID)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Empty(t, messages[0].ImageURL)
	assert.Zero(t, messages[0].LikeCount)
}

func TestConcurrentLikesAllLand(t *testing.T) {
	var counter int32
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return []models.Message{{ID: "messages:1"}}, nil
		},
		likeFn: func(ctx context.Context, id string) (int, error) {
			return int(atomic.AddInt32(&counter, 1)), nil
		},
	}

	s := runSync(t, g)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleLike("messages:1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, s.Messages()[0].LikeCount)
}

func TestStaleFetchCannotRollBack(t *testing.T) {
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return []models.Message{{ID: "messages:1", LikeCount: 0}}, nil
		},
		likeFn: func(ctx context.Context, id string) (int, error) {
			return 5, nil
		},
	}

	s := runSync(t, g)
	s.ToggleLike("messages:1")
	assert.Equal(t, 5, s.Messages()[0].LikeCount)

	// the next poll cycle delivers a response captured before the like
	assert.NoError(t, s.FetchMessages())
	assert.Equal(t, 5, s.Messages()[0].LikeCount)
}

func TestPollAggregation(t *testing.T) {
	g := &mockGateway{
		pollsFn: func(ctx context.Context, categoryID string) ([]models.Poll, error) {
			return []models.Poll{{ID: "polls:1", Question: "favorite tool?"}}, nil
		},
		optionsFn: func(ctx context.Context, pollIDs []string) ([]models.PollOption, error) {
			assert.Equal(t, []string{"polls:1"}, pollIDs)
			return []models.PollOption{
				{ID: "poll_options:a", PollId: "polls:1", Text: "a"},
				{ID: "poll_options:b", PollId: "polls:1", Text: "b"},
			}, nil
		},
		votesFn: func(ctx context.Context, optionIDs []string) ([]models.PollVote, error) {
			return []models.PollVote{
				{OptionId: "poll_options:a", UserId: "profiles:me"},
				{OptionId: "poll_options:a", UserId: "profiles:other"},
				{OptionId: "poll_options:b", UserId: "profiles:third"},
			}, nil
		},
	}

	s := runSync(t, g)

	polls := s.Polls()
	assert.Len(t, polls, 1)
	assert.Equal(t, 3, polls[0].TotalVotes)
	assert.Equal(t, 2, polls[0].Options[0].Votes)
	assert.Equal(t, 1, polls[0].Options[1].Votes)
	assert.Equal(t, "poll_options:a", polls[0].UserVote)
}

func TestVoteOncePerPoll(t *testing.T) {
	voted := false
	g := &mockGateway{
		pollsFn: func(ctx context.Context, categoryID string) ([]models.Poll, error) {
			return []models.Poll{{ID: "polls:1"}}, nil
		},
		optionsFn: func(ctx context.Context, pollIDs []string) ([]models.PollOption, error) {
			return []models.PollOption{{ID: "poll_options:a", PollId: "polls:1"}}, nil
		},
		votesFn: func(ctx context.Context, optionIDs []string) ([]models.PollVote, error) {
			if !voted {
				return []models.PollVote{}, nil
			}
			return []models.PollVote{{OptionId: "poll_options:a", UserId: "profiles:me"}}, nil
		},
		voteFn: func(ctx context.Context, pollID, optionID string) error {
			voted = true
			return nil
		},
	}

	s := runSync(t, g)

	assert.True(t, s.VotePoll("polls:1", "poll_options:a"))
	assert.Equal(t, "poll_options:a", s.Polls()[0].UserVote)
	assert.Equal(t, 1, s.Polls()[0].TotalVotes)

	assert.False(t, s.VotePoll("polls:1", "poll_options:a"))
}

func TestInsertEventSplicesMessage(t *testing.T) {
	g := &mockGateway{
		getMessageFn: func(ctx context.Context, id string) (models.Message, error) {
			return models.Message{ID: id, Content: "pushed"}, nil
		},
	}

	s := runSync(t, g)
	s.handleEvent(Event{Table: "messages", Type: models.EventInsert, ID: "messages:push"})

	messages := s.Messages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "pushed", messages[0].Content)

	// the poll cycle may deliver the same row again as an update
	s.handleEvent(Event{Table: "messages", Type: models.EventUpdate, ID: "messages:push"})
	assert.Len(t, s.Messages(), 1)
}

func TestUpdateEventMovesPinnedMessage(t *testing.T) {
	pinned := false
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return []models.Message{{ID: "messages:1"}}, nil
		},
		getMessageFn: func(ctx context.Context, id string) (models.Message, error) {
			return models.Message{ID: id, IsPinned: pinned}, nil
		},
	}

	s := runSync(t, g)
	assert.Len(t, s.Messages(), 1)

	pinned = true
	s.handleEvent(Event{Table: "messages", Type: models.EventUpdate, ID: "messages:1"})

	assert.Empty(t, s.Messages())
	assert.Len(t, s.PinnedMessages(), 1)
}

func TestDeleteEventRemovesEverywhere(t *testing.T) {
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			return []models.Message{
				{ID: "messages:1"},
				{ID: "messages:2", IsPinned: true},
			}, nil
		},
	}

	s := runSync(t, g)
	s.handleEvent(Event{Table: "messages", Type: models.EventDelete, ID: "messages:2"})

	assert.Empty(t, s.PinnedMessages())
	assert.Len(t, s.Messages(), 1)
}

func TestEventOutsideSelectedCategoryIgnored(t *testing.T) {
	g := &mockGateway{
		categoriesFn: func(ctx context.Context) ([]models.ChatCategory, error) {
			return []models.ChatCategory{{ID: "chat_categories:g", Name: "General"}}, nil
		},
		getMessageFn: func(ctx context.Context, id string) (models.Message, error) {
			t.Fatal("message outside the filter must not be fetched")
			return models.Message{}, nil
		},
	}

	s := runSync(t, g)
	s.handleEvent(Event{
		Table:      "messages",
		Type:       models.EventInsert,
		ID:         "messages:x",
		CategoryID: "chat_categories:other",
	})

	assert.Empty(t, s.Messages())
}

func TestSelectCategoryRefetches(t *testing.T) {
	g := &mockGateway{
		listMessagesFn: func(ctx context.Context, categoryID string) ([]models.Message, error) {
			if categoryID == "chat_categories:wins" {
				return []models.Message{{ID: "messages:win", CategoryId: categoryID}}, nil
			}
			return []models.Message{}, nil
		},
	}

	s := runSync(t, g)
	assert.Empty(t, s.Messages())

	s.SelectCategory("chat_categories:wins")

	assert.Eventually(t, func() bool {
		messages := s.Messages()
		return len(messages) == 1 && messages[0].ID == "messages:win"
	}, time.Second, 5*time.Millisecond)
}

func TestPollingLoopFetches(t *testing.T) {
	g := &mockGateway{}
	s := newTestSync(g)
	s.PollInterval = 10 * time.Millisecond
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer s.Close()

	initial := atomic.LoadInt32(&g.fetchCalls)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&g.fetchCalls) >= initial+2
	}, time.Second, 5*time.Millisecond)
}
