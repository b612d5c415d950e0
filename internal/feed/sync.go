package feed

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"gocommunity/internal/models"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultRetryDelay   = 5 * time.Second
	maxFetchRetries     = 5
)

const (
	errRetrying      = "Connection error. Retrying..."
	errSignIn        = "Please sign in to view messages"
	errNotLoggedIn   = "You must be logged in to delete messages"
	errNotYours      = "You can only delete your own messages"
	errDeleteFailed  = "Failed to delete message"
	errPinFailed     = "Failed to update pin status"
	errMessageFailed = "Failed to send message"
)

// Synchronizer keeps an in-memory view of the community feed (messages,
// pinned messages and polls for the selected category) current across three
// independent update sources: a fixed-interval poll, realtime change events
// and optimistic local mutations.
type Synchronizer struct {
	// PollInterval and RetryDelay may be overridden before Run.
	PollInterval time.Duration
	RetryDelay   time.Duration

	gateway Gateway
	ctx     context.Context

	mu         sync.Mutex
	messages   []models.Message
	pinned     []models.Message
	polls      []models.Poll
	categories []models.ChatCategory
	selected   string
	loading    bool
	errText    string
	user       models.User
	// ids deleted locally; fetch and push results must not resurrect them
	tombstones map[string]bool
	retryCount int
	retryTimer *time.Timer
	closed     bool

	pollCancel  context.CancelFunc
	unsubscribe []func()
}

func New(gateway Gateway) *Synchronizer {
	return &Synchronizer{
		PollInterval: defaultPollInterval,
		RetryDelay:   defaultRetryDelay,
		gateway:      gateway,
		ctx:          context.Background(),
		tombstones:   make(map[string]bool),
		loading:      true,
	}
}

// Run resolves the session once, loads categories, messages and polls
// concurrently, then starts the polling loop and the realtime subscriptions.
// It blocks only for the initial load.
func (s *Synchronizer) Run(ctx context.Context) error {
	s.ctx = ctx

	user, err := s.gateway.Session(ctx)
	if err != nil {
		s.mu.Lock()
		s.errText = errSignIn
		s.loading = false
		s.mu.Unlock()
		return ErrAuthenticationRequired
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); s.fetchCategories() }()
	go func() { defer wg.Done(); s.FetchMessages() }()
	go func() { defer wg.Done(); s.FetchPolls() }()
	wg.Wait()

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	for _, table := range []string{"messages", "polls"} {
		unsub, err := s.gateway.Subscribe(table, s.handleEvent)
		if err != nil {
			log.Println("error subscribing to", table, "events:", err)
			continue
		}
		s.mu.Lock()
		s.unsubscribe = append(s.unsubscribe, unsub)
		s.mu.Unlock()
	}

	s.restartPolling()

	return nil
}

// Close stops the polling loop, the pending retry and the subscriptions.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	unsubs := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (s *Synchronizer) fetchCategories() {
	categories, err := s.gateway.ListCategories(s.ctx)
	if err != nil {
		log.Println("error fetching categories:", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = categories
	if s.selected == "" {
		for _, category := range categories {
			if strings.Contains(strings.ToLower(category.Name), "general") {
				s.selected = category.ID
				break
			}
		}
	}
}

// FetchMessages replaces the message lists wholesale with the current
// category's rows, partitioned by pin flag. Transient failures clear the
// lists and schedule a bounded retry; auth failures are surfaced and not
// retried.
func (s *Synchronizer) FetchMessages() error {
	s.mu.Lock()
	if s.user.ID == "" {
		s.errText = errSignIn
		s.messages = nil
		s.pinned = nil
		s.mu.Unlock()
		return ErrAuthenticationRequired
	}
	category := s.selected
	s.mu.Unlock()

	all, err := s.gateway.ListMessages(s.ctx, category)
	if err != nil {
		s.fetchFailed(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a category switch raced ahead of this fetch; its own fetch wins
	if s.selected != category {
		return nil
	}

	existing := make(map[string]models.Message, len(s.messages)+len(s.pinned))
	for _, m := range s.messages {
		existing[m.ID] = m
	}
	for _, m := range s.pinned {
		existing[m.ID] = m
	}

	live := make(map[string]bool, len(all))
	messages := make([]models.Message, 0, len(all))
	pinned := make([]models.Message, 0)
	for _, m := range all {
		if s.tombstones[m.ID] {
			live[m.ID] = true
			continue
		}
		// a response that raced behind a push or a like must not roll the
		// row back; updated_at is RFC3339, so string order is time order
		if prev, ok := existing[m.ID]; ok {
			if prev.UpdatedAt > m.UpdatedAt {
				m = prev
			} else if prev.LikeCount > m.LikeCount {
				m.LikeCount = prev.LikeCount
			}
		}
		if m.IsPinned {
			pinned = append(pinned, m)
		} else {
			messages = append(messages, m)
		}
	}
	s.messages = messages
	s.pinned = pinned

	// tombstones the backend no longer returns have been applied remotely
	for id := range s.tombstones {
		if !live[id] {
			delete(s.tombstones, id)
		}
	}

	s.errText = ""
	s.retryCount = 0

	return nil
}

func (s *Synchronizer) fetchFailed(err error) {
	log.Println("error fetching messages:", err)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.pinned = nil

	if errors.Is(err, ErrAuthenticationRequired) {
		s.errText = errSignIn
		return
	}

	s.errText = errRetrying
	// closed is checked under the same lock Close holds while stopping the
	// timer, so a late failure cannot re-arm the chain after shutdown
	if s.closed || s.retryCount >= maxFetchRetries {
		return
	}

	delay := s.RetryDelay << s.retryCount
	s.retryCount++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
	}
	s.retryTimer = time.AfterFunc(delay, func() {
		s.FetchMessages()
	})
}

// FetchPolls loads polls, their options and all votes, then computes vote
// counts, totals and the caller's own vote in memory.
func (s *Synchronizer) FetchPolls() error {
	s.mu.Lock()
	category := s.selected
	userId := s.user.ID
	s.mu.Unlock()

	polls, err := s.gateway.ListPolls(s.ctx, category)
	if err != nil {
		log.Println("error fetching polls:", err)
		return err
	}

	pollIds := make([]string, 0, len(polls))
	for _, p := range polls {
		pollIds = append(pollIds, p.ID)
	}

	options, err := s.gateway.ListPollOptions(s.ctx, pollIds)
	if err != nil {
		log.Println("error fetching polls:", err)
		return err
	}

	optionIds := make([]string, 0, len(options))
	for _, o := range options {
		optionIds = append(optionIds, o.ID)
	}

	votes, err := s.gateway.ListPollVotes(s.ctx, optionIds)
	if err != nil {
		log.Println("error fetching polls:", err)
		return err
	}

	votesByOption := make(map[string]int, len(options))
	for _, v := range votes {
		votesByOption[v.OptionId]++
	}

	processed := make([]models.Poll, 0, len(polls))
	for _, poll := range polls {
		poll.Options = nil
		poll.TotalVotes = 0
		poll.UserVote = ""

		ownOptions := make(map[string]bool)
		for _, option := range options {
			if option.PollId != poll.ID {
				continue
			}
			option.Votes = votesByOption[option.ID]
			poll.Options = append(poll.Options, option)
			poll.TotalVotes += option.Votes
			ownOptions[option.ID] = true
		}

		for _, v := range votes {
			if v.UserId == userId && ownOptions[v.OptionId] {
				poll.UserVote = v.OptionId
				break
			}
		}

		processed = append(processed, poll)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != category {
		return nil
	}
	s.polls = processed

	return nil
}

// SelectCategory switches the active filter, restarts the polling loop and
// refreshes both views.
func (s *Synchronizer) SelectCategory(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()

	s.restartPolling()
	go s.FetchMessages()
	go s.FetchPolls()
}

func (s *Synchronizer) restartPolling() {
	s.mu.Lock()
	if s.pollCancel != nil {
		s.pollCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.pollCancel = cancel
	interval := s.PollInterval
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.FetchMessages()
			}
		}
	}()
}

// TogglePin writes the inverse pin flag and refetches; there is no client
// authorization check, the backend policy decides.
func (s *Synchronizer) TogglePin(messageId string, currentPinned bool) error {
	if err := s.gateway.SetPinned(s.ctx, messageId, !currentPinned); err != nil {
		log.Println("error toggling pin:", err)
		s.setError(errPinFailed)
		return err
	}

	return s.FetchMessages()
}

// DeleteMessage removes the message locally on success; no refetch. The
// caller must be the owner or an admin.
func (s *Synchronizer) DeleteMessage(messageId, ownerId string) error {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user.ID == "" {
		s.setError(errNotLoggedIn)
		return ErrAuthenticationRequired
	}
	if !user.IsAdmin && user.ID != ownerId {
		s.setError(errNotYours)
		return ErrUnauthorized
	}

	if err := s.gateway.DeleteMessage(s.ctx, messageId); err != nil {
		log.Println("error deleting message:", err)
		s.setError(errDeleteFailed)
		return err
	}

	s.mu.Lock()
	s.messages = removeMessage(s.messages, messageId)
	s.pinned = removeMessage(s.pinned, messageId)
	s.tombstones[messageId] = true
	s.mu.Unlock()

	return nil
}

// AddMessage inserts the row together with its optional image and prepends
// it locally when it matches the active filter. Returns a success flag
// rather than an error.
func (s *Synchronizer) AddMessage(content string, image io.Reader, imageName string) bool {
	s.mu.Lock()
	user := s.user
	category := s.selected
	s.mu.Unlock()

	if user.ID == "" {
		s.setError(errSignIn)
		return false
	}

	created, err := s.gateway.InsertMessage(s.ctx, models.Message{
		Author:     models.User{ID: user.ID},
		Content:    content,
		CategoryId: category,
	}, image, imageName)
	if err != nil {
		log.Println("error adding message:", err)
		s.setError(errMessageFailed)
		return false
	}

	s.mu.Lock()
	if s.selected == "" || created.CategoryId == s.selected {
		s.messages = append([]models.Message{created}, s.messages...)
	}
	s.mu.Unlock()

	return true
}

// AddComment inserts the comment then refetches everything to pick it up.
func (s *Synchronizer) AddComment(messageId, content string) bool {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user.ID == "" {
		return false
	}

	err := s.gateway.InsertComment(s.ctx, models.Comment{
		MessageId: messageId,
		Author:    models.User{ID: user.ID},
		Content:   strings.TrimSpace(content),
	})
	if err != nil {
		log.Println("error adding comment:", err)
		return false
	}

	s.FetchMessages()

	return true
}

// CreatePoll inserts the poll with its options in one gateway call and
// refreshes the poll view.
func (s *Synchronizer) CreatePoll(question string, options []string, expiresAt *time.Time) bool {
	s.mu.Lock()
	user := s.user
	category := s.selected
	s.mu.Unlock()

	if user.ID == "" {
		return false
	}

	poll := models.Poll{
		Author:     models.User{ID: user.ID},
		Question:   question,
		CategoryId: category,
	}
	if expiresAt != nil {
		poll.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
	}

	if _, err := s.gateway.CreatePoll(s.ctx, poll, options); err != nil {
		log.Println("error creating poll:", err)
		return false
	}

	s.FetchPolls()

	return true
}

// VotePoll refuses when the caller already voted in the poll, otherwise
// inserts the vote and refreshes.
func (s *Synchronizer) VotePoll(pollId, optionId string) bool {
	s.mu.Lock()
	user := s.user
	var already bool
	for _, p := range s.polls {
		if p.ID == pollId && p.UserVote != "" {
			already = true
			break
		}
	}
	s.mu.Unlock()

	if user.ID == "" || already {
		return false
	}

	if err := s.gateway.InsertVote(s.ctx, pollId, optionId); err != nil {
		log.Println("error voting in poll:", err)
		return false
	}

	s.FetchPolls()

	return true
}

// DeletePoll removes the poll remotely then locally by id.
func (s *Synchronizer) DeletePoll(pollId string) bool {
	if err := s.gateway.DeletePoll(s.ctx, pollId); err != nil {
		log.Println("error deleting poll:", err)
		return false
	}

	s.mu.Lock()
	polls := s.polls[:0]
	for _, p := range s.polls {
		if p.ID != pollId {
			polls = append(polls, p)
		}
	}
	s.polls = polls
	s.mu.Unlock()

	return true
}

// ToggleLike bumps the like counter through the gateway's atomic increment
// and applies the returned value locally, so racing likers cannot overwrite
// each other.
func (s *Synchronizer) ToggleLike(messageId string) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user.ID == "" {
		return
	}

	count, err := s.gateway.IncrementLikes(s.ctx, messageId)
	if err != nil {
		log.Println("error toggling like:", err)
		return
	}

	s.mu.Lock()
	setLikeCount(s.messages, messageId, count)
	setLikeCount(s.pinned, messageId, count)
	s.mu.Unlock()
}

func (s *Synchronizer) handleEvent(ev Event) {
	switch ev.Table {
	case "messages":
		s.handleMessageEvent(ev)
	case "polls":
		s.FetchPolls()
	}
}

func (s *Synchronizer) handleMessageEvent(ev Event) {
	if ev.Type == models.EventDelete {
		s.mu.Lock()
		s.messages = removeMessage(s.messages, ev.ID)
		s.pinned = removeMessage(s.pinned, ev.ID)
		delete(s.tombstones, ev.ID)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	selected := s.selected
	tombstoned := s.tombstones[ev.ID]
	s.mu.Unlock()

	// events outside the active filter are ignored
	if selected != "" && ev.CategoryID != "" && ev.CategoryID != selected {
		return
	}
	if tombstoned {
		return
	}

	message, err := s.gateway.GetMessage(s.ctx, ev.ID)
	if err != nil {
		log.Println("error fetching changed message:", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tombstones[message.ID] {
		return
	}

	s.messages = removeMessage(s.messages, message.ID)
	s.pinned = removeMessage(s.pinned, message.ID)
	if message.IsPinned {
		s.pinned = append([]models.Message{message}, s.pinned...)
	} else {
		s.messages = append([]models.Message{message}, s.messages...)
	}
}

func (s *Synchronizer) setError(text string) {
	s.mu.Lock()
	s.errText = text
	s.mu.Unlock()
}

// accessors return copies so callers never observe in-place mutation

func (s *Synchronizer) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Synchronizer) PinnedMessages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.pinned...)
}

func (s *Synchronizer) Polls() []models.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Poll(nil), s.polls...)
}

func (s *Synchronizer) Categories() []models.ChatCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatCategory(nil), s.categories...)
}

func (s *Synchronizer) SelectedCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Synchronizer) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errText
}

func (s *Synchronizer) CurrentUser() models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Synchronizer) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.IsAdmin
}

func removeMessage(list []models.Message, id string) []models.Message {
	out := list[:0]
	for _, m := range list {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func setLikeCount(list []models.Message, id string, count int) {
	for i := range list {
		if list[i].ID == id && count > list[i].LikeCount {
			list[i].LikeCount = count
		}
	}
}
