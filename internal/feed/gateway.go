package feed

import (
	"context"
	"errors"
	"io"

	"gocommunity/internal/models"
)

var (
	// ErrAuthenticationRequired signals that no active session exists.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrUnauthorized signals that the caller may not perform the mutation.
	ErrUnauthorized = errors.New("unauthorized")
)

// Event is a single row-change notification from the realtime channel.
type Event struct {
	Table      string
	Type       string // models.EventInsert, EventUpdate or EventDelete
	ID         string
	CategoryID string
}

// Gateway is the remote backend contract the synchronizer runs against:
// record queries and mutations, session lookup and a per-table change
// subscription.
type Gateway interface {
	Session(ctx context.Context) (models.User, error)

	ListCategories(ctx context.Context) ([]models.ChatCategory, error)
	ListMessages(ctx context.Context, categoryID string) ([]models.Message, error)
	GetMessage(ctx context.Context, id string) (models.Message, error)
	// InsertMessage creates the message, uploading the optional image
	// alongside it. image may be nil.
	InsertMessage(ctx context.Context, message models.Message, image io.Reader, imageName string) (models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	IncrementLikes(ctx context.Context, id string) (int, error)
	InsertComment(ctx context.Context, comment models.Comment) error

	ListPolls(ctx context.Context, categoryID string) ([]models.Poll, error)
	ListPollOptions(ctx context.Context, pollIDs []string) ([]models.PollOption, error)
	ListPollVotes(ctx context.Context, optionIDs []string) ([]models.PollVote, error)
	CreatePoll(ctx context.Context, poll models.Poll, options []string) (models.Poll, error)
	InsertVote(ctx context.Context, pollID, optionID string) error
	DeletePoll(ctx context.Context, id string) error

	// Subscribe registers fn for change events on table and returns an
	// unsubscribe func.
	Subscribe(table string, fn func(Event)) (func(), error)
}
