package database

import (
	"fmt"
	"log"
	"strings"

	"gocommunity/internal/models"

	"github.com/surrealdb/surrealdb.go"
)

// ErrDuplicateVote is returned when a user already has a vote on the poll an
// option belongs to. One vote per (poll, user).
var ErrDuplicateVote = fmt.Errorf("you already voted in this poll")

func (s *service) ListPolls(categoryId string) ([]models.Poll, error) {
	query := `
    SELECT id, question, category_id, expires_at, is_active, created_at,
      author.id, author.email, author.display_name, author.avatar_url, author.is_admin
    FROM polls`
	if categoryId != "" {
		query += " WHERE category_id = $categoryId"
	}
	query += " ORDER BY created_at DESC FETCH author;"

	res, err := s.db.Query(query, map[string]string{
		"categoryId": categoryId,
	})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	polls, err := surrealdb.SmartUnmarshal[[]models.Poll](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return polls, nil
}

func (s *service) ListPollOptions(pollIds []string) ([]models.PollOption, error) {
	if len(pollIds) == 0 {
		return []models.PollOption{}, nil
	}

	res, err := s.db.Query("SELECT id, poll_id, text FROM poll_options WHERE poll_id IN $pollIds ORDER BY created_at ASC", map[string]any{
		"pollIds": pollIds,
	})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	options, err := surrealdb.SmartUnmarshal[[]models.PollOption](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return options, nil
}

func (s *service) ListPollVotes(optionIds []string) ([]models.PollVote, error) {
	if len(optionIds) == 0 {
		return []models.PollVote{}, nil
	}

	res, err := s.db.Query("SELECT id, option_id, user_id FROM poll_votes WHERE option_id IN $optionIds", map[string]any{
		"optionIds": optionIds,
	})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	votes, err := surrealdb.SmartUnmarshal[[]models.PollVote](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return votes, nil
}

// CreatePoll inserts the poll row and all of its options in one transaction
// so a failed option insert cannot leave an option-less poll behind.
func (s *service) CreatePoll(poll models.Poll, options []string) (models.Poll, error) {
	res, err := s.db.Query(`
      BEGIN TRANSACTION;
      LET $poll = (CREATE ONLY polls CONTENT {
        author: $authorId,
        question: $question,
        category_id: $categoryId,
        expires_at: $expiresAt,
        is_active: true,
        created_at: time::now(),
      } RETURN AFTER);

      FOR $text IN $options {
        CREATE poll_options CONTENT {
          poll_id: $poll.id,
          text: $text,
          created_at: time::now(),
        };
      };

      RETURN $poll;
      COMMIT TRANSACTION;
    `, map[string]any{
		"authorId":   poll.Author.ID,
		"question":   poll.Question,
		"categoryId": poll.CategoryId,
		"expiresAt":  poll.ExpiresAt,
		"options":    options,
	})
	if err != nil {
		log.Println(err)
		return models.Poll{}, fmt.Errorf("an error occured while creating the poll")
	}

	created, err := surrealdb.SmartUnmarshal[models.Poll](res, err)
	if err != nil {
		log.Println(err)
		return models.Poll{}, err
	}

	return created, nil
}

// CreateVote enforces one vote per (poll, user) inside the transaction; the
// client-side guard alone cannot be trusted.
func (s *service) CreateVote(optionId, userId string) error {
	_, err := s.db.Query(`
      BEGIN TRANSACTION;
      LET $pollId = (SELECT VALUE poll_id FROM ONLY $optionId);
      LET $pollOptions = (SELECT VALUE id FROM poll_options WHERE poll_id = $pollId);
      LET $existing = (SELECT id FROM poll_votes WHERE option_id IN $pollOptions AND user_id = $userId);

      IF COUNT($existing) > 0 {
          THROW "duplicate vote"
      };

      CREATE poll_votes CONTENT {
        option_id: $optionId,
        user_id: $userId,
        created_at: time::now(),
      };
      COMMIT TRANSACTION;
    `, map[string]string{
		"optionId": optionId,
		"userId":   userId,
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate vote") {
			return ErrDuplicateVote
		}
		log.Println(err)
		return fmt.Errorf("an error occured while voting")
	}

	return nil
}

func (s *service) DeletePoll(id string) error {
	_, err := s.db.Query(`
      BEGIN TRANSACTION;
      LET $options = (SELECT VALUE id FROM poll_options WHERE poll_id = $id);
      DELETE poll_votes WHERE option_id IN $options;
      DELETE poll_options WHERE poll_id = $id;
      DELETE $id;
      COMMIT TRANSACTION;
    `, map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while deleting the poll")
	}

	return nil
}
