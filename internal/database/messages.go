package database

import (
	"fmt"
	"log"

	"gocommunity/internal/models"

	"github.com/surrealdb/surrealdb.go"
)

const messageFields = `
  id, content, image_url, is_pinned, like_count, category_id, created_at, updated_at,
  author.id, author.email, author.display_name, author.avatar_url, author.is_admin,
  (SELECT id, content, created_at,
     author.id, author.email, author.display_name, author.avatar_url
   FROM comments WHERE message_id = $parent.id ORDER BY created_at ASC FETCH author) AS comments
`

func (s *service) ListChatCategories() ([]models.ChatCategory, error) {
	res, err := s.db.Query("SELECT * FROM chat_categories ORDER BY name ASC", map[string]interface{}{})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	categories, err := surrealdb.SmartUnmarshal[[]models.ChatCategory](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return categories, nil
}

func (s *service) CreateChatCategory(name string) (models.ChatCategory, error) {
	res, err := s.db.Query(`
    CREATE ONLY chat_categories CONTENT {
      name: $name,
      created_at: time::now(),
    };
    `, map[string]string{
		"name": name,
	})
	if err != nil {
		log.Println(err)
		return models.ChatCategory{}, fmt.Errorf("an error occured while creating the category")
	}

	category, err := surrealdb.SmartUnmarshal[models.ChatCategory](res, err)
	if err != nil {
		log.Println(err)
		return models.ChatCategory{}, err
	}

	return category, nil
}

func (s *service) ListMessages(categoryId string) ([]models.Message, error) {
	query := "SELECT " + messageFields + " FROM messages"
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

	messages, err := surrealdb.SmartUnmarshal[[]models.Message](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return messages, nil
}

func (s *service) GetMessage(id string) (models.Message, error) {
	res, err := s.db.Query("SELECT "+messageFields+" FROM ONLY $id FETCH author;", map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return models.Message{}, err
	}

	message, err := surrealdb.SmartUnmarshal[models.Message](res, err)
	if err != nil {
		log.Println(err)
		return models.Message{}, err
	}

	return message, nil
}

type createdId struct {
	ID string `json:"id"`
}

func (s *service) CreateMessage(message models.Message) (models.Message, error) {
	createRes, err := s.db.Query(`
    CREATE ONLY messages CONTENT {
      author: $authorId,
      content: $content,
      image_url: $imageURL,
      is_pinned: false,
      like_count: 0,
      category_id: $categoryId,
      created_at: time::now(),
      updated_at: time::now(),
    } RETURN id;
    `, map[string]any{
		"authorId":   message.Author.ID,
		"content":    message.Content,
		"imageURL":   message.ImageURL,
		"categoryId": message.CategoryId,
	})
	if err != nil {
		return models.Message{}, err
	}

	id, err := surrealdb.SmartUnmarshal[createdId](createRes, err)
	if err != nil {
		log.Println(err)
		return models.Message{}, err
	}

	return s.GetMessage(id.ID)
}

func (s *service) DeleteMessage(id string) error {
	_, err := s.db.Query(`
      BEGIN TRANSACTION;
      DELETE comments WHERE message_id = $id;
      DELETE $id;
      COMMIT TRANSACTION;
    `, map[string]any{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while deleting the message")
	}

	return nil
}

func (s *service) SetPinned(id string, pinned bool) error {
	_, err := s.db.Query(`UPDATE $id SET is_pinned=$pinned, updated_at=time::now()`, map[string]any{
		"id":     id,
		"pinned": pinned,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while updating the pin status")
	}

	return nil
}

// IncrementLikes bumps like_count server-side so two racing likers cannot
// overwrite each other with a stale read.
func (s *service) IncrementLikes(id string) (int, error) {
	res, err := s.db.Query(`UPDATE ONLY $id SET like_count += 1, updated_at=time::now() RETURN like_count`, map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return 0, err
	}

	message, err := surrealdb.SmartUnmarshal[models.Message](res, err)
	if err != nil {
		log.Println(err)
		return 0, err
	}

	return message.LikeCount, nil
}

func (s *service) CreateComment(comment models.Comment) (models.Comment, error) {
	createRes, err := s.db.Query(`
    CREATE ONLY comments CONTENT {
      message_id: $messageId,
      author: $authorId,
      content: $content,
      created_at: time::now(),
    } RETURN id;
    `, map[string]string{
		"messageId": comment.MessageId,
		"authorId":  comment.Author.ID,
		"content":   comment.Content,
	})
	if err != nil {
		return models.Comment{}, err
	}

	id, err := surrealdb.SmartUnmarshal[createdId](createRes, err)
	if err != nil {
		log.Println(err)
		return models.Comment{}, err
	}

	res, err := s.db.Query(`
    SELECT id, message_id, content, created_at,
      author.id, author.email, author.display_name, author.avatar_url
    FROM ONLY $id FETCH author;
    `, map[string]string{
		"id": id.ID,
	})
	if err != nil {
		return models.Comment{}, err
	}

	created, err := surrealdb.SmartUnmarshal[models.Comment](res, err)
	if err != nil {
		log.Println(err)
		return models.Comment{}, err
	}

	return created, nil
}
