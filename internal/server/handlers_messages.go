package server

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path"

	"gocommunity/internal/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxUploadBytes = 8 * 1024 * 1024

func (s *Server) HandlerListMessages(c echo.Context) error {
	resp := make(map[string]any)

	messages, err := s.db.ListMessages(c.QueryParam("category"))
	if err != nil {
		resp["message"] = "An error occured when fetching messages."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["messages"] = messages

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerGetMessage(c echo.Context) error {
	resp := make(map[string]any)

	message, err := s.db.GetMessage(c.Param("id"))
	if err != nil {
		resp["message"] = "An error occured when fetching the message."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["message"] = message

	return c.JSON(http.StatusOK, resp)
}

type CreateMessageBody struct {
	Content    string `json:"content"`
	CategoryId string `json:"category_id"`
}

func (s *Server) HandlerSendMessage(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(CreateMessageBody)
	bodyStr := c.FormValue("body")
	if err := json.Unmarshal([]byte(bodyStr), body); err != nil {
		log.Println("Error parsing JSON body:", err)
		resp["message"] = "An error occurred when parsing your message."
		return c.JSON(http.StatusBadRequest, resp)
	}

	message := models.Message{
		Author:     models.User{ID: user.ID},
		Content:    body.Content,
		CategoryId: body.CategoryId,
	}

	file, err := c.FormFile("image")
	if err == nil {
		if file.Size > maxUploadBytes {
			resp["message"] = "File size exceeds 8MB limit"
			return c.JSON(http.StatusBadRequest, resp)
		}

		src, err := file.Open()
		if err != nil {
			log.Println(err)
			resp["message"] = "An error occurred when reading your image."
			return c.JSON(http.StatusBadRequest, resp)
		}
		defer src.Close()

		imageKey := uuid.NewString() + path.Ext(file.Filename)
		_, err = s.s3.PutObject(&s3.PutObjectInput{
			Bucket: aws.String("message-images"),
			Key:    aws.String(imageKey),
			Body:   src,
		})
		if err != nil {
			log.Println(err)
			resp["message"] = "An error occurred when uploading your image."
			return c.JSON(http.StatusBadRequest, resp)
		}

		message.ImageURL = publicURL("message-images", imageKey)
	}

	created, err := s.db.CreateMessage(message)
	if err != nil {
		log.Println("error when creating a message", err)
		resp["message"] = "An error occured when sending your message."

		return c.JSON(http.StatusBadRequest, resp)
	}

	publishChange("messages", models.EventInsert, created.ID, created.CategoryId)

	resp["message"] = created

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerDeleteMessage(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)
	messageId := c.Param("id")

	message, err := s.db.GetMessage(messageId)
	if err != nil {
		resp["message"] = "An error occured when fetching the message."
		return c.JSON(http.StatusNotFound, resp)
	}

	if !user.IsAdmin && message.Author.ID != user.ID {
		resp["message"] = "You can only delete your own messages"
		return c.JSON(http.StatusForbidden, resp)
	}

	if err := s.db.DeleteMessage(messageId); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when deleting the message."
		return c.JSON(http.StatusBadRequest, resp)
	}

	publishChange("messages", models.EventDelete, messageId, message.CategoryId)

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

type TogglePinBody struct {
	Pinned bool `json:"pinned"`
}

func (s *Server) HandlerTogglePin(c echo.Context) error {
	resp := make(map[string]any)
	messageId := c.Param("id")

	body := new(TogglePinBody)
	if err := c.Bind(body); err != nil {
		resp["message"] = "An error occured when updating the pin status."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if err := s.db.SetPinned(messageId, body.Pinned); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when updating the pin status."
		return c.JSON(http.StatusBadRequest, resp)
	}

	message, err := s.db.GetMessage(messageId)
	if err == nil {
		publishChange("messages", models.EventUpdate, messageId, message.CategoryId)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerLikeMessage(c echo.Context) error {
	resp := make(map[string]any)
	messageId := c.Param("id")

	likeCount, err := s.db.IncrementLikes(messageId)
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when liking the message."
		return c.JSON(http.StatusBadRequest, resp)
	}

	message, err := s.db.GetMessage(messageId)
	if err == nil {
		publishChange("messages", models.EventUpdate, messageId, message.CategoryId)
	}

	resp["message"] = "success"
	resp["like_count"] = likeCount

	return c.JSON(http.StatusOK, resp)
}

type AddCommentBody struct {
	Content string `json:"content"`
}

func (s *Server) HandlerAddComment(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)
	messageId := c.Param("id")

	body := new(AddCommentBody)
	if err := c.Bind(body); err != nil || body.Content == "" {
		resp["message"] = "An error occured when adding your comment."
		return c.JSON(http.StatusBadRequest, resp)
	}

	comment, err := s.db.CreateComment(models.Comment{
		MessageId: messageId,
		Author:    models.User{ID: user.ID},
		Content:   body.Content,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when adding your comment."
		return c.JSON(http.StatusBadRequest, resp)
	}

	message, err := s.db.GetMessage(messageId)
	if err == nil {
		publishChange("messages", models.EventUpdate, messageId, message.CategoryId)
	}

	resp["comment"] = comment

	return c.JSON(http.StatusOK, resp)
}

func publicURL(bucket, key string) string {
	return os.Getenv("S3_PUBLIC_URL") + "/" + bucket + "/" + key
}
