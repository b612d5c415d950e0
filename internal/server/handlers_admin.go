package server

import (
	"log"
	"net/http"

	"gocommunity/internal/models"

	"github.com/labstack/echo/v4"
)

// USERS
func (s *Server) HandlerListUsers(c echo.Context) error {
	resp := make(map[string]any)

	users, err := s.db.ListUsers()
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when fetching users."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["users"] = users

	return c.JSON(http.StatusOK, resp)
}

type UpdateUserBody struct {
	DisplayName *string `json:"display_name,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
}

func (s *Server) HandlerUpdateUser(c echo.Context) error {
	resp := make(map[string]any)
	userId := c.Param("id")

	body := new(UpdateUserBody)
	if err := c.Bind(body); err != nil {
		resp["message"] = "An error occured when updating the user."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if body.DisplayName != nil {
		if err := s.db.ChangeDisplayName(userId, *body.DisplayName); err != nil {
			log.Println(err)
			resp["message"] = "An error occured when updating the user."
			return c.JSON(http.StatusBadRequest, resp)
		}
	}

	if body.IsAdmin != nil {
		if err := s.db.SetAdmin(userId, *body.IsAdmin); err != nil {
			log.Println(err)
			resp["message"] = "An error occured when updating the user."
			return c.JSON(http.StatusBadRequest, resp)
		}
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

// WEBHOOKS
func (s *Server) HandlerListWebhooks(c echo.Context) error {
	resp := make(map[string]any)

	webhooks, err := s.db.ListWebhooks()
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when fetching webhooks."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["webhooks"] = webhooks

	return c.JSON(http.StatusOK, resp)
}

type WebhookBody struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (s *Server) HandlerCreateWebhook(c echo.Context) error {
	resp := make(map[string]any)

	body := new(WebhookBody)
	if err := c.Bind(body); err != nil || body.Type == "" || body.URL == "" {
		resp["message"] = "A webhook needs a type and a URL."
		return c.JSON(http.StatusBadRequest, resp)
	}

	webhook, err := s.db.CreateWebhook(models.Webhook{
		Type: body.Type,
		URL:  body.URL,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the webhook."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["webhook"] = webhook

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerUpdateWebhook(c echo.Context) error {
	resp := make(map[string]any)

	body := new(WebhookBody)
	if err := c.Bind(body); err != nil || body.Type == "" || body.URL == "" {
		resp["message"] = "A webhook needs a type and a URL."
		return c.JSON(http.StatusBadRequest, resp)
	}

	err := s.db.UpdateWebhook(models.Webhook{
		ID:   c.Param("id"),
		Type: body.Type,
		URL:  body.URL,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when updating the webhook."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerDeleteWebhook(c echo.Context) error {
	resp := make(map[string]any)

	if err := s.db.DeleteWebhook(c.Param("id")); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when deleting the webhook."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}
