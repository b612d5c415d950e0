package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"gocommunity/internal/models"
)

type authWebhookPayload struct {
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Niche       string  `json:"niche"`
	Bio         *string `json:"bio"`
	JoinedAt    string  `json:"joined_at"`
}

// FireAuthWebhook posts the new member's details to the configured
// auth_webhook URL. Fire and forget: failures are logged, never surfaced.
func (s *Server) FireAuthWebhook(user models.User) {
	webhook, err := s.db.GetWebhookByType("auth_webhook")
	if err != nil {
		return
	}

	PostWebhook(webhook.URL, authWebhookPayload{
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Phone:       user.Phone,
		Niche:       user.Niche,
		Bio:         nil,
		JoinedAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

func PostWebhook(url string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Println("error marshaling webhook payload:", err)
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	res, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		log.Println("error calling webhook:", err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		log.Println("webhook responded with status", res.StatusCode)
	}
}
