package database

import (
	"fmt"
	"log"

	"gocommunity/internal/models"

	"github.com/surrealdb/surrealdb.go"
)

func (s *service) ListWebhooks() ([]models.Webhook, error) {
	res, err := s.db.Query("SELECT * FROM webhooks ORDER BY created_at DESC", map[string]interface{}{})
	if err != nil {
		log.Println(err)
		return nil, err
	}

	webhooks, err := surrealdb.SmartUnmarshal[[]models.Webhook](res, err)
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return webhooks, nil
}

func (s *service) GetWebhookByType(whType string) (models.Webhook, error) {
	res, err := s.db.Query("SELECT * FROM ONLY webhooks WHERE type = $type LIMIT 1", map[string]string{
		"type": whType,
	})
	if err != nil {
		log.Println(err)
		return models.Webhook{}, err
	}

	webhook, err := surrealdb.SmartUnmarshal[models.Webhook](res, err)
	if err != nil {
		return models.Webhook{}, err
	}

	if webhook.URL == "" {
		return models.Webhook{}, fmt.Errorf("no webhook configured for type %s", whType)
	}

	return webhook, nil
}

func (s *service) CreateWebhook(webhook models.Webhook) (models.Webhook, error) {
	res, err := s.db.Query(`
    CREATE ONLY webhooks CONTENT {
      type: $type,
      url: $url,
      created_at: time::now(),
    };
    `, map[string]string{
		"type": webhook.Type,
		"url":  webhook.URL,
	})
	if err != nil {
		log.Println(err)
		return models.Webhook{}, fmt.Errorf("an error occured while creating the webhook")
	}

	created, err := surrealdb.SmartUnmarshal[models.Webhook](res, err)
	if err != nil {
		log.Println(err)
		return models.Webhook{}, err
	}

	return created, nil
}

func (s *service) UpdateWebhook(webhook models.Webhook) error {
	_, err := s.db.Query(`UPDATE $id SET type=$type, url=$url`, map[string]string{
		"id":   webhook.ID,
		"type": webhook.Type,
		"url":  webhook.URL,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while updating the webhook")
	}

	return nil
}

func (s *service) DeleteWebhook(id string) error {
	_, err := s.db.Query(`DELETE $id`, map[string]string{
		"id": id,
	})
	if err != nil {
		log.Println(err)
		return fmt.Errorf("an error occured while deleting the webhook")
	}

	return nil
}
