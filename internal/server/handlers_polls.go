package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"gocommunity/internal/database"
	"gocommunity/internal/models"

	"github.com/labstack/echo/v4"
)

func (s *Server) HandlerListPolls(c echo.Context) error {
	resp := make(map[string]any)

	polls, err := s.db.ListPolls(c.QueryParam("category"))
	if err != nil {
		resp["message"] = "An error occured when fetching polls."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["polls"] = polls

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerListPollOptions(c echo.Context) error {
	resp := make(map[string]any)

	options, err := s.db.ListPollOptions(splitIds(c.QueryParam("polls")))
	if err != nil {
		resp["message"] = "An error occured when fetching poll options."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["options"] = options

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerListPollVotes(c echo.Context) error {
	resp := make(map[string]any)

	votes, err := s.db.ListPollVotes(splitIds(c.QueryParam("options")))
	if err != nil {
		resp["message"] = "An error occured when fetching poll votes."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["votes"] = votes

	return c.JSON(http.StatusOK, resp)
}

type CreatePollBody struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	CategoryId string   `json:"category_id"`
	ExpiresAt  string   `json:"expires_at"`
}

func (s *Server) HandlerCreatePoll(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(CreatePollBody)
	if err := c.Bind(body); err != nil {
		resp["message"] = "An error occured when creating the poll."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if body.Question == "" || len(body.Options) < 2 {
		resp["message"] = "A poll needs a question and at least two options."
		return c.JSON(http.StatusBadRequest, resp)
	}

	poll, err := s.db.CreatePoll(models.Poll{
		Author:     models.User{ID: user.ID},
		Question:   body.Question,
		CategoryId: body.CategoryId,
		ExpiresAt:  body.ExpiresAt,
	}, body.Options)
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the poll."
		return c.JSON(http.StatusBadRequest, resp)
	}

	publishChange("polls", models.EventInsert, poll.ID, poll.CategoryId)

	resp["poll"] = poll

	return c.JSON(http.StatusOK, resp)
}

type VoteBody struct {
	OptionId string `json:"option_id"`
}

func (s *Server) HandlerVotePoll(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)
	pollId := c.Param("id")

	body := new(VoteBody)
	if err := c.Bind(body); err != nil || body.OptionId == "" {
		resp["message"] = "An error occured when voting."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if err := s.db.CreateVote(body.OptionId, user.ID); err != nil {
		if errors.Is(err, database.ErrDuplicateVote) {
			resp["message"] = err.Error()
			return c.JSON(http.StatusConflict, resp)
		}
		log.Println(err)
		resp["message"] = "An error occured when voting."
		return c.JSON(http.StatusBadRequest, resp)
	}

	publishChange("polls", models.EventUpdate, pollId, "")

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerDeletePoll(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)
	pollId := c.Param("id")

	polls, err := s.db.ListPolls("")
	if err != nil {
		resp["message"] = "An error occured when deleting the poll."
		return c.JSON(http.StatusBadRequest, resp)
	}

	var poll models.Poll
	for _, p := range polls {
		if p.ID == pollId {
			poll = p
			break
		}
	}
	if poll.ID == "" {
		resp["message"] = "No poll found."
		return c.JSON(http.StatusNotFound, resp)
	}

	if !user.IsAdmin && poll.Author.ID != user.ID {
		resp["message"] = "You can only delete your own polls"
		return c.JSON(http.StatusForbidden, resp)
	}

	if err := s.db.DeletePoll(pollId); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when deleting the poll."
		return c.JSON(http.StatusBadRequest, resp)
	}

	publishChange("polls", models.EventDelete, pollId, poll.CategoryId)

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func splitIds(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}

	return ids
}
