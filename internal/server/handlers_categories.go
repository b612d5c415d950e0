package server

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) HandlerChatCategories(c echo.Context) error {
	resp := make(map[string]any)

	categories, err := s.db.ListChatCategories()
	if err != nil {
		resp["message"] = "An error occured when fetching categories."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["categories"] = categories

	return c.JSON(http.StatusOK, resp)
}

type CreateCategoryBody struct {
	Name string `json:"name"`
}

func (s *Server) HandlerCreateChatCategory(c echo.Context) error {
	resp := make(map[string]any)

	body := new(CreateCategoryBody)
	if err := c.Bind(body); err != nil || body.Name == "" {
		resp["message"] = "A category needs a name."
		return c.JSON(http.StatusBadRequest, resp)
	}

	category, err := s.db.CreateChatCategory(body.Name)
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the category."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["category"] = category

	return c.JSON(http.StatusOK, resp)
}
