package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"gocommunity/internal/models"

	"github.com/labstack/echo/v4"
)

// AI TOOLS
func (s *Server) HandlerListAITools(c echo.Context) error {
	resp := make(map[string]any)

	tools, err := s.db.ListAITools()
	if err != nil {
		resp["message"] = "An error occured when fetching tools."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["tools"] = tools

	return c.JSON(http.StatusOK, resp)
}

type ToolBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ToolURL     string   `json:"tool_url"`
	Categories  []string `json:"categories"`
}

func (s *Server) HandlerCreateAITool(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(ToolBody)
	if err := bindMultipartBody(c, body); err != nil {
		resp["message"] = "An error occured when parsing the tool."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if body.Title == "" || body.ToolURL == "" {
		resp["message"] = "A tool needs a title and a URL."
		return c.JSON(http.StatusBadRequest, resp)
	}

	logoURL, err := s.uploadLogo(c, "ai-tool-logos", user.ID)
	if err != nil {
		resp["message"] = err.Error()
		return c.JSON(http.StatusBadRequest, resp)
	}

	tool, err := s.db.CreateAITool(models.AITool{
		Title:       body.Title,
		Description: body.Description,
		LogoURL:     logoURL,
		ToolURL:     body.ToolURL,
		UserId:      user.ID,
		Categories:  body.Categories,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the tool."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["tool"] = tool

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerUpdateAITool(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(ToolBody)
	if err := bindMultipartBody(c, body); err != nil {
		resp["message"] = "An error occured when parsing the tool."
		return c.JSON(http.StatusBadRequest, resp)
	}

	logoURL, err := s.uploadLogo(c, "ai-tool-logos", user.ID)
	if err != nil {
		resp["message"] = err.Error()
		return c.JSON(http.StatusBadRequest, resp)
	}

	err = s.db.UpdateAITool(models.AITool{
		ID:          c.Param("id"),
		Title:       body.Title,
		Description: body.Description,
		LogoURL:     logoURL,
		ToolURL:     body.ToolURL,
		Categories:  body.Categories,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when updating the tool."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerDeleteAITool(c echo.Context) error {
	resp := make(map[string]any)

	if err := s.db.DeleteAITool(c.Param("id")); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when deleting the tool."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerListToolCategories(c echo.Context) error {
	return s.listLibraryCategories(c, s.db.ListToolCategories)
}

func (s *Server) HandlerCreateToolCategory(c echo.Context) error {
	return s.createLibraryCategory(c, s.db.CreateToolCategory)
}

// BLUEPRINTS
func (s *Server) HandlerListBlueprints(c echo.Context) error {
	resp := make(map[string]any)

	blueprints, err := s.db.ListBlueprints()
	if err != nil {
		resp["message"] = "An error occured when fetching blueprints."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["blueprints"] = blueprints

	return c.JSON(http.StatusOK, resp)
}

type BlueprintBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DownloadURL string   `json:"download_url"`
	Categories  []string `json:"categories"`
}

func (s *Server) HandlerCreateBlueprint(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(BlueprintBody)
	if err := bindMultipartBody(c, body); err != nil {
		resp["message"] = "An error occured when parsing the blueprint."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if body.Title == "" || body.DownloadURL == "" {
		resp["message"] = "A blueprint needs a title and a download URL."
		return c.JSON(http.StatusBadRequest, resp)
	}

	logoURL, err := s.uploadLogo(c, "blueprint-logos", user.ID)
	if err != nil {
		resp["message"] = err.Error()
		return c.JSON(http.StatusBadRequest, resp)
	}

	blueprint, err := s.db.CreateBlueprint(models.Blueprint{
		Title:       body.Title,
		Description: body.Description,
		LogoURL:     logoURL,
		DownloadURL: body.DownloadURL,
		UserId:      user.ID,
		Categories:  body.Categories,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the blueprint."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["blueprint"] = blueprint

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerUpdateBlueprint(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(BlueprintBody)
	if err := bindMultipartBody(c, body); err != nil {
		resp["message"] = "An error occured when parsing the blueprint."
		return c.JSON(http.StatusBadRequest, resp)
	}

	logoURL, err := s.uploadLogo(c, "blueprint-logos", user.ID)
	if err != nil {
		resp["message"] = err.Error()
		return c.JSON(http.StatusBadRequest, resp)
	}

	err = s.db.UpdateBlueprint(models.Blueprint{
		ID:          c.Param("id"),
		Title:       body.Title,
		Description: body.Description,
		LogoURL:     logoURL,
		DownloadURL: body.DownloadURL,
		Categories:  body.Categories,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when updating the blueprint."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerDeleteBlueprint(c echo.Context) error {
	resp := make(map[string]any)

	if err := s.db.DeleteBlueprint(c.Param("id")); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when deleting the blueprint."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerListBlueprintCategories(c echo.Context) error {
	return s.listLibraryCategories(c, s.db.ListBlueprintCategories)
}

func (s *Server) HandlerCreateBlueprintCategory(c echo.Context) error {
	return s.createLibraryCategory(c, s.db.CreateBlueprintCategory)
}

// CLASSES
func (s *Server) HandlerListClasses(c echo.Context) error {
	resp := make(map[string]any)

	classes, err := s.db.ListClasses()
	if err != nil {
		resp["message"] = "An error occured when fetching classes."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["classes"] = classes

	return c.JSON(http.StatusOK, resp)
}

type ClassBody struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VideoURL    string   `json:"video_url"`
	Categories  []string `json:"categories"`
}

func (s *Server) HandlerCreateClass(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(ClassBody)
	if err := c.Bind(body); err != nil || body.Name == "" || body.VideoURL == "" {
		resp["message"] = "A class needs a name and a video URL."
		return c.JSON(http.StatusBadRequest, resp)
	}

	class, err := s.db.CreateClass(models.Class{
		Name:        body.Name,
		Description: body.Description,
		VideoURL:    body.VideoURL,
		UserId:      user.ID,
		Categories:  body.Categories,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the class."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["class"] = class

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerUpdateClass(c echo.Context) error {
	resp := make(map[string]any)

	body := new(ClassBody)
	if err := c.Bind(body); err != nil {
		resp["message"] = "An error occured when updating the class."
		return c.JSON(http.StatusBadRequest, resp)
	}

	err := s.db.UpdateClass(models.Class{
		ID:          c.Param("id"),
		Name:        body.Name,
		Description: body.Description,
		VideoURL:    body.VideoURL,
		Categories:  body.Categories,
	})
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when updating the class."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerDeleteClass(c echo.Context) error {
	resp := make(map[string]any)

	if err := s.db.DeleteClass(c.Param("id")); err != nil {
		log.Println(err)
		resp["message"] = "An error occured when deleting the class."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerListClassCategories(c echo.Context) error {
	return s.listLibraryCategories(c, s.db.ListClassCategories)
}

func (s *Server) HandlerCreateClassCategory(c echo.Context) error {
	return s.createLibraryCategory(c, s.db.CreateClassCategory)
}

// helpers shared by the three libraries

func (s *Server) listLibraryCategories(c echo.Context, list func() ([]models.LibraryCategory, error)) error {
	resp := make(map[string]any)

	categories, err := list()
	if err != nil {
		resp["message"] = "An error occured when fetching categories."
		return c.JSON(http.StatusNotFound, resp)
	}

	resp["categories"] = categories

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) createLibraryCategory(c echo.Context, create func(name, userId string) (models.LibraryCategory, error)) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(CreateCategoryBody)
	if err := c.Bind(body); err != nil || body.Name == "" {
		resp["message"] = "A category needs a name."
		return c.JSON(http.StatusBadRequest, resp)
	}

	category, err := create(body.Name, user.ID)
	if err != nil {
		log.Println(err)
		resp["message"] = "An error occured when creating the category."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["category"] = category

	return c.JSON(http.StatusOK, resp)
}

// bindMultipartBody decodes the JSON "body" form field of a multipart
// request (the logo travels as a separate file part).
func bindMultipartBody(c echo.Context, out any) error {
	bodyStr := c.FormValue("body")
	return json.Unmarshal([]byte(bodyStr), out)
}

// uploadLogo stores an optional "logo" file part and returns its public URL,
// or "" when no logo was sent.
func (s *Server) uploadLogo(c echo.Context, bucket, userId string) (string, error) {
	file, err := c.FormFile("logo")
	if err != nil {
		return "", nil
	}

	return s.uploadImageAsJPEG(bucket, userId, file.Size, func() (io.ReadCloser, error) {
		return file.Open()
	})
}
