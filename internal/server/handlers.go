package server

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/markbates/goth/gothic"
)

func (s *Server) HelloWorldHandler(c echo.Context) error {
	resp := map[string]string{
		"message": "Hello World",
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// OAUTH
func (s *Server) ProviderLoginHandler(c echo.Context) error {
	provider := c.Param("provider")

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		return provider, nil
	}

	if _, err := gothic.CompleteUserAuth(c.Response(), c.Request()); err == nil {
		c.Redirect(http.StatusTemporaryRedirect, os.Getenv("FRONTEND_URL"))
	} else {
		log.Println(err)
		gothic.BeginAuthHandler(c.Response(), c.Request())
	}

	return nil
}

func (s *Server) AuthCallbackHandler(c echo.Context) error {
	provider := c.Param("provider")

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		return provider, nil
	}

	user, err := gothic.CompleteUserAuth(c.Response(), c.Request())
	if err != nil {
		return err
	}

	err = s.auth.StoreUserSession(c, user)
	if err != nil {
		return err
	}

	c.Redirect(http.StatusTemporaryRedirect, os.Getenv("FRONTEND_URL"))
	return nil
}
