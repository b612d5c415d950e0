package server

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"gocommunity/internal/database"
	"gocommunity/internal/models"
	"gocommunity/internal/utils"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
)

// AUTH
type UserBodySignup struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Niche       string `json:"niche"`
}

func (s *Server) HandlerSignUp(c echo.Context) error {
	resp := make(map[string]any)

	body := new(UserBodySignup)
	if err := c.Bind(body); err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when creating your account."

		return c.JSON(http.StatusBadRequest, resp)
	}

	if !utils.EmailValid(body.Email) {
		resp["name"] = "email"
		resp["message"] = "The format of the email is invalid."

		return c.JSON(http.StatusConflict, resp)
	}

	_, err := s.db.GetUser("", body.Email)
	if err == nil {
		resp["name"] = "email"
		resp["message"] = "This email is unavailable."

		return c.JSON(http.StatusConflict, resp)
	}

	hashedPassword, err := argon2id.CreateHash(body.Password, argon2id.DefaultParams)
	if err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when creating your account."

		return c.JSON(http.StatusBadRequest, resp)
	}

	userCreated := models.User{
		Email:       body.Email,
		Password:    hashedPassword,
		DisplayName: body.DisplayName,
		Phone:       body.Phone,
		Niche:       body.Niche,
		IsAdmin:     false,
	}

	userId, err := s.db.CreateUser(userCreated)
	if err != nil {
		log.Println("error when creating the user", err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when creating your account."

		return c.JSON(http.StatusBadRequest, resp)
	}
	userCreated.ID = userId

	// Webhook failures are logged only, never surfaced to the user.
	go s.FireAuthWebhook(userCreated)

	sess, err := s.db.CreateSession(models.Session{
		IpAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		UserId:    userId,
	})
	if err != nil {
		log.Println("error when creating a session after creating account:", err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when trying to connect to your account."

		return c.JSON(http.StatusBadRequest, resp)
	}

	setSessionCookie(c, sess)

	resp["message"] = "success"
	resp["user"] = map[string]any{
		"id":           userId,
		"email":        userCreated.Email,
		"display_name": userCreated.DisplayName,
		"is_admin":     false,
	}

	return c.JSON(http.StatusOK, resp)
}

type UserBodySignIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) HandlerSignIn(c echo.Context) error {
	resp := make(map[string]any)

	body := new(UserBodySignIn)
	if err := c.Bind(body); err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when signing in."

		return c.JSON(http.StatusBadRequest, resp)
	}

	user, err := s.db.GetUser("", body.Email)
	if err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "Please check your login information and try again."

		return c.JSON(http.StatusBadRequest, resp)
	}

	match, err := argon2id.ComparePasswordAndHash(body.Password, user.Password)
	if err != nil || !match {
		resp["name"] = "unexpected"
		resp["message"] = "Please check your login information and try again."

		return c.JSON(http.StatusBadRequest, resp)
	}

	sess, err := s.db.CreateSession(models.Session{
		IpAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		UserId:    user.ID,
	})
	if err != nil {
		log.Println("error when creating the user session", err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured on sign in."

		return c.JSON(http.StatusBadRequest, resp)
	}

	setSessionCookie(c, sess)

	resp["message"] = "success"
	resp["user"] = map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"is_admin":     user.IsAdmin,
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerSignOut(c echo.Context) error {
	resp := make(map[string]any)

	sessionCookie, err := c.Cookie("session")
	if err == nil {
		if err := s.db.DeleteSession(sessionCookie.Value); err != nil {
			log.Println(err)
		}
	}

	expired := new(http.Cookie)
	expired.Name = "session"
	expired.Path = "/"
	expired.MaxAge = -1
	expired.HttpOnly = true
	expired.Secure = true
	expired.SameSite = http.SameSiteNoneMode
	c.SetCookie(expired)

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerVerify(c echo.Context) error {
	resp := make(map[string]any)

	sessionCookie, err := c.Cookie("session")
	if err != nil {
		resp["message"] = "No session cookie available."

		return c.JSON(http.StatusUnauthorized, resp)
	}

	session, err := s.db.GetSession(sessionCookie.Value)
	if err != nil {
		log.Println(err)
		resp["message"] = "No session related to given id."

		return c.JSON(http.StatusUnauthorized, resp)
	}

	user, err := s.db.GetUser(session.UserId, "")
	if err != nil {
		log.Println(err)
		resp["message"] = "No user match the given id from session."

		return c.JSON(http.StatusUnauthorized, resp)
	}

	resp["message"] = "success"
	resp["user"] = map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"is_admin":     user.IsAdmin,
		"phone":        user.Phone,
		"niche":        user.Niche,
	}

	return c.JSON(http.StatusOK, resp)
}

type ChangePasswordBody struct {
	Password string `json:"password"`
}

func (s *Server) HandlerChangePassword(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(ChangePasswordBody)
	if err := c.Bind(body); err != nil || body.Password == "" {
		resp["name"] = "password"
		resp["message"] = "An error occured when updating your password."
		return c.JSON(http.StatusBadRequest, resp)
	}

	hashedPassword, err := argon2id.CreateHash(body.Password, argon2id.DefaultParams)
	if err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when updating your password."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if err := s.db.ChangePassword(user.ID, hashedPassword); err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when updating your password."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

type MagicLinkBody struct {
	Email string `json:"email"`
}

// HandlerMagicLink mails a one-time sign in link. The response is the same
// whether or not the email belongs to an account.
func (s *Server) HandlerMagicLink(c echo.Context) error {
	resp := make(map[string]any)

	body := new(MagicLinkBody)
	if err := c.Bind(body); err != nil || !utils.EmailValid(body.Email) {
		resp["name"] = "email"
		resp["message"] = "The format of the email is invalid."

		return c.JSON(http.StatusBadRequest, resp)
	}

	user, err := s.db.GetUser("", body.Email)
	if err != nil {
		resp["message"] = "success"
		return c.JSON(http.StatusOK, resp)
	}

	token, err := s.db.CreateMagicLink(user.ID)
	if err != nil {
		log.Println("error when creating a sign in link:", err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when sending your sign in link."

		return c.JSON(http.StatusBadRequest, resp)
	}

	link := os.Getenv("FRONTEND_URL") + "/auth/magic?token=" + token
	if err := s.mail.SendMagicLink(user.Email, link); err != nil {
		log.Println("error when sending a sign in link:", err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured when sending your sign in link."

		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerRedeemMagicLink(c echo.Context) error {
	resp := make(map[string]any)

	userId, err := s.db.RedeemMagicLink(c.QueryParam("token"))
	if err != nil {
		if errors.Is(err, database.ErrInvalidMagicLink) {
			resp["message"] = "This sign in link is invalid or has expired."
			return c.JSON(http.StatusUnauthorized, resp)
		}
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured on sign in."

		return c.JSON(http.StatusBadRequest, resp)
	}

	user, err := s.db.GetUser(userId, "")
	if err != nil {
		log.Println(err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured on sign in."

		return c.JSON(http.StatusBadRequest, resp)
	}

	sess, err := s.db.CreateSession(models.Session{
		IpAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		UserId:    user.ID,
	})
	if err != nil {
		log.Println("error when creating the user session", err)
		resp["name"] = "unexpected"
		resp["message"] = "An error occured on sign in."

		return c.JSON(http.StatusBadRequest, resp)
	}

	setSessionCookie(c, sess)

	resp["message"] = "success"
	resp["user"] = map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"is_admin":     user.IsAdmin,
	}

	return c.JSON(http.StatusOK, resp)
}

// setSessionCookie falls back to a 30 day expiry when the stored timestamp
// does not parse.
func setSessionCookie(c echo.Context, sess models.Session) {
	sessionExpire, err := time.Parse(time.RFC3339, sess.ExpiresAt)
	if err != nil {
		sessionExpire = time.Now().Add(30 * 24 * time.Hour)
	}

	session := new(http.Cookie)
	session.Name = "session"
	session.Path = "/"
	session.Value = sess.ID
	session.Expires = sessionExpire
	session.HttpOnly = true
	session.Secure = true
	session.SameSite = http.SameSiteNoneMode
	c.SetCookie(session)
}
