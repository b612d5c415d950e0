package server

import (
	"gocommunity/internal/models"

	"github.com/labstack/echo/v4"
)

func (s *Server) SessionAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionCookie, err := c.Cookie("session")
		if err != nil {
			return echo.NewHTTPError(401, "No session cookie available")
		}

		session, err := s.db.GetSession(sessionCookie.Value)
		if err != nil {
			return echo.NewHTTPError(401, "Invalid session")
		}

		user, err := s.db.GetUser(session.UserId, "")
		if err != nil {
			return echo.NewHTTPError(401, "No user related to this session")
		}

		c.Set("user", user)

		return next(c)
	}
}

// AdminMiddleware relies on the stored is_admin flag; it is the only admin
// check in the codebase.
func (s *Server) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get("user").(models.User)
		if !ok || !user.IsAdmin {
			return echo.NewHTTPError(403, "Admin access required")
		}

		return next(c)
	}
}

func currentUser(c echo.Context) models.User {
	user, _ := c.Get("user").(models.User)
	return user
}
