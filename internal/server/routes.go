package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/", s.HelloWorldHandler)
	e.GET("/health", s.healthHandler)

	// Auth
	e.POST("/auth/signup", s.HandlerSignUp)
	e.POST("/auth/signin", s.HandlerSignIn)
	e.POST("/auth/signout", s.HandlerSignOut)
	e.GET("/auth/verify", s.HandlerVerify)
	e.POST("/auth/magic-link", s.HandlerMagicLink)
	e.GET("/auth/magic-link/verify", s.HandlerRedeemMagicLink)
	e.PATCH("/auth/password", s.HandlerChangePassword, s.SessionAuthMiddleware)
	e.GET("/auth/:provider", s.ProviderLoginHandler)
	e.GET("/auth/:provider/callback", s.AuthCallbackHandler)

	// Realtime
	e.GET("/ws", s.HandlerWebsocket)

	// Community feed
	community := e.Group("/community", s.SessionAuthMiddleware)
	community.GET("/categories", s.HandlerChatCategories)
	community.POST("/categories", s.HandlerCreateChatCategory, s.AdminMiddleware)
	community.GET("/messages", s.HandlerListMessages)
	community.GET("/messages/:id", s.HandlerGetMessage)
	community.POST("/messages", s.HandlerSendMessage)
	community.DELETE("/messages/:id", s.HandlerDeleteMessage)
	community.PATCH("/messages/:id/pin", s.HandlerTogglePin, s.AdminMiddleware)
	community.POST("/messages/:id/like", s.HandlerLikeMessage)
	community.POST("/messages/:id/comments", s.HandlerAddComment)
	community.GET("/polls", s.HandlerListPolls)
	community.GET("/poll-options", s.HandlerListPollOptions)
	community.GET("/poll-votes", s.HandlerListPollVotes)
	community.POST("/polls", s.HandlerCreatePoll)
	community.POST("/polls/:id/votes", s.HandlerVotePoll)
	community.DELETE("/polls/:id", s.HandlerDeletePoll)

	// Profile
	users := e.Group("/users", s.SessionAuthMiddleware)
	users.GET("/me", s.HandlerGetMe)
	users.PATCH("/me", s.HandlerUpdateMe)
	users.POST("/me/avatar", s.HandlerChangeAvatar)

	// Libraries
	library := e.Group("/library", s.SessionAuthMiddleware)
	library.GET("/ai-tools", s.HandlerListAITools)
	library.POST("/ai-tools", s.HandlerCreateAITool, s.AdminMiddleware)
	library.PATCH("/ai-tools/:id", s.HandlerUpdateAITool, s.AdminMiddleware)
	library.DELETE("/ai-tools/:id", s.HandlerDeleteAITool, s.AdminMiddleware)
	library.GET("/ai-tool-categories", s.HandlerListToolCategories)
	library.POST("/ai-tool-categories", s.HandlerCreateToolCategory, s.AdminMiddleware)
	library.GET("/blueprints", s.HandlerListBlueprints)
	library.POST("/blueprints", s.HandlerCreateBlueprint, s.AdminMiddleware)
	library.PATCH("/blueprints/:id", s.HandlerUpdateBlueprint, s.AdminMiddleware)
	library.DELETE("/blueprints/:id", s.HandlerDeleteBlueprint, s.AdminMiddleware)
	library.GET("/blueprint-categories", s.HandlerListBlueprintCategories)
	library.POST("/blueprint-categories", s.HandlerCreateBlueprintCategory, s.AdminMiddleware)
	library.GET("/classes", s.HandlerListClasses)
	library.POST("/classes", s.HandlerCreateClass, s.AdminMiddleware)
	library.PATCH("/classes/:id", s.HandlerUpdateClass, s.AdminMiddleware)
	library.DELETE("/classes/:id", s.HandlerDeleteClass, s.AdminMiddleware)
	library.GET("/class-categories", s.HandlerListClassCategories)
	library.POST("/class-categories", s.HandlerCreateClassCategory, s.AdminMiddleware)

	// Admin
	admin := e.Group("/admin", s.SessionAuthMiddleware, s.AdminMiddleware)
	admin.GET("/users", s.HandlerListUsers)
	admin.PATCH("/users/:id", s.HandlerUpdateUser)
	admin.GET("/webhooks", s.HandlerListWebhooks)
	admin.POST("/webhooks", s.HandlerCreateWebhook)
	admin.PATCH("/webhooks/:id", s.HandlerUpdateWebhook)
	admin.DELETE("/webhooks/:id", s.HandlerDeleteWebhook)

	return e
}
