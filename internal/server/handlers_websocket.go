package server

import (
	"math/rand"

	"github.com/labstack/echo/v4"
)

// WEBSOCKET
func (s *Server) HandlerWebsocket(c echo.Context) error {
	upgrader := NewWebsocketUpgrader()

	so, err := upgrader.Upgrade(c.Response(), c.Request())
	if err != nil {
		return err
	}

	socket := &Socket{so}
	socket.Session().Store("emitterId", rand.Int63())

	Sub(globalEmitter, "messages", socket)
	Sub(globalEmitter, "polls", socket)

	go func() {
		socket.ReadLoop()
	}()

	return nil
}
