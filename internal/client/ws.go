package client

import (
	"crypto/tls"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"gocommunity/internal/feed"
	"gocommunity/internal/models"

	"github.com/lxzan/gws"
)

type wsConn struct {
	gws.BuiltinEventHandler
	conn   *gws.Conn
	client *Client
}

func (h *wsConn) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var envelope struct {
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(message.Bytes(), &envelope); err != nil {
		log.Println("error decoding realtime message:", err)
		return
	}
	if envelope.Type != "change" {
		return
	}

	var change models.ChangeEvent
	if err := json.Unmarshal(envelope.Content, &change); err != nil {
		log.Println("error decoding change event:", err)
		return
	}

	h.client.dispatch(feed.Event{
		Table:      change.Table,
		Type:       change.Event,
		ID:         change.ID,
		CategoryID: change.CategoryId,
	})
}

// Subscribe opens the websocket on first use and registers fn for change
// events on table. The returned func removes the registration.
func (c *Client) Subscribe(table string, fn func(feed.Event)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ws == nil {
		ws, err := c.dial()
		if err != nil {
			return nil, err
		}
		c.ws = ws
	}

	if c.subscribers[table] == nil {
		c.subscribers[table] = make(map[int]func(feed.Event))
	}
	id := c.nextSub
	c.nextSub++
	c.subscribers[table][id] = fn

	return func() {
		c.mu.Lock()
		delete(c.subscribers[table], id)
		c.mu.Unlock()
	}, nil
}

func (c *Client) dial() (*wsConn, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	wsURL := *base
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"

	header := http.Header{}
	if c.http.Jar != nil {
		cookies := make([]string, 0)
		for _, cookie := range c.http.Jar.Cookies(base) {
			cookies = append(cookies, cookie.String())
		}
		if len(cookies) > 0 {
			header.Set("Cookie", strings.Join(cookies, "; "))
		}
	}

	handler := &wsConn{client: c}
	option := &gws.ClientOption{
		Addr:          wsURL.String(),
		RequestHeader: header,
	}
	if transport, ok := c.http.Transport.(*http.Transport); ok && transport.TLSClientConfig != nil {
		option.TlsConfig = transport.TLSClientConfig.Clone()
	} else if wsURL.Scheme == "wss" {
		option.TlsConfig = &tls.Config{}
	}

	socket, _, err := gws.NewClient(handler, option)
	if err != nil {
		return nil, err
	}
	handler.conn = socket

	go socket.ReadLoop()

	return handler, nil
}

func (c *Client) dispatch(ev feed.Event) {
	c.mu.Lock()
	fns := make([]func(feed.Event), 0, len(c.subscribers[ev.Table]))
	for _, fn := range c.subscribers[ev.Table] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close shuts the realtime connection down.
func (c *Client) Close() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil && ws.conn != nil {
		ws.conn.WriteClose(1000, nil)
	}
}
