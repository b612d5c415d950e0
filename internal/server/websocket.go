package server

import (
	"encoding/json"
	"log"
	"time"

	"gocommunity/internal/models"

	"github.com/lxzan/event_emitter"
	"github.com/lxzan/gws"
)

const (
	PingInterval = 5 * time.Second
	PingWait     = 30 * time.Minute
)

type Handler struct{}

func NewWebsocketUpgrader() *gws.Upgrader {
	return gws.NewUpgrader(&Handler{}, &gws.ServerOption{
		ParallelEnabled:   true,
		Recovery:          gws.Recovery,
		PermessageDeflate: gws.PermessageDeflate{Enabled: true},
	})
}

func (c *Handler) OnOpen(socket *gws.Conn) {
	_ = socket.SetDeadline(time.Now().Add(PingInterval + PingWait))
}

func (c *Handler) OnClose(socket *gws.Conn, err error) {
	globalEmitter.UnSubscribeAll(&Socket{socket})
}

func (c *Handler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(PingInterval + PingWait))
	_ = socket.WriteString("pong")
}

func (c *Handler) OnPong(socket *gws.Conn, payload []byte) {}

func (c *Handler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	if b := message.Data.Bytes(); len(b) == 4 && string(b) == "ping" {
		c.OnPing(socket, nil)
		return
	}
}

type Socket struct{ *gws.Conn }

func (c *Socket) GetSubscriberID() int64 {
	emitterId, _ := c.Session().Load("emitterId")
	return emitterId.(int64)
}

func (c *Socket) GetMetadata() event_emitter.Metadata {
	return c.Session()
}

func Sub(em *event_emitter.EventEmitter[*Socket], topic string, socket *Socket) {
	em.Subscribe(socket, topic, func(subscriber *Socket, msg any) {
		_ = msg.(*gws.Broadcaster).Broadcast(subscriber.Conn)
	})
}

func Pub(em *event_emitter.EventEmitter[*Socket], topic string, op gws.Opcode, msg []byte) {
	broadcaster := gws.NewBroadcaster(op, msg)
	defer broadcaster.Close()
	em.Publish(topic, broadcaster)
}

// publishChange fans a row-change notification out to every socket watching
// the table's topic.
func publishChange(table, event, id, categoryId string) {
	wsMess := models.WSMessage{
		Type: "change",
		Content: models.ChangeEvent{
			Table:      table,
			Event:      event,
			ID:         id,
			CategoryId: categoryId,
		},
	}

	data, err := json.Marshal(wsMess)
	if err != nil {
		log.Println(err)
		return
	}

	Pub(globalEmitter, table, gws.OpcodeText, data)
}
