package server

import (
	"context"

	cws "github.com/coder/websocket"

	"github.com/draftsync/draftsync/common"
)

// wsChannel carries jrpc2 traffic over a WebSocket. jrpc2's Channel
// contract maps one-to-one onto message frames: every Send is one text
// frame, every Recv returns the payload of one frame. The context is
// the one the connection was accepted under, so tearing down the HTTP
// server unblocks any pending Recv.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func newWSChannel(ctx context.Context, conn *cws.Conn) *wsChannel {
	conn.SetReadLimit(common.MaxMessageSize)
	return &wsChannel{conn: conn, ctx: ctx}
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close performs a clean WebSocket closing handshake.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}
