package relay

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aamitn/bitmutex-website-sub000/logger"
	"github.com/aamitn/bitmutex-website-sub000/tools/ids"
)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
}

// HandleWS upgrades the request, registers the visitor and runs the read
// loop until the peer goes away. The read loop only reads; all writes happen
// on the client's writer pump.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Common case: plain HTTP request / handshake failure.
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), ws, s.sendQueue)
	go client.WritePump()

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.gw.Accept(client)

	// ---- read loop: read only, never write; exit on error ----
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", client.ID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", client.ID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", client.ID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrameJSON(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Debugf("[WS] ParseFrameJSON err conn=%s err=%v sample=%q len=%d",
				client.ID, perr, sample, len(data))
			continue
		}

		if frame.Event != EventChatMessage {
			logger.Debugf("[WS] ignoring event=%s conn=%s", frame.Event, client.ID)
			continue
		}
		msg, merr := frame.ChatMessage()
		if merr != nil || msg.Text == "" {
			continue
		}
		s.gw.OnVisitorMessage(client.ID, msg.Text)
	}

	// ---- exit phase: deregister, broadcast new count, stop the writer ----
	s.gw.OnConnectionClosed(client.ID)
	client.Close()
}
