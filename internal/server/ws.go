package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/blockduel/internal/matchmaker"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 120 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 64
)

// InMsg is a client → server WebSocket message.
//
//	{"t":"step"}
//	{"t":"action","action":"left"}
//	{"t":"state"}
//	{"t":"join"}
type InMsg struct {
	T      string `json:"t"`
	ReqID  string `json:"reqId,omitempty"`
	Action string `json:"action,omitempty"`
}

// OutMsg is a server → client WebSocket message.
type OutMsg struct {
	T     string `json:"t"`
	ReqID string `json:"reqId,omitempty"`
	P     any    `json:"p,omitempty"`
}

// ErrPayload is the body of a "error" message.
type ErrPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type wsConn struct {
	ws          *websocket.Conn
	send        chan []byte
	participant matchmaker.ParticipantID
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	// Pass the headers collected so far so a freshly issued cookie
	// reaches the client with the handshake.
	ws, err := s.upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "participant", int64(p), "error", err)
		return
	}
	c := &wsConn{ws: ws, send: make(chan []byte, wsSendBuffer), participant: p}
	s.logger.Debug("websocket connected", "participant", int64(p))

	go s.writePump(c)
	s.readPump(c)
}

// readPump handles requests until the connection fails, then stops the
// write pump.
func (s *Server) readPump(c *wsConn) {
	defer func() {
		close(c.send)
		_ = c.ws.Close()
		s.logger.Debug("websocket closed", "participant", int64(c.participant))
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "participant", int64(c.participant), "error", err)
			}
			return
		}

		var in InMsg
		if err := json.Unmarshal(data, &in); err != nil {
			s.sendErr(c, "", CodeBadJSON, "invalid json")
			continue
		}
		s.dispatch(c, in)
	}
}

func (s *Server) dispatch(c *wsConn, in InMsg) {
	p := c.participant
	switch in.T {
	case "join":
		v, apiErr := s.join(p)
		s.replyWS(c, in.ReqID, "match", v, apiErr)
	case "step":
		v, apiErr := s.step(p)
		s.replyWS(c, in.ReqID, "step", v, apiErr)
	case "action":
		v, apiErr := s.act(p, in.Action)
		s.replyWS(c, in.ReqID, "action", v, apiErr)
	case "state":
		v, apiErr := s.state(p)
		s.replyWS(c, in.ReqID, "state", v, apiErr)
	default:
		s.sendErr(c, in.ReqID, CodeUnknownType, "unknown message type: "+in.T)
	}
}

func (s *Server) replyWS(c *wsConn, reqID, t string, payload any, apiErr *APIError) {
	if apiErr != nil {
		s.sendErr(c, reqID, apiErr.Code, apiErr.Message)
		return
	}
	s.sendMsg(c, OutMsg{T: t, ReqID: reqID, P: payload})
}

func (s *Server) writePump(c *wsConn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMsg queues out for the client, dropping it if the client is not
// keeping up.
func (s *Server) sendMsg(c *wsConn, out OutMsg) {
	b, err := json.Marshal(out)
	if err != nil {
		s.logger.Error("encode websocket message", "error", err)
		return
	}
	select {
	case c.send <- b:
	default:
		s.logger.Warn("websocket send buffer full", "participant", int64(c.participant))
	}
}

func (s *Server) sendErr(c *wsConn, reqID, code, msg string) {
	s.sendMsg(c, OutMsg{T: "error", ReqID: reqID, P: ErrPayload{Code: code, Msg: msg}})
}
