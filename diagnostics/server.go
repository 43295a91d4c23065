package diagnostics

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/latticeforge/paragon/mcts"
)

// Websocket handshake timing constants.
const (
	writeWait        = 1 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	closeGracePeriod = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// VisitDelta is one root-edge visit-count update pushed to a connected
// browser.
type VisitDelta struct {
	Action string  `json:"action"`
	N      uint32  `json:"n"`
	Prior  float32 `json:"prior"`
}

// VisitDeltas converts a Run's root edge summary into the wire shape
// Server streams, rendering each action through fmt.Sprintf("%v", ...)
// the same way Snapshot does.
func VisitDeltas[A comparable](edges []mcts.EdgeSummary[A]) []VisitDelta {
	out := make([]VisitDelta, len(edges))
	for i, e := range edges {
		out[i] = VisitDelta{Action: fmt.Sprintf("%v", e.Action), N: e.Edge.N, Prior: e.Edge.Prior}
	}
	return out
}

// Server streams root visit-count deltas read off a channel to connected
// websocket clients. Every connection reads from the same channel, so
// each update reaches exactly one client; updates are not broadcast.
type Server struct {
	addr    string
	updates <-chan []VisitDelta
}

// NewServer returns a Server that streams whatever arrives on updates to
// the clients connected to /ws, each update to one of them.
func NewServer(addr string, updates <-chan []VisitDelta) *Server {
	return &Server{addr: addr, updates: updates}
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.serveWebsocket)
	return r
}

// ListenAndServe blocks serving the router until the listener fails.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.router())
}

// ServeHTTP makes Server itself an http.Handler, so it can be wrapped in
// an httptest.Server without going through ListenAndServe's real
// listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router().ServeHTTP(w, r)
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("diagnostics: upgrade:", err)
		return
	}
	defer closeWebsocket(ws)

	for deltas := range s.updates {
		if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Println("diagnostics: set write deadline:", err)
			return
		}
		if err := ws.WriteJSON(deltas); err != nil {
			log.Println("diagnostics: write json:", err)
			return
		}
	}
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	ws.Close()
}
