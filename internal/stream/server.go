package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olivierh59500/dot-spawner/internal/sim"
)

const (
	writeWait  = time.Second
	sendBuffer = 4
)

// Dot is one particle on the wire
type Dot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Alpha uint8   `json:"a"`
}

// Message is the JSON document sent for every frame
type Message struct {
	Frame      int     `json:"frame"`
	Population int     `json:"population"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Dots       []Dot   `json:"dots"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Server broadcasts frames to websocket clients on /ws and serves a small
// canvas viewer on /.
type Server struct {
	width, height float64
	upgrader      websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool // set by Close, refuses late upgrades

	httpServer *http.Server
}

func New(width, height float64) *Server {
	return &Server{
		width:  width,
		height: height,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler routes / and /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, viewerPage)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Print(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		mux.ServeHTTP(w, r)
	})
}

// Listen binds addr and serves in the background
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	s.httpServer = &http.Server{Handler: s.Handler()}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("stream: serve: %v", err)
		}
	}()
	log.Printf("stream: serving on http://%s", ln.Addr())
	return ln.Addr(), nil
}

// Clients returns the number of connected viewers
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.Println(err)
		}
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// readPump discards incoming messages and drops the client on close
func (s *Server) readPump(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("stream: %v", err)
			}
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	defer s.drop(c)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

// Encode turns a frame into its wire form
func (s *Server) Encode(f sim.Frame) ([]byte, error) {
	msg := Message{
		Frame:      f.Index,
		Population: f.Population,
		Width:      s.width,
		Height:     s.height,
		Dots:       make([]Dot, len(f.Positions)),
	}
	for i, p := range f.Positions {
		c := f.Colors[i]
		msg.Dots[i] = Dot{
			X:     p.X,
			Y:     p.Y,
			Color: fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
			Alpha: c.A,
		}
	}
	return json.Marshal(msg)
}

// Render broadcasts f. Clients that cannot keep up are dropped.
func (s *Server) Render(f sim.Frame) error {
	data, err := s.Encode(f)
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	s.mu.Lock()
	var slow []*client
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.Unlock()

	for _, c := range slow {
		log.Printf("stream: dropping slow client %s", c.conn.RemoteAddr())
		s.drop(c)
	}
	return nil
}

// Close stops the HTTP server and disconnects every client
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

const viewerPage = `<!DOCTYPE html>
<html>
<head><title>dots</title></head>
<body style="margin:0;background:#fff">
<canvas id="c"></canvas>
<script>
const cv = document.getElementById("c");
const ctx = cv.getContext("2d");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const m = JSON.parse(ev.data);
  cv.width = m.width; cv.height = m.height;
  ctx.clearRect(0, 0, m.width, m.height);
  for (const d of m.dots) {
    if (d.a === 0) continue;
    ctx.fillStyle = d.color;
    ctx.beginPath();
    ctx.arc(d.x, m.height - d.y, 5, 0, 2 * Math.PI);
    ctx.fill();
  }
};
</script>
</body>
</html>
`
