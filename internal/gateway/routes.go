package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"quizhost/internal/coordinator"
	"quizhost/internal/database"
	"quizhost/internal/persistence"
	"quizhost/internal/quiz"
	"quizhost/internal/quizstore"
)

// Server is the HTTP/WebSocket surface: it resolves a request to a
// game id (directly, or via a PIN) and hands the socket to that
// game's Coordinator.
type Server struct {
	db       database.Service
	adapter  *persistence.PgAdapter
	quizzes  *quizstore.Store
	dispatch *GameDispatch
	pins     *PinIndex

	rateLimiter *RateLimiter
	health      *ConnectionHealth

	originPatterns []string
}

func NewServer(db database.Service, adapter *persistence.PgAdapter, quizzes *quizstore.Store, dispatch *GameDispatch, pins *PinIndex, originPatterns []string) *Server {
	return &Server{
		db:             db,
		adapter:        adapter,
		quizzes:        quizzes,
		dispatch:       dispatch,
		pins:           pins,
		rateLimiter:    NewRateLimiter(10, time.Second),
		health:         NewConnectionHealth(),
		originPatterns: originPatterns,
	}
}

func (s *Server) RegisterRoutes() http.Handler {
	mux := httprouter.New()

	mux.GET("/health", s.handleHealth)
	mux.POST("/games", s.handleCreateGame)
	mux.GET("/pin/:gameId", s.handleGetPin)
	mux.GET("/state/:gameId", s.handleGetState)
	mux.GET("/join/:pin", s.handleJoinByPin)
	mux.GET("/games/:gameId/join.png", s.handleJoinQR)
	mux.GET("/ws/:gameId", s.handleWebSocket)
	mux.POST("/quizzes", s.handleCreateQuiz)
	mux.GET("/quizzes/:quizId", s.handleGetQuiz)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.db.Health())
}

// handleCreateGame mints a new game id and spins up its Coordinator
// (empty lobby, fresh PIN) so a host can immediately load a quiz.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	gameID := uuid.NewString()
	c, err := s.dispatch.GetOrCreate(gameID)
	if err != nil {
		http.Error(w, "failed to create game", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"gameId": gameID, "gamePin": c.Pin()})
}

func (s *Server) handleGetPin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameId")
	c, ok := s.dispatch.Get(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"gamePin": c.Pin()})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameId")
	state, err := s.adapter.Load(r.Context(), gameID)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"gamePin": state.GamePin, "phase": string(state.Phase)})
}

// handleCreateQuiz saves a quiz a host authored ahead of a session, so
// it can be loaded into a game later by id instead of re-sent in full
// over the host's websocket every time.
func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var q quiz.Quiz
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "malformed quiz body", http.StatusBadRequest)
		return
	}

	saved, err := s.quizzes.Create(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q, err := s.quizzes.Get(r.Context(), ps.ByName("quizId"))
	if err != nil {
		http.Error(w, "quiz not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleJoinByPin resolves a PIN to its game and redirects to that
// game's websocket bootstrap endpoint — the gateway only resolves and
// redirects, the actual join UI is an external frontend concern.
func (s *Server) handleJoinByPin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	pin := ps.ByName("pin")
	gameID, ok := s.pins.Lookup(pin)
	if !ok {
		http.Error(w, "pin not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/ws/%s?host=false", gameID), http.StatusFound)
}

// handleJoinQR generates a PNG QR code linking to the browser join
// page for gameId, sized for scanning off a projector screen.
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameId")
	c, ok := s.dispatch.Get(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	joinURL := fmt.Sprintf("%s://%s/join/%s", scheme, r.Host, c.Pin())

	const qrSize = 320
	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// handleWebSocket admits a socket into a game's Coordinator. The
// "host" query parameter decides the session's role at the point of
// admission; it is never re-derived later.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameId")
	c, err := s.dispatch.GetOrCreate(gameID)
	if err != nil {
		http.Error(w, "failed to open game", http.StatusInternalServerError)
		return
	}
	isHost := r.URL.Query().Get("host") == "true"

	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		http.Error(w, "failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "server closing")

	ctx := r.Context()
	connectionID := uuid.NewString()
	log.Printf("gateway: new connection %s to game %s (host=%v)", connectionID, gameID, isHost)

	sess := &coordinator.Session{
		ID:     connectionID,
		Conn:   newWsConn(socket),
		IsHost: isHost,
	}
	c.Connect(sess)
	defer func() {
		c.Disconnect(sess)
		s.rateLimiter.RemoveConnection(connectionID)
		s.health.RemoveConnection(connectionID)
		log.Printf("gateway: connection %s closed", connectionID)
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		s.health.UpdateActivity(connectionID)
		if !s.rateLimiter.Allow(connectionID) {
			_ = sess.Conn.Send(coordinator.ServerMessage{
				Type:    "error",
				Payload: map[string]string{"message": "RATE_LIMIT_EXCEEDED: too many messages, please slow down"},
			})
			continue
		}

		c.Inbound(sess, data)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
