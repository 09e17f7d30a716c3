package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	ReplyOK         = "OK"
	FullSpeed       = 255
	ShutdownTimeout = 5 * time.Second
)

// Car is the command surface the transport drives.
type Car interface {
	Dispatch(command string, value int) error
	Drive(throttle, steering float64) error
}

type route struct {
	path    string
	command string
	value   int
	reply   string
}

var routes = []route{
	{path: "/fwd", command: models.CommandForward, value: FullSpeed, reply: "Forward"},
	{path: "/rev", command: models.CommandReverse, value: FullSpeed, reply: "Reverse"},
	{path: "/stop", command: models.CommandStop, reply: "Stop"},
	{path: "/left", command: models.CommandLeft, reply: "Left"},
	{path: "/right", command: models.CommandRight, reply: "Right"},
	{path: "/center", command: models.CommandCenter, reply: "Center"},
}

type Server struct {
	cfg          config.WebConfig
	car          Car
	onConnection func(connected bool)
	router       chi.Router
	upgrader     websocket.Upgrader

	clientLock sync.Mutex
	clients    map[uuid.UUID]*websocket.Conn
}

// NewServer builds the router. onConnection fires when the first client
// connects and when the last one leaves, it may be nil.
func NewServer(cfg config.WebConfig, car Car, onConnection func(connected bool)) *Server {
	s := &Server{
		cfg:          cfg,
		car:          car,
		onConnection: onConnection,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[uuid.UUID]*websocket.Conn),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer) // make sure this is last

	for _, rt := range routes {
		r.Get(rt.path, s.handleCommand(rt))
	}
	r.Post("/control", s.handleControl)
	r.Get("/ws", s.handleWS)
	r.Get("/*", s.handleStatic())

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done, then shuts down and drops every
// WebSocket client.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: ShutdownTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.cfg.Address).Str("static", s.cfg.StaticDir).Msg("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("stopping web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			log.Warn().Err(err).Msg("web server shutdown incomplete")
		}
		s.closeClients()
		return ctx.Err()
	case err := <-errCh:
		s.closeClients()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	}
}

func (s *Server) Clients() int {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()
	return len(s.clients)
}

func (s *Server) handleCommand(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.car.Dispatch(rt.command, rt.value)
		if err != nil {
			log.Error().Err(err).Str("command", rt.command).Msg("command failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, rt.reply)
	}
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	cmd := models.RcCommand{}
	err := json.NewDecoder(r.Body).Decode(&cmd)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting malformed control request")
		http.Error(w, "malformed control request", http.StatusBadRequest)
		return
	}

	err = s.car.Drive(cmd.Throttle, cmd.Steering)
	if err != nil {
		log.Error().Err(err).Msg("drive failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, ReplyOK)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New()
	s.addClient(id, conn)
	defer s.removeClient(id)
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("client", id.String()).Msg("websocket read ended")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if !s.handleMessage(id, data) {
			continue
		}

		err = conn.WriteMessage(websocket.TextMessage, []byte(ReplyOK))
		if err != nil {
			log.Warn().Err(err).Str("client", id.String()).Msg("failed writing reply")
			return
		}
	}
}

// handleMessage reports whether the frame was a valid command.
func (s *Server) handleMessage(id uuid.UUID, data []byte) bool {
	msg, err := models.ParseCommand(data)
	if err != nil {
		log.Warn().Err(err).Str("client", id.String()).Msg("rejecting websocket message")
		return false
	}

	if msg.Type == models.MsgTypeRcCommand {
		err = s.car.Drive(msg.Payload.Throttle, msg.Payload.Steering)
	} else {
		err = s.car.Dispatch(msg.Command, msg.CommandValue())
	}
	if err != nil {
		log.Error().Err(err).Str("client", id.String()).Msg("command failed")
	}
	return true
}

// handleStatic serves the UI. Anything that does not look like a file is
// sent back to the index.
func (s *Server) handleStatic() http.HandlerFunc {
	fs := http.FileServer(http.Dir(s.cfg.StaticDir))
	return func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "/" && (path.Ext(p) == "" || strings.HasSuffix(p, ".local")) {
			http.Redirect(w, r, "/", http.StatusMovedPermanently)
			return
		}
		fs.ServeHTTP(w, r)
	}
}

func (s *Server) addClient(id uuid.UUID, conn *websocket.Conn) {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	s.clients[id] = conn
	log.Info().Str("client", id.String()).Int("clients", len(s.clients)).Msg("websocket client connected")
	if len(s.clients) == 1 && s.onConnection != nil {
		s.onConnection(true)
	}
}

func (s *Server) removeClient(id uuid.UUID) {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	_, found := s.clients[id]
	if !found {
		return
	}
	delete(s.clients, id)
	log.Info().Str("client", id.String()).Int("clients", len(s.clients)).Msg("websocket client disconnected")
	if len(s.clients) == 0 && s.onConnection != nil {
		s.onConnection(false)
	}
}

func (s *Server) closeClients() {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	for id, conn := range s.clients {
		err := conn.Close()
		if err != nil {
			log.Debug().Err(err).Str("client", id.String()).Msg("failed closing websocket client")
		}
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}
