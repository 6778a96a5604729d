/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Trivia Royale
//
// Teams take turns answering questions read out on a shared display. The
// question list comes from an AI provider when keys are configured, and from
// the built-in question files otherwise.
//
// Every game lives at $path/:gameid. Any browser opening that URL becomes
// another view of the same game: all of them receive the same screens, and
// key presses from any of them drive the game.

package main

import (
	"context"
	"crypto/rand"
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/triviaroyale/questions"
	"github.com/Seednode/triviaroyale/session"
)

//go:embed defaults/*.json
var defaultQuestions embed.FS

// LookupMessage asks the display to open a web search for a question.
type LookupMessage struct {
	Type     string `json:"type"` // "lookup"
	Question string `json:"question"`
	URL      string `json:"url"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

// Hub is the set of browsers showing one game. It is the controller's view.
type Hub struct {
	id      string
	clients map[*Client]bool
	screen  *session.Screen

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	controller *session.Controller
	cancel     context.CancelFunc
}

func newHub(gameID string) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		createdAt:  now,
		lastActive: now,
	}
}

// Render stores the screen for late joiners and sends it to every client.
func (h *Hub) Render(s session.Screen) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.screen = &s
	h.lastActive = time.Now()
	h.broadcastLocked(s)
}

func (h *Hub) Lookup(question, searchURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(LookupMessage{
		Type:     "lookup",
		Question: question,
		URL:      searchURL,
	})
}

// broadcastLocked drops clients that cannot keep up.
func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	h.lastActive = time.Now()

	if h.screen != nil {
		c.send <- *h.screen
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.lastActive = time.Now()
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

// closeAll stops the game and disconnects all clients of this hub.
func (h *Hub) closeAll() {
	if h.cancel != nil {
		h.cancel()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated game.
type GameManager struct {
	mu          sync.Mutex
	ctx         context.Context
	cfg         *Config
	hubs        map[string]*Hub
	idleTimeout time.Duration

	acquirer session.Acquirer
	keys     session.KeyStore
}

func newGameManager(ctx context.Context, cfg *Config, acquirer session.Acquirer, keys session.KeyStore) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		cfg:         cfg,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		acquirer:    acquirer,
		keys:        keys,
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

// getHub returns the hub for gameID, starting its controller on first use.
func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gameID)

	ctx, cancel := context.WithCancel(gm.ctx)
	hub.cancel = cancel
	hub.controller = session.New(hub, gm.acquirer, gm.keys, func(format string, args ...any) {
		logf(gm.cfg, "GAMES: [%s] "+format, append([]any{gameID}, args...)...)
	})

	gm.hubs[gameID] = hub
	go hub.controller.Run(ctx)

	logf(gm.cfg, "GAMES: Started game %s", gameID)

	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs that have been idle since before cutoff.
func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()

			logf(gm.cfg, "GAMES: Reaped idle game %s after %s", id, time.Since(hub.createdAt).Round(time.Second))
		}
	}
}

func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(max(gm.idleTimeout/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Websocket upgrade for %s failed: %v", realIP(r), err)
			return
		}

		logf(cfg, "SERVE: %s joined game %s", realIP(r), gameID)

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		hub.register(client)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		var in session.Input
		if err := c.conn.ReadJSON(&in); err != nil {
			return
		}

		h.touch()
		h.controller.Dispatch(in)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	path := strings.TrimSuffix(r.URL.Path, "/qr")

	const qrSize = 320
	png, err := qrcode.Encode(scheme+"://"+r.Host+path, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		data, err := assets.ReadFile("assets/trivia/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Game page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// questionFiles is the built-in question bank unless --questions-dir is set.
func questionFiles(cfg *Config) fs.FS {
	if cfg.questionsDir != "" {
		return os.DirFS(cfg.questionsDir)
	}

	sub, err := fs.Sub(defaultQuestions, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

func newAcquirer(cfg *Config, creds *Credentials) *questions.Acquirer {
	logger := func(format string, args ...any) {
		logf(cfg, format, args...)
	}

	client := &http.Client{}

	return questions.NewAcquirer(
		questions.NewBank(questionFiles(cfg), logger),
		cfg.providerTimeout,
		logger,
		&questions.Gemini{
			Model:   cfg.geminiModel,
			BaseURL: questions.GeminiBaseURL,
			Key:     creds.Gemini,
			Client:  client,
		},
		&questions.Mistral{
			Model:   cfg.mistralModel,
			BaseURL: questions.MistralBaseURL,
			Key:     creds.Mistral,
			Client:  client,
		},
	)
}

// registerTriviaGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML display
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerTriviaGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router, creds *Credentials, errs chan<- error) *GameManager {
	gm := newGameManager(ctx, cfg, newAcquirer(cfg, creds), creds)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
