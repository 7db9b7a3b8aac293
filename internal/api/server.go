package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moment-machine/internal/db"
	"moment-machine/internal/model"
	"moment-machine/internal/sim"
	"moment-machine/internal/taxonomy"
	"moment-machine/internal/ws"
)

type Server struct {
	sim       *sim.Simulator
	hub       *ws.Hub
	archive   *db.Store // nil when no DATABASE_URL is configured
	secret    []byte
	adminHash []byte
}

func NewServer(s *sim.Simulator, hub *ws.Hub, archive *db.Store, secret string, adminHash []byte) *Server {
	return &Server{sim: s, hub: hub, archive: archive, secret: []byte(secret), adminHash: adminHash}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	// Health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json200(w, map[string]string{"status": "ok"})
	})

	// Auth (public)
	r.Post("/api/admin/login", s.adminLogin)

	// WebSocket
	r.Get("/ws", s.hub.HandleWS)

	// Simulation surface
	r.Post("/api/events", s.ingestEvent)
	r.Post("/api/trades", s.executeTrade)
	r.Post("/api/resolve", s.resolvePending)

	r.Get("/api/bots", s.listBots)
	r.Get("/api/bots/{id}/stats", s.getBotStats)
	r.Get("/api/bots/{id}/trades", s.getBotTrades)
	r.Get("/api/leaderboard", s.getLeaderboard)
	r.Get("/api/trades", s.getRecentTrades)

	// Admin
	r.Group(func(r chi.Router) {
		r.Use(s.adminOnly)
		r.Post("/api/admin/seed", s.seedDemo)
		r.Get("/api/admin/metrics", s.metrics)
		r.Get("/api/admin/archive", s.listArchive)
	})

	return r
}

// ── Auth ─────────────────────────────────────────────

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid json")
		return
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)); err != nil {
		jsonErr(w, 401, "invalid credentials")
		return
	}
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": "ADMIN",
		"exp":  time.Now().Add(72 * time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	json200(w, map[string]string{"token": token})
}

type ctxKey string

const ctxRole ctxKey = "role"

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			jsonErr(w, 401, "missing token")
			return
		}
		token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			jsonErr(w, 401, "invalid token")
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			jsonErr(w, 401, "invalid claims")
			return
		}
		role, _ := claims["role"].(string)
		if role != "ADMIN" {
			jsonErr(w, 403, "admin only")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRole, role)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Events & Trades ──────────────────────────────────

type eventReq struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Team        string  `json:"team"`
	Player      string  `json:"player"`
	Quarter     int     `json:"quarter"`
	Clock       string  `json:"clock"`
	HomeScore   int     `json:"home_score"`
	AwayScore   int     `json:"away_score"`
	Confidence  float64 `json:"confidence"`
}

func (e eventReq) toEvent() model.GameEvent {
	ev := model.GameEvent{
		ID:          e.ID,
		Kind:        model.EventKind(e.Kind),
		Description: e.Description,
		Team:        e.Team,
		Player:      e.Player,
		Quarter:     e.Quarter,
		Clock:       e.Clock,
		HomeScore:   e.HomeScore,
		AwayScore:   e.AwayScore,
		Timestamp:   time.Now(),
		Confidence:  e.Confidence,
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Kind == "" {
		ev.Kind = taxonomy.Classify(ev.Description)
	}
	return ev
}

func (s *Server) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var req eventReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid json")
		return
	}
	if req.Description == "" && req.Kind == "" {
		jsonErr(w, 400, "description or kind required")
		return
	}
	ev := req.toEvent()
	s.hub.Publish(ws.ChannelEvents, "game_event", ev)
	trades := s.sim.ReactToEvent(ev)
	json200(w, map[string]any{"event": ev, "trades": trades})
}

func (s *Server) executeTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BotID  string   `json:"bot_id"`
		Market *string  `json:"market"`
		Action *string  `json:"action"`
		Event  eventReq `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid json")
		return
	}
	if req.BotID == "" {
		jsonErr(w, 400, "bot_id required")
		return
	}
	var action *model.TradeAction
	if req.Action != nil {
		a := model.TradeAction(strings.ToUpper(*req.Action))
		action = &a
	}
	// Unknown bot or non-significant event yields null, not an error.
	trade := s.sim.ExecuteTrade(req.BotID, req.Event.toEvent(), req.Market, action)
	json200(w, map[string]any{"trade": trade})
}

func (s *Server) resolvePending(w http.ResponseWriter, r *http.Request) {
	json200(w, map[string]any{"resolved": s.sim.ResolvePendingTrades()})
}

// ── Bots & Leaderboard ───────────────────────────────

func (s *Server) listBots(w http.ResponseWriter, r *http.Request) {
	json200(w, s.sim.BotsWithStats())
}

func (s *Server) getBotStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := s.sim.StatsFor(id)
	if !ok {
		jsonErr(w, 404, "bot not found")
		return
	}
	json200(w, st)
}

func (s *Server) getBotTrades(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.sim.Bot(id); !ok {
		jsonErr(w, 404, "bot not found")
		return
	}
	trades := s.sim.TradesForBot(id)
	if trades == nil {
		trades = []model.Trade{}
	}
	json200(w, trades)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	json200(w, s.sim.Leaderboard())
}

func (s *Server) getRecentTrades(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 200 {
		limit = n
	}
	json200(w, s.sim.RecentTrades(limit))
}

// ── Admin ────────────────────────────────────────────

func (s *Server) seedDemo(w http.ResponseWriter, r *http.Request) {
	s.sim.SeedDemo()
	json200(w, map[string]string{"status": "seeded"})
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	m := s.sim.Metrics()
	m["archive_enabled"] = s.archive != nil
	if s.archive != nil {
		if n, err := s.archive.CountArchived(r.Context()); err == nil {
			m["archived_trades"] = n
		}
	}
	json200(w, m)
}

func (s *Server) listArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonErr(w, 503, "archive not configured")
		return
	}
	limit := 0
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	trades, err := s.archive.ListArchived(r.Context(), limit)
	if err != nil {
		jsonErr(w, 500, err.Error())
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	json200(w, trades)
}

// ── Helpers ──────────────────────────────────────────

func json200(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
