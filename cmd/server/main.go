// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/mwrobel/moresongs/internal/auth"
	"github.com/mwrobel/moresongs/internal/cache"
	"github.com/mwrobel/moresongs/internal/config"
	"github.com/mwrobel/moresongs/internal/database"
	"github.com/mwrobel/moresongs/internal/game"
	"github.com/mwrobel/moresongs/internal/handlers"
	"github.com/mwrobel/moresongs/internal/middleware"
	"github.com/mwrobel/moresongs/internal/playlist"
	"github.com/mwrobel/moresongs/internal/rooms"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg := config.Load()

	db := database.ConnectDB()
	store := database.NewStore(db)

	if err := cache.ConnectRedis(); err != nil {
		// The leaderboard falls back to postgres without redis.
		logger.Warnf("redis unavailable: %v", err)
	}

	registry := rooms.NewRegistry()
	provider := playlist.NewYouTubeClient()
	orch := game.NewOrchestrator(store, registry, provider, clockwork.NewRealClock(), cfg.Game)
	srv := handlers.NewServer(store, orch, registry, cfg)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", srv.CreateUserHandler)
	mux.HandleFunc("/user/login", srv.LoginHandler)

	// lobby endpoints
	mux.Handle("/lobby/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.CreateLobbyHandler,
	)))
	mux.Handle("/lobby/join", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.JoinLobbyHandler,
	)))
	mux.Handle("/lobby/current", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.CurrentLobbyHandler,
	)))

	// leaderboard
	mux.Handle("/leaderboard", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.LeaderboardHandler,
	)))

	// lobby ws
	mux.Handle("/lobby/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LobbyWSHandler(logger, srv),
	)))

	logger.Infof("Running on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
