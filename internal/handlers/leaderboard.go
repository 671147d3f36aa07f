// internal/handlers/leaderboard.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mwrobel/moresongs/internal/cache"
	"github.com/mwrobel/moresongs/internal/database"
)

const leaderboardLimit = 50

// LeaderboardHandler returns the global points ranking. The rendered ranking
// is served from redis when a fresh copy is cached, postgres otherwise.
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	var rows []database.LeaderboardRow
	if !cache.GetLeaderboard(r.Context(), &rows) {
		var err error
		rows, err = s.Store.GlobalLeaderboard(r.Context(), leaderboardLimit)
		if err != nil {
			logrus.Warnf("failed to load leaderboard: %v", err)
			http.Error(w, "error loading leaderboard", http.StatusInternalServerError)
			return
		}
		if err := cache.SetLeaderboard(r.Context(), rows); err != nil {
			logrus.Warnf("failed to cache leaderboard: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}
