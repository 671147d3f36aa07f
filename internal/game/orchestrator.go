// internal/game/orchestrator.go
package game

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/mwrobel/moresongs/internal/cache"
	"github.com/mwrobel/moresongs/internal/config"
	"github.com/mwrobel/moresongs/internal/models"
	"github.com/mwrobel/moresongs/internal/playlist"
)

// Store is the persistence surface the orchestrator needs. *database.Store
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetLobby(ctx context.Context, lobbyID int64) (*models.Lobby, error)
	DeleteLobby(ctx context.Context, lobbyID int64) error
	ListPlayers(ctx context.Context, lobbyID int64) ([]models.PlayerScore, error)
	ResetScores(ctx context.Context, lobbyID int64) error
	ResetGame(ctx context.Context, lobbyID int64) error
	SetRounds(ctx context.Context, lobbyID int64, rounds int) error
	BeginRound(ctx context.Context, lobbyID int64, round int, endsAt time.Time) error
	BeginReveal(ctx context.Context, lobbyID int64, endsAt time.Time) error
	FinishGame(ctx context.Context, lobbyID int64) error
	AwardPoint(ctx context.Context, lobbyID int64, userID uuid.UUID, round int) (bool, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetUserLobby(ctx context.Context, userID uuid.UUID, lobbyID *int64) error

	ReplaceTracks(ctx context.Context, lobbyID int64, tracks []models.Track) error
	GetTrack(ctx context.Context, lobbyID int64, round int) (*models.Track, error)
	ListTrackTitles(ctx context.Context, lobbyID int64) ([]string, error)
}

// Broadcaster fans events out to a lobby's live sessions. SendTo targets a
// single member, used to replay round state to someone joining mid-game.
type Broadcaster interface {
	Broadcast(lobbyID int64, msg interface{})
	SendTo(lobbyID int64, userID uuid.UUID, msg interface{})
}

// Orchestrator drives the lobby and game lifecycle. All state transitions go
// through the store; in-memory state is limited to timers and per-lobby locks,
// so a callback that fires after a lobby is gone finds nothing and stops.
type Orchestrator struct {
	store    Store
	rooms    Broadcaster
	provider playlist.Provider
	timers   *RoundTimers
	clock    clockwork.Clock
	cfg      config.Game

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewOrchestrator wires an orchestrator. provider may be nil, in which case
// every game uses the built-in demo tracks.
func NewOrchestrator(store Store, rooms Broadcaster, provider playlist.Provider, clock clockwork.Clock, cfg config.Game) *Orchestrator {
	return &Orchestrator{
		store:    store,
		rooms:    rooms,
		provider: provider,
		timers:   NewRoundTimers(clock),
		clock:    clock,
		cfg:      cfg,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// ParseLobbyID parses a wire-format lobby id. Malformed ids are a normal
// client condition and callers treat ok=false as a silent no-op.
func ParseLobbyID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// lobbyLock returns the mutex serializing all transitions for one lobby.
func (o *Orchestrator) lobbyLock(lobbyID int64) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[lobbyID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[lobbyID] = l
	}
	return l
}

func (o *Orchestrator) dropLobbyLock(lobbyID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.locks, lobbyID)
}

// Join attaches a user to a lobby and broadcasts the new membership.
func (o *Orchestrator) Join(ctx context.Context, lobbyID int64, userID uuid.UUID) {
	l := o.lobbyLock(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := o.store.GetLobby(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("join: lobby %d lookup failed: %v", lobbyID, err)
		return
	}
	if lobby == nil {
		logrus.Warnf("join: lobby %d does not exist", lobbyID)
		return
	}

	if err := o.store.SetUserLobby(ctx, userID, &lobbyID); err != nil {
		logrus.Warnf("join: failed to set lobby for user %s: %v", userID, err)
		return
	}

	o.broadcastMembership(ctx, lobby)
	o.replayRound(ctx, lobby, userID)
}

// replayRound sends the current round's payload to one user so a client that
// joins or reconnects mid-round sees the same state as everyone else. Outside
// PLAYING there is nothing to replay.
func (o *Orchestrator) replayRound(ctx context.Context, lobby *models.Lobby, userID uuid.UUID) {
	if lobby.Phase != models.PhasePlaying || lobby.RoundEndsAt == nil {
		return
	}
	track, err := o.store.GetTrack(ctx, lobby.ID, lobby.Round)
	if err != nil || track == nil {
		logrus.Warnf("replay: no track for lobby %d round %d: %v", lobby.ID, lobby.Round, err)
		return
	}
	titles, err := o.store.ListTrackTitles(ctx, lobby.ID)
	if err != nil {
		logrus.Warnf("replay: failed to list titles for lobby %d: %v", lobby.ID, err)
		return
	}
	scores, err := o.store.ListPlayers(ctx, lobby.ID)
	if err != nil {
		logrus.Warnf("replay: failed to list players for lobby %d: %v", lobby.ID, err)
		return
	}
	timeLeft := int(math.Ceil(lobby.RoundEndsAt.Sub(o.clock.Now()).Seconds()))
	if timeLeft < 0 {
		timeLeft = 0
	}
	o.rooms.SendTo(lobby.ID, userID, GameStartedEvent{
		Type:         EventGameStarted,
		LobbyID:      lobbyIDString(lobby.ID),
		Round:        lobby.Round,
		TimeLeft:     timeLeft,
		Scores:       scores,
		MusicID:      track.ID,
		MusicTitle:   track.Title,
		MusicsTitles: titles,
	})
}

// Leave detaches a user. An emptied lobby is deleted and its timers stopped.
// When the departing user is the host, every remaining member is told to
// exit via a leave-lobby directive.
func (o *Orchestrator) Leave(ctx context.Context, lobbyID int64, userID uuid.UUID) {
	l := o.lobbyLock(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := o.store.GetLobby(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("leave: lobby %d lookup failed: %v", lobbyID, err)
		return
	}

	if err := o.store.SetUserLobby(ctx, userID, nil); err != nil {
		logrus.Warnf("leave: failed to clear lobby for user %s: %v", userID, err)
		return
	}
	if lobby == nil {
		return
	}

	players, err := o.store.ListPlayers(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("leave: failed to list players for lobby %d: %v", lobbyID, err)
		return
	}

	if len(players) == 0 {
		o.timers.StopAll(lobbyID)
		if err := o.store.DeleteLobby(ctx, lobbyID); err != nil {
			logrus.Warnf("leave: failed to delete empty lobby %d: %v", lobbyID, err)
			return
		}
		o.dropLobbyLock(lobbyID)
		logrus.Infof("lobby %d emptied and deleted", lobbyID)
		return
	}

	if lobby.HostID == userID {
		// No host transfer. The lobby dissolves as the remaining clients
		// obey the directive and send their own leave-lobby commands.
		o.rooms.Broadcast(lobbyID, LeaveLobbyEvent{Type: EventLeaveLobby})
		return
	}

	o.rooms.Broadcast(lobbyID, LobbyUpdatedEvent{
		Type:    EventLobbyUpdated,
		LobbyID: lobbyIDString(lobbyID),
		HostID:  lobby.HostID.String(),
		Players: players,
	})
}

// StartGame begins a new game in the lobby. Only the host may start, and
// only while no round is in flight. Scores and round state are reset and a
// fresh track sequence is drawn, so a FINISHED lobby can replay.
func (o *Orchestrator) StartGame(ctx context.Context, lobbyID int64, userID uuid.UUID) {
	l := o.lobbyLock(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := o.store.GetLobby(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("start-game: lobby %d lookup failed: %v", lobbyID, err)
		return
	}
	if lobby == nil {
		logrus.Warnf("start-game: lobby %d does not exist", lobbyID)
		return
	}
	if lobby.HostID != userID {
		logrus.Warnf("start-game: user %s is not the host of lobby %d", userID, lobbyID)
		return
	}
	if lobby.Phase == models.PhasePlaying || lobby.Phase == models.PhaseRevealing {
		logrus.Warnf("start-game: lobby %d already has a game in flight", lobbyID)
		return
	}

	o.rooms.Broadcast(lobbyID, StartGameEvent{Type: EventStartGame})

	o.timers.StopAll(lobbyID)
	if err := o.store.ResetScores(ctx, lobbyID); err != nil {
		logrus.Warnf("start-game: failed to reset scores for lobby %d: %v", lobbyID, err)
		return
	}
	if err := o.store.ResetGame(ctx, lobbyID); err != nil {
		logrus.Warnf("start-game: failed to reset lobby %d: %v", lobbyID, err)
		return
	}

	tracks := o.buildTracks(ctx, lobby)
	if len(tracks) == 0 {
		logrus.Warnf("start-game: no tracks available for lobby %d", lobbyID)
		return
	}
	if err := o.store.ReplaceTracks(ctx, lobbyID, tracks); err != nil {
		logrus.Warnf("start-game: failed to store tracks for lobby %d: %v", lobbyID, err)
		return
	}
	// The pool can come up short of the configured round count. Persist the
	// clamped count so the game ends exactly when the sequence does.
	if len(tracks) < lobby.Rounds {
		logrus.Warnf("start-game: lobby %d wanted %d rounds, pool yields %d", lobbyID, lobby.Rounds, len(tracks))
		if err := o.store.SetRounds(ctx, lobbyID, len(tracks)); err != nil {
			logrus.Warnf("start-game: failed to clamp rounds for lobby %d: %v", lobbyID, err)
			return
		}
	}

	o.beginRound(ctx, lobbyID, 1)
}

// buildTracks draws the game's track sequence from the host's playlist,
// falling back to (or topping up from) the demo set.
func (o *Orchestrator) buildTracks(ctx context.Context, lobby *models.Lobby) []models.Track {
	pool := playlist.DemoTracks()
	if o.provider != nil && lobby.PlaylistID != nil {
		host, err := o.store.GetUserByID(ctx, lobby.HostID)
		if err != nil || host == nil || host.AccessToken == "" {
			logrus.Warnf("start-game: no usable access token for host of lobby %d", lobby.ID)
		} else {
			fetched, err := o.provider.Tracks(ctx, host.AccessToken, *lobby.PlaylistID)
			if err != nil {
				logrus.Warnf("start-game: playlist fetch failed for lobby %d: %v", lobby.ID, err)
			} else if len(fetched) > 0 {
				pool = fetched
			}
		}
	}
	rng := rand.New(rand.NewSource(o.clock.Now().UnixNano()))
	return playlist.Select(pool, lobby.Rounds, rng)
}

// beginRound transitions the lobby into PLAYING for the given round, sets the
// wall-clock deadline, broadcasts the round payload and starts the tick. The
// track is resolved before any state is persisted; if the sequence has run
// out the game finishes instead of entering a round nothing can end. Caller
// holds the lobby lock.
func (o *Orchestrator) beginRound(ctx context.Context, lobbyID int64, round int) {
	track, err := o.store.GetTrack(ctx, lobbyID, round)
	if err != nil {
		logrus.Warnf("begin-round: track lookup for lobby %d round %d: %v", lobbyID, round, err)
		return
	}
	if track == nil {
		logrus.Warnf("begin-round: no track for lobby %d round %d, finishing game", lobbyID, round)
		o.finishGame(ctx, lobbyID)
		return
	}

	endsAt := o.clock.Now().Add(o.cfg.RoundDuration)
	if err := o.store.BeginRound(ctx, lobbyID, round, endsAt); err != nil {
		logrus.Warnf("begin-round: lobby %d round %d: %v", lobbyID, round, err)
		return
	}
	titles, err := o.store.ListTrackTitles(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("begin-round: failed to list titles for lobby %d: %v", lobbyID, err)
		return
	}
	scores, err := o.store.ListPlayers(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("begin-round: failed to list players for lobby %d: %v", lobbyID, err)
		return
	}

	o.rooms.Broadcast(lobbyID, GameStartedEvent{
		Type:         EventGameStarted,
		LobbyID:      lobbyIDString(lobbyID),
		Round:        round,
		TimeLeft:     int(o.cfg.RoundDuration / time.Second),
		Scores:       scores,
		MusicID:      track.ID,
		MusicTitle:   track.Title,
		MusicsTitles: titles,
	})

	o.timers.StartTick(lobbyID, o.cfg.TickInterval, func() {
		o.tick(lobbyID)
	})
}

// tick runs once per tick interval during PLAYING. It recomputes the time
// left from the persisted deadline and hands off to the reveal when the
// deadline passes. A tick that finds the lobby gone or out of PLAYING stops
// its own timer.
func (o *Orchestrator) tick(lobbyID int64) {
	ctx := context.Background()
	l := o.lobbyLock(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := o.store.GetLobby(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("tick: lobby %d lookup failed: %v", lobbyID, err)
		return
	}
	if lobby == nil || lobby.Phase != models.PhasePlaying || lobby.RoundEndsAt == nil {
		o.timers.StopTick(lobbyID)
		return
	}

	timeLeft := int(math.Ceil(lobby.RoundEndsAt.Sub(o.clock.Now()).Seconds()))
	if timeLeft <= 0 {
		o.revealRound(ctx, lobby)
		return
	}

	o.rooms.Broadcast(lobbyID, GameTickEvent{
		Type:     EventGameTick,
		LobbyID:  lobbyIDString(lobbyID),
		Round:    lobby.Round,
		TimeLeft: timeLeft,
	})
}

// revealRound moves the lobby into REVEALING, publishes the answer and arms
// the pause that leads to the next round or the finish. Caller holds the
// lobby lock.
func (o *Orchestrator) revealRound(ctx context.Context, lobby *models.Lobby) {
	lobbyID := lobby.ID
	o.timers.StopTick(lobbyID)

	endsAt := o.clock.Now().Add(o.cfg.RevealPause)
	if err := o.store.BeginReveal(ctx, lobbyID, endsAt); err != nil {
		logrus.Warnf("reveal: lobby %d round %d: %v", lobbyID, lobby.Round, err)
		return
	}

	track, err := o.store.GetTrack(ctx, lobbyID, lobby.Round)
	if err != nil || track == nil {
		logrus.Warnf("reveal: no track for lobby %d round %d: %v", lobbyID, lobby.Round, err)
		return
	}

	o.rooms.Broadcast(lobbyID, RoundRevealEvent{
		Type:    EventRoundReveal,
		LobbyID: lobbyIDString(lobbyID),
		Round:   lobby.Round,
		Answer:  track.Title,
	})

	o.timers.StartPause(lobbyID, o.cfg.RevealPause, func() {
		o.afterReveal(lobbyID)
	})
}

// afterReveal fires when the reveal pause elapses. The round count is
// re-read from the store so a lobby deleted mid-pause is a no-op.
func (o *Orchestrator) afterReveal(lobbyID int64) {
	ctx := context.Background()
	l := o.lobbyLock(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := o.store.GetLobby(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("after-reveal: lobby %d lookup failed: %v", lobbyID, err)
		return
	}
	if lobby == nil || lobby.Phase != models.PhaseRevealing {
		return
	}

	if lobby.Round >= lobby.Rounds {
		o.finishGame(ctx, lobbyID)
		return
	}
	o.beginRound(ctx, lobbyID, lobby.Round+1)
}

// finishGame closes out the game and broadcasts the final standings. The
// lobby stays around in FINISHED so the host can start a rematch.
func (o *Orchestrator) finishGame(ctx context.Context, lobbyID int64) {
	if err := o.store.FinishGame(ctx, lobbyID); err != nil {
		logrus.Warnf("finish: lobby %d: %v", lobbyID, err)
		return
	}
	scores, err := o.store.ListPlayers(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("finish: failed to list players for lobby %d: %v", lobbyID, err)
		return
	}
	o.rooms.Broadcast(lobbyID, GameFinishedEvent{
		Type:    EventGameFinished,
		LobbyID: lobbyIDString(lobbyID),
		Scores:  scores,
	})
}

// SubmitGuess validates a guess against the current round's track. The first
// correct guess per player per round scores a point; everything else is a
// silent no-op. The answer is always recomputed server side, whatever the
// client claims.
func (o *Orchestrator) SubmitGuess(ctx context.Context, lobbyID int64, userID uuid.UUID, guess string) {
	l := o.lobbyLock(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := o.store.GetLobby(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("guess: lobby %d lookup failed: %v", lobbyID, err)
		return
	}
	if lobby == nil || lobby.Phase != models.PhasePlaying {
		logrus.Warnf("guess: lobby %d not accepting guesses", lobbyID)
		return
	}

	track, err := o.store.GetTrack(ctx, lobbyID, lobby.Round)
	if err != nil || track == nil {
		logrus.Warnf("guess: no track for lobby %d round %d: %v", lobbyID, lobby.Round, err)
		return
	}
	if !guessMatches(track.Title, guess) {
		return
	}

	awarded, err := o.store.AwardPoint(ctx, lobbyID, userID, lobby.Round)
	if err != nil {
		logrus.Warnf("guess: failed to award point in lobby %d: %v", lobbyID, err)
		return
	}
	if !awarded {
		return
	}

	cache.InvalidateLeaderboard(ctx)

	scores, err := o.store.ListPlayers(ctx, lobbyID)
	if err != nil {
		logrus.Warnf("guess: failed to list players for lobby %d: %v", lobbyID, err)
		return
	}
	o.rooms.Broadcast(lobbyID, ScoresUpdatedEvent{
		Type:    EventScoresUpdated,
		LobbyID: lobbyIDString(lobbyID),
		Scores:  scores,
	})
}

// guessMatches compares a guess against the expected title, ignoring case
// and surrounding whitespace.
func guessMatches(expected, guess string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(guess))
}

// broadcastMembership pushes the current player list to a lobby. The list
// comes back from the store already in scoreboard order. Caller holds the
// lobby lock.
func (o *Orchestrator) broadcastMembership(ctx context.Context, lobby *models.Lobby) {
	players, err := o.store.ListPlayers(ctx, lobby.ID)
	if err != nil {
		logrus.Warnf("failed to list players for lobby %d: %v", lobby.ID, err)
		return
	}
	o.rooms.Broadcast(lobby.ID, LobbyUpdatedEvent{
		Type:    EventLobbyUpdated,
		LobbyID: lobbyIDString(lobby.ID),
		HostID:  lobby.HostID.String(),
		Players: players,
	})
}
