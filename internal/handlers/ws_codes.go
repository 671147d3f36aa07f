// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the lobby handler. These provide more
// specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidLobbyIDError   = 3003 // Lobby id in the WS URL is malformed or unknown.
)
