package transport

// Custom WebSocket close codes used by the veto lobby handler. Unknown-lobby
// and lobby-full conditions are routing/authorization errors handled by
// wire events (lobbyUndefined, silent drop per §7), not by closing the
// connection, so only the subprotocol negotiation failure closes the socket.
const (
	BadSubprotocolCode = 3000 // client did not negotiate the "veto" subprotocol
)
