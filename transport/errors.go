package transport

import "errors"

var (
	ErrMissingExecute         = errors.New("must provide `execute` for websocket server constructor")
	ErrUnsupportedSubprotocol = errors.New("connection does not implement a supported subprotocol")
	ErrProhibitedConnection   = errors.New("Prohibited connection!")
	ErrInvalidMessageType     = errors.New("Invalid message type!")
	ErrMissingID              = errors.New("message contains no ID")
	ErrNotAnObject            = errors.New("message must be a JSON object")
	ErrInvalidParams          = errors.New("Invalid params returned from onOperation! return values must be an object!")
)

var ErrMissingSchema = errors.New("Missing schema information. The GraphQL schema should be provided either statically in" +
	" the `SubscriptionServer` config or as a property on the params returned from onOperation!")

var errConnectionClosed = errors.New("connection closed")
