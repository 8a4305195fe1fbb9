package transport

import "time"

// MessageType is a message type
type MessageType string

// CloseCode is a websocket close code
type CloseCode int

// Dialect identifies the message shape convention of a connection
type Dialect int

const (
	// Subprotocols
	// https://github.com/apollographql/subscriptions-transport-ws/blob/master/PROTOCOL.md
	Subprotocol       = "graphql-ws"
	LegacySubprotocol = "graphql-subscriptions"

	// Client -> Server
	MsgConnectionInit      MessageType = "connection_init"
	MsgConnectionTerminate MessageType = "connection_terminate"
	MsgStart               MessageType = "start"
	MsgStop                MessageType = "stop"

	// Server -> Client
	MsgConnectionAck   MessageType = "connection_ack"
	MsgConnectionError MessageType = "connection_error"
	MsgKeepAlive       MessageType = "ka"
	MsgData            MessageType = "data"
	MsgError           MessageType = "error"
	MsgComplete        MessageType = "complete"

	// only delivered to legacy clients
	MsgSubscriptionSuccess MessageType = "subscription_success"

	// legacy protocol message types
	LegacyMsgInit                MessageType = "init"
	LegacyMsgInitSuccess         MessageType = "init_success"
	LegacyMsgInitFail            MessageType = "init_fail"
	LegacyMsgKeepAlive           MessageType = "keepalive"
	LegacyMsgSubscriptionStart   MessageType = "subscription_start"
	LegacyMsgSubscriptionData    MessageType = "subscription_data"
	LegacyMsgSubscriptionSuccess MessageType = "subscription_success"
	LegacyMsgSubscriptionFail    MessageType = "subscription_fail"
	LegacyMsgSubscriptionEnd     MessageType = "subscription_end"

	// CloseCodes
	NormalClosure       CloseCode = 1000
	ProtocolError       CloseCode = 1002
	UnexpectedCondition CloseCode = 1011
)

const (
	DialectUndecided Dialect = iota
	DialectCurrent
	DialectLegacy
)

var (
	// FlushDelay is how long a forced close waits so a preceding error
	// message can be delivered first
	FlushDelay = 10 * time.Millisecond
)

func (d Dialect) String() string {
	switch d {
	case DialectCurrent:
		return "current"
	case DialectLegacy:
		return "legacy"
	}
	return "undecided"
}

// isLegacyType returns true for message types that only exist in the legacy protocol
func isLegacyType(t MessageType) bool {
	switch t {
	case LegacyMsgInit,
		LegacyMsgInitSuccess,
		LegacyMsgInitFail,
		LegacyMsgKeepAlive,
		LegacyMsgSubscriptionStart,
		LegacyMsgSubscriptionData,
		LegacyMsgSubscriptionFail,
		LegacyMsgSubscriptionEnd:
		return true
	}
	return false
}
