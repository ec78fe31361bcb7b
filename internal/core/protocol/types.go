// Package protocol defines the JSON message envelope spoken on every
// transport, the closed set of message types, and the server-side
// builder that stamps outbound messages with ids and timestamps.
package protocol

// Client-to-server message types
const (
	TypeAuthLogin       = "auth_login"
	TypeAuthRegister    = "auth_register"
	TypeAuthLogout      = "auth_logout"
	TypePlayerMove      = "player_move"
	TypePlayerAttack    = "player_attack"
	TypePlayerInteract  = "player_interact"
	TypeInventoryPickup = "inventory_pickup"
	TypeChatSend        = "chat_send"
	TypePing            = "ping"
	TypeRequestState    = "request_state"
)

// Server-to-client message types
const (
	TypeAuthSuccess    = "auth_success"
	TypeAuthFailure    = "auth_failure"
	TypeGameState      = "game_state"
	TypeGameStateDelta = "game_state_delta"
	TypeEntitySpawn    = "entity_spawn"
	TypeEntityDespawn  = "entity_despawn"
	TypeDamageEvent    = "damage_event"
	TypeDeathEvent     = "death_event"
	TypeLevelUpEvent   = "level_up_event"
	TypeChatReceive    = "chat_receive"
	TypeSystemMessage  = "system_message"
	TypePong           = "pong"
	TypeError          = "error"
)

// Error reply codes
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeRateLimited    = "RATE_LIMITED"
	CodeServerError    = "SERVER_ERROR"
)

var clientTypes = map[string]struct{}{
	TypeAuthLogin:       {},
	TypeAuthRegister:    {},
	TypeAuthLogout:      {},
	TypePlayerMove:      {},
	TypePlayerAttack:    {},
	TypePlayerInteract:  {},
	TypeInventoryPickup: {},
	TypeChatSend:        {},
	TypePing:            {},
	TypeRequestState:    {},
}

// KnownClientType reports whether t is a message type clients may send.
func KnownClientType(t string) bool {
	_, ok := clientTypes[t]
	return ok
}
