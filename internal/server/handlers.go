package server

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gaiasync/gaiasync/internal/auth"
	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/protocol"
	"github.com/gaiasync/gaiasync/internal/core/transport"
)

// chatMaxRunes caps one chat line.
const chatMaxRunes = 500

// OnMessage implements transport.Handler. It runs on the connection's
// read goroutine; anything touching the world is queued from here.
func (s *Server) OnMessage(c transport.Conn, payload []byte) {
	sess, ok := s.sessions.Get(c.ID())
	if !ok {
		return
	}
	sess.touch()

	msg, err := s.pool.Decode(payload)
	if err != nil {
		s.logger.Warn("Invalid message",
			log.String("conn_id", c.ID()), log.Error(err))
		s.send(sess, s.builder.Error(protocol.CodeInvalidMessage, err.Error()))
		return
	}
	defer s.pool.PutMessage(msg)

	if !s.limiter.Allow(c.ID()) {
		s.send(sess, s.builder.Error(protocol.CodeRateLimited, "Too many messages"))
		return
	}

	switch msg.Type {
	case protocol.TypeAuthLogin:
		s.handleLogin(sess, msg)
	case protocol.TypeAuthRegister:
		s.handleRegister(sess, msg)
	case protocol.TypeAuthLogout:
		s.handleLogout(sess)
	case protocol.TypePlayerMove:
		s.handleMove(sess, msg)
	case protocol.TypePlayerAttack:
		s.handleAttack(sess, msg)
	case protocol.TypePlayerInteract:
		s.handleEnqueue(sess, msg, actionInteract)
	case protocol.TypeInventoryPickup:
		s.handleEnqueue(sess, msg, actionPickup)
	case protocol.TypeChatSend:
		s.handleChat(sess, msg)
	case protocol.TypePing:
		s.send(sess, s.builder.Pong(msg.Float64("ts")))
	case protocol.TypeRequestState:
		s.handleRequestState(sess)
	default:
		s.logger.Warn("Unhandled message type",
			log.String("type", msg.Type), log.String("conn_id", c.ID()))
	}
}

// handleLogin admits one session per account. The admission check and
// the account binding happen under authMu so a concurrent login for the
// same account sees the winner.
func (s *Server) handleLogin(sess *session, msg *protocol.Message) {
	username := msg.String("username")
	password := msg.String("password")
	if username == "" || password == "" {
		s.send(sess, s.builder.AuthFailure("Missing username or password"))
		return
	}

	account, err := s.registry.Verify(username, password)
	if err != nil {
		s.send(sess, s.builder.AuthFailure("Invalid credentials"))
		return
	}

	s.authMu.Lock()
	if sess.State() != StateConnected {
		s.authMu.Unlock()
		s.send(sess, s.builder.AuthFailure("Already logged in"))
		return
	}
	duplicate := false
	s.sessions.Range(func(other *session) bool {
		otherID, _ := other.Account()
		if other != sess && otherID == account.ID {
			duplicate = true
			return false
		}
		return true
	})
	if duplicate {
		s.authMu.Unlock()
		s.send(sess, s.builder.AuthFailure("Already logged in"))
		return
	}
	sess.bindAccount(account.ID, account.Username)
	sess.setState(StateAuthenticated)
	s.authMu.Unlock()

	done := make(chan error, 1)
	s.tasks.Push(func() { done <- s.spawnSession(sess, account) })

	select {
	case err := <-done:
		if err != nil {
			sess.setState(StateConnected)
			sess.clearAccount()
			s.logger.Error("Player spawn failed",
				log.String("username", username), log.Error(err))
			s.send(sess, s.builder.Error(protocol.CodeServerError, "Could not enter the world"))
		}
	case <-s.stopping:
	}
}

func (s *Server) handleRegister(sess *session, msg *protocol.Message) {
	username := msg.String("username")
	password := msg.String("password")
	if username == "" || password == "" {
		s.send(sess, s.builder.AuthFailure("Missing required fields"))
		return
	}

	_, err := s.registry.Register(username, password)
	switch {
	case errors.Is(err, auth.ErrInvalidUsername):
		s.send(sess, s.builder.AuthFailure("Username must be 3-20 characters"))
	case errors.Is(err, auth.ErrUsernameTaken):
		s.send(sess, s.builder.AuthFailure("Username already taken"))
	case err != nil:
		s.logger.Error("Registration failed",
			log.String("username", username), log.Error(err))
		s.send(sess, s.builder.Error(protocol.CodeServerError, "Registration failed"))
	default:
		s.send(sess, s.builder.SystemMessage(
			fmt.Sprintf("Account created! You can now login as %s.", username), "info"))
		s.logger.Info("Account registered", log.String("username", username))
	}
}

// handleLogout closes the connection; teardown rides the disconnect
// callback like any other connection end.
func (s *Server) handleLogout(sess *session) {
	s.logger.Info("Client logged out", log.String("conn_id", sess.conn.ID()))
	_ = sess.conn.Close()
}

func (s *Server) handleMove(sess *session, msg *protocol.Message) {
	entity := sess.Entity()
	if sess.State() != StateInGame || entity == ecs.Nil {
		return
	}
	s.actions.Push(playerAction{
		entity: entity,
		verb:   actionMove,
		data: map[string]any{
			"dx": clampStep(msg.Float64("dx")),
			"dy": clampStep(msg.Float64("dy")),
			"dz": clampStep(msg.Float64("dz")),
		},
		queued: time.Now(),
	})
}

func (s *Server) handleAttack(sess *session, msg *protocol.Message) {
	entity := sess.Entity()
	if sess.State() != StateInGame || entity == ecs.Nil {
		return
	}
	target := msg.Uint64("target_id")
	if target == 0 {
		return
	}
	s.actions.Push(playerAction{
		entity: entity,
		verb:   actionAttack,
		data:   map[string]any{"target_id": target},
		queued: time.Now(),
	})
}

// handleEnqueue queues a verb that carries its raw payload through. The
// data map is cloned because the decoded message returns to the pool.
func (s *Server) handleEnqueue(sess *session, msg *protocol.Message, verb string) {
	entity := sess.Entity()
	if sess.State() != StateInGame || entity == ecs.Nil {
		return
	}
	s.actions.Push(playerAction{
		entity: entity,
		verb:   verb,
		data:   maps.Clone(msg.Data),
		queued: time.Now(),
	})
}

func (s *Server) handleChat(sess *session, msg *protocol.Message) {
	if sess.State() != StateInGame {
		return
	}

	text := strings.TrimSpace(msg.String("message"))
	if utf8.RuneCountInString(text) > chatMaxRunes {
		text = string([]rune(text)[:chatMaxRunes])
	}
	if text == "" {
		return
	}

	channel := "local"
	if msg.Has("channel") {
		channel = msg.String("channel")
	}

	_, username := sess.Account()
	if username == "" {
		username = "Unknown"
	}
	now := float64(time.Now().UnixNano()) / 1e9
	chat := s.builder.ChatReceive(uint64(sess.Entity()), username, text, channel, now)

	if channel == "local" {
		s.tasks.Push(func() { s.deliverLocalChat(sess, chat) })
		return
	}
	s.broadcastInGame(chat)
}

func (s *Server) handleRequestState(sess *session) {
	if sess.State() != StateInGame {
		return
	}
	s.tasks.Push(func() { s.sendFullState(sess) })
}

func clampStep(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
