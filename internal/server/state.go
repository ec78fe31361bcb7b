package server

import (
	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/protocol"
	"github.com/gaiasync/gaiasync/internal/game"
)

// send marshals once and hands the payload to the session's writer.
// Never blocks; slow consumers drop.
func (s *Server) send(sess *session, m *protocol.Message) {
	payload, err := m.Marshal()
	if err != nil {
		s.logger.Error("Message marshal failed",
			log.String("type", m.Type), log.Error(err))
		return
	}
	sess.enqueue(payload)
}

// broadcastInGame sends to every in-game session.
func (s *Server) broadcastInGame(m *protocol.Message) {
	s.broadcastExcept(nil, m)
}

// broadcastExcept sends to every in-game session but one.
func (s *Server) broadcastExcept(except *session, m *protocol.Message) {
	payload, err := m.Marshal()
	if err != nil {
		s.logger.Error("Message marshal failed",
			log.String("type", m.Type), log.Error(err))
		return
	}
	s.sessions.Range(func(sess *session) bool {
		if sess != except && sess.State() == StateInGame {
			sess.enqueue(payload)
		}
		return true
	})
}

// sendFullState sends the complete view: own entity, every other entity
// in the area of interest, and the terrain window. Runs on the loop
// goroutine.
func (s *Server) sendFullState(sess *session) {
	entity := sess.Entity()
	if entity == ecs.Nil || !s.world.IsAlive(entity) {
		return
	}
	pos, ok := ecs.Get[*game.Position](s.world, entity, s.comps.Position)
	if !ok {
		return
	}
	player, ok := game.EntityPayload(s.world, s.comps, entity)
	if !ok {
		return
	}

	var entities []map[string]any
	for _, other := range s.grid.QueryRadius(pos.X, pos.Y, pos.Z, s.config.AOIRadius) {
		if other == entity {
			continue
		}
		if payload, ok := game.EntityPayload(s.world, s.comps, other); ok {
			entities = append(entities, payload)
		}
	}

	tiles := make(map[string]protocol.TileData)
	for key, tile := range s.tiles.VisibleTiles(int(pos.X), int(pos.Y), int(pos.Z), s.config.TileRadius) {
		tiles[key] = protocol.TileData{
			Char:     tile.Type.Glyph(),
			Color:    tile.EffectiveColor(),
			Walkable: tile.Type.Walkable(),
			Solid:    tile.Type.Solid(),
		}
	}

	s.send(sess, s.builder.GameState(s.loop.CurrentTick(), player, entities, tiles, nil))
}

// broadcastTick ships the tick's outcome: despawns first, then one
// delta per in-game session covering its area of interest. Every nearby
// entity is resent in full; clients replace rather than patch.
func (s *Server) broadcastTick(tick uint64) {
	var events []map[string]any
	for _, ev := range s.sink.Drain() {
		if despawn, ok := ev.(game.DespawnEvent); ok {
			s.broadcastInGame(s.builder.EntityDespawn(uint64(despawn.Entity)))
			continue
		}
		events = append(events, game.WirePayload(ev))
	}

	s.sessions.Range(func(sess *session) bool {
		if sess.State() != StateInGame {
			return true
		}
		entity := sess.Entity()
		if entity == ecs.Nil || !s.world.IsAlive(entity) {
			return true
		}
		pos, ok := ecs.Get[*game.Position](s.world, entity, s.comps.Position)
		if !ok {
			return true
		}

		var changed []map[string]any
		for _, nearby := range s.grid.QueryRadius(pos.X, pos.Y, pos.Z, s.config.AOIRadius) {
			if payload, ok := game.EntityPayload(s.world, s.comps, nearby); ok {
				changed = append(changed, payload)
			}
		}

		s.send(sess, s.builder.GameStateDelta(tick, changed, nil, nil, events))
		return true
	})
}

// deliverLocalChat fans a chat line out to sessions whose entities are
// within earshot. Runs on the loop goroutine.
func (s *Server) deliverLocalChat(sender *session, m *protocol.Message) {
	entity := sender.Entity()
	if entity == ecs.Nil || !s.world.IsAlive(entity) {
		return
	}
	pos, ok := ecs.Get[*game.Position](s.world, entity, s.comps.Position)
	if !ok {
		return
	}

	payload, err := m.Marshal()
	if err != nil {
		s.logger.Error("Message marshal failed",
			log.String("type", m.Type), log.Error(err))
		return
	}

	for _, nearby := range s.grid.QueryRadius(pos.X, pos.Y, pos.Z, s.config.AOIRadius) {
		if sess := s.sessionForEntity(nearby); sess != nil {
			sess.enqueue(payload)
		}
	}
}
