package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lthibault/log"

	"terminus-realm/worldgen/loot"
	"terminus-realm/worldgen/messages"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/network"
	"terminus-realm/worldgen/services"
)

// ClientHandler manages a single client connection
type ClientHandler struct {
	conn          *network.Connection
	playerService *services.PlayerService
	worldService  *services.WorldService
	clientManager *ClientManager
	log           log.Logger
	player        *models.Player
}

// HandleClientConnection serves one websocket client until it disconnects
func HandleClientConnection(ctx context.Context, wsConn *websocket.Conn, playerService *services.PlayerService, worldService *services.WorldService, clientManager *ClientManager, logger log.Logger) {
	conn := network.NewConnection(wsConn, logger)
	conn.Log().Debug("new connection")

	handler := &ClientHandler{
		conn:          conn,
		playerService: playerService,
		worldService:  worldService,
		clientManager: clientManager,
		log:           conn.Log(),
	}

	go conn.WritePump()
	conn.ReadPump(ctx, handler)

	if handler.player != nil && clientManager.RemoveClient(handler.player.ID, handler) {
		if err := playerService.Logout(handler.player.ID); err != nil {
			handler.log.WithError(err).Warn("failed to save player on disconnect")
		}
		handler.log.WithField("online", clientManager.Count()).Info("player disconnected")

		handler.broadcastPlayerUpdate(ctx)
	}
}

// HandleMessage handles incoming messages from the client
func (h *ClientHandler) HandleMessage(ctx context.Context, conn *network.Connection, message []byte) {
	var baseMsg messages.BaseMessage
	if err := json.Unmarshal(message, &baseMsg); err != nil {
		h.log.WithError(err).Debug("malformed message")
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	if baseMsg.Type != messages.MessageTypeLogin && h.player == nil {
		h.conn.SendMessage(messages.BaseMessage{
			Type: messages.MessageTypeError,
			Payload: messages.ErrorMessage{
				Code:    "NOT_AUTHENTICATED",
				Message: "log in first",
			},
		})
		return
	}

	switch baseMsg.Type {
	case messages.MessageTypeLogin:
		h.handleLogin(ctx, baseMsg.Payload)
	case messages.MessageTypeMove:
		h.handleMove(ctx, baseMsg.Payload)
	case messages.MessageTypeChat:
		h.handleChat(baseMsg.Payload)
	case messages.MessageTypeCombat:
		h.handleCombat(ctx, baseMsg.Payload)
	case messages.MessageTypeItemUse:
		h.handleItemUse(baseMsg.Payload)
	case messages.MessageTypeChunk:
		h.handleChunk(ctx, baseMsg.Payload)
	case messages.MessageTypeScript:
		h.handleScript(ctx, baseMsg.Payload)
	case messages.MessageTypeLoot:
		h.handleLoot(ctx, baseMsg.Payload)
	default:
		h.log.WithField("type", baseMsg.Type).Debug("unknown message type")
		h.conn.SendMessage(messages.BaseMessage{
			Type: messages.MessageTypeError,
			Payload: messages.ErrorMessage{
				Code:    "UNKNOWN_MESSAGE_TYPE",
				Message: "Unknown message type received",
			},
		})
	}
}

// decode re-reads a generic payload into a typed message
func decode(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (h *ClientHandler) send(t messages.MessageType, payload interface{}) {
	if err := h.conn.SendMessage(messages.BaseMessage{Type: t, Payload: payload}); err != nil {
		h.log.WithError(err).WithField("type", t).Debug("failed to send message")
	}
}

func (h *ClientHandler) sendError(code string, err error) {
	h.send(messages.MessageTypeError, messages.ErrorMessage{
		Code:    code,
		Message: err.Error(),
	})
}

// handleLogin handles login requests
func (h *ClientHandler) handleLogin(ctx context.Context, payload interface{}) {
	var loginMsg messages.LoginMessage
	if err := decode(payload, &loginMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	player, err := h.playerService.GetOrCreatePlayer(ctx, loginMsg.Username)
	if err != nil {
		h.log.WithError(err).WithField("username", loginMsg.Username).Error("login failed")
		h.send(messages.MessageTypeError, messages.ErrorMessage{
			Code:    "LOGIN_FAILED",
			Message: "Failed to log in",
		})
		return
	}

	h.player = player
	h.log = h.log.WithField("player", player.ID)
	h.clientManager.AddClient(player.ID, h)
	h.log.WithField("online", h.clientManager.Count()).Info("player logged in")

	h.send(messages.MessageTypeLoginSuccess, messages.LoginSuccessMessage{
		PlayerID: player.ID,
		Message:  "Login successful",
	})

	h.broadcastPlayerUpdate(ctx)
}

// handleMove handles player movement requests
func (h *ClientHandler) handleMove(ctx context.Context, payload interface{}) {
	var moveMsg messages.MoveMessage
	if err := decode(payload, &moveMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	if _, err := h.worldService.MovePlayer(ctx, h.player.ID, moveMsg.Direction); err != nil {
		h.sendError("MOVE_FAILED", err)
		return
	}

	h.broadcastPlayerUpdate(ctx)
}

// handleChat handles chat messages
func (h *ClientHandler) handleChat(payload interface{}) {
	var chatMsg messages.ChatMessage
	if err := decode(payload, &chatMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	chatMsg.Sender = h.player.Username
	chatMsg.Timestamp = time.Now().Unix()
	h.clientManager.BroadcastToAll(messages.BaseMessage{
		Type:    messages.MessageTypeChat,
		Payload: chatMsg,
	})
}

// handleCombat handles combat actions
func (h *ClientHandler) handleCombat(ctx context.Context, payload interface{}) {
	var combatMsg messages.CombatMessage
	if err := decode(payload, &combatMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	result, err := h.worldService.ProcessCombat(ctx, h.player.ID, combatMsg.TargetID, combatMsg.Action)
	if err != nil {
		h.sendError("COMBAT_FAILED", err)
		return
	}

	h.send(messages.MessageTypeCombatResult, result)
	h.broadcastPlayerUpdate(ctx)
}

// handleItemUse handles using items
func (h *ClientHandler) handleItemUse(payload interface{}) {
	var itemUseMsg messages.ItemUseMessage
	if err := decode(payload, &itemUseMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	result, err := h.playerService.UseItem(h.player.ID, itemUseMsg.ItemID, itemUseMsg.Target)
	if err != nil {
		h.sendError("ITEM_USE_FAILED", err)
		return
	}

	h.send(messages.MessageTypeItemUsed, result)
}

// handleChunk sends one chunk's tiles and markers
func (h *ClientHandler) handleChunk(ctx context.Context, payload interface{}) {
	var chunkMsg messages.ChunkMessage
	if err := decode(payload, &chunkMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	chunk, err := h.worldService.ChunkData(ctx, chunkMsg.X, chunkMsg.Y, chunkMsg.Height)
	if err != nil {
		h.sendError("CHUNK_FAILED", err)
		return
	}

	h.send(messages.MessageTypeChunkData, messages.ChunkDataMessage{Chunk: chunk})
}

// handleScript evaluates an entity script for the player
func (h *ClientHandler) handleScript(ctx context.Context, payload interface{}) {
	var scriptMsg messages.ScriptMessage
	if err := decode(payload, &scriptMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	result, err := h.worldService.RunScript(ctx, h.player.ID, scriptMsg.Source)
	if err != nil {
		h.sendError("SCRIPT_FAILED", err)
		return
	}

	h.send(messages.MessageTypeScriptResult, result)
	h.broadcastPlayerUpdate(ctx)
}

// handleLoot rolls a loot table and echoes the request with its drops
func (h *ClientHandler) handleLoot(ctx context.Context, payload interface{}) {
	var lootMsg messages.LootMessage
	if err := decode(payload, &lootMsg); err != nil {
		h.sendError("MALFORMED_MESSAGE", err)
		return
	}

	state, err := loot.ParseState(lootMsg.State)
	if err != nil {
		h.sendError("LOOT_FAILED", err)
		return
	}

	lootMsg.Items, err = h.worldService.RollLoot(ctx, lootMsg.Name, state, lootMsg.Difficulty)
	if err != nil {
		h.sendError("LOOT_FAILED", err)
		return
	}

	h.send(messages.MessageTypeLoot, lootMsg)
}

// sendWorldUpdate sends the current world state to the player
func (h *ClientHandler) sendWorldUpdate(ctx context.Context) {
	if h.player == nil {
		return
	}

	update, err := h.worldService.GetWorldUpdateForPlayer(ctx, h.player.ID)
	if err != nil {
		h.log.WithError(err).Debug("no world update")
		return
	}

	h.send(messages.MessageTypeUpdate, update)
}

// broadcastPlayerUpdate refreshes the view of every connected player
func (h *ClientHandler) broadcastPlayerUpdate(ctx context.Context) {
	h.clientManager.Each(func(client *ClientHandler) {
		client.sendWorldUpdate(ctx)
	})
}
