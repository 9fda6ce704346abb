package messages

import "terminus-realm/worldgen/models"

// MessageType defines the type of message being sent
type MessageType string

const (
	MessageTypeLogin        MessageType = "login"
	MessageTypeLoginSuccess MessageType = "login_success"
	MessageTypeMove         MessageType = "move"
	MessageTypeChat         MessageType = "chat"
	MessageTypeUpdate       MessageType = "update"
	MessageTypeCombat       MessageType = "combat"
	MessageTypeCombatResult MessageType = "combat_result"
	MessageTypeItemUse      MessageType = "item_use"
	MessageTypeItemUsed     MessageType = "item_used"
	MessageTypeChunk        MessageType = "chunk"
	MessageTypeChunkData    MessageType = "chunk_data"
	MessageTypeScript       MessageType = "script"
	MessageTypeScriptResult MessageType = "script_result"
	MessageTypeLoot         MessageType = "loot"
	MessageTypeError        MessageType = "error"
)

// BaseMessage is the base structure for all messages
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// LoginMessage represents a login request
type LoginMessage struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginSuccessMessage represents a successful login response
type LoginSuccessMessage struct {
	PlayerID string `json:"player_id"`
	Message  string `json:"message"`
}

// MoveMessage represents a player movement request
type MoveMessage struct {
	Direction string `json:"direction"` // north, south, east, west, northeast, northwest, southeast, southwest
}

// ChatMessage represents a chat message
type ChatMessage struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// PlayerView is what other players see of a player
type PlayerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Icon     string `json:"icon"`
}

// MonsterView is a visible monster
type MonsterView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Char  string `json:"char"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
}

// ItemView is a visible item
type ItemView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	Char string `json:"char"`
}

// MapView is the square of tile ids around a player, row-major
type MapView struct {
	CenterX int     `json:"center_x"`
	CenterY int     `json:"center_y"`
	Z       int     `json:"z"`
	Radius  int     `json:"radius"`
	Tiles   [][]int `json:"tiles"`
}

// UpdateMessage represents a world update
type UpdateMessage struct {
	Players  []PlayerView  `json:"players"`
	Monsters []MonsterView `json:"monsters"`
	Items    []ItemView    `json:"items"`
	Map      MapView       `json:"map"`
}

// CombatMessage represents a combat action
type CombatMessage struct {
	TargetID string `json:"target_id"`
	Action   string `json:"action"` // attack, spell, etc.
}

// CombatResultMessage reports the outcome of one combat action
type CombatResultMessage struct {
	Attacker   string   `json:"attacker"`
	Target     string   `json:"target"`
	Action     string   `json:"action"`
	Damage     int      `json:"damage"`
	Result     string   `json:"result"` // hit, destroyed
	TargetHP   int      `json:"target_hp"`
	Retaliated int      `json:"retaliated,omitempty"`
	Experience int      `json:"experience,omitempty"`
	Loot       []string `json:"loot,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ItemUseMessage represents using an item
type ItemUseMessage struct {
	ItemID string `json:"item_id"`
	Target string `json:"target"` // player ID or self
}

// ItemUsedMessage reports the effect of using an inventory item
type ItemUsedMessage struct {
	Item   string `json:"item"`
	Result string `json:"result"`
	HP     int    `json:"hp"`
}

// ChunkMessage requests the chunk at chunk coordinates
type ChunkMessage struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Height int `json:"height"`
}

// ChunkDataMessage carries one generated chunk
type ChunkDataMessage struct {
	Chunk *models.Chunk `json:"chunk"`
}

// ScriptMessage asks the server to evaluate an entity script
type ScriptMessage struct {
	Source string `json:"source"`
}

// ScriptResultMessage is the printed result of an entity script
type ScriptResultMessage struct {
	Session string `json:"session"`
	Value   string `json:"value,omitempty"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LootMessage rolls a loot table. The reply carries the drops in Items.
type LootMessage struct {
	Name       string   `json:"name"`
	State      string   `json:"state"`
	Difficulty float64  `json:"difficulty"`
	Items      []string `json:"items,omitempty"`
}
