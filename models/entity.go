package models

import "time"

type Player struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Z          int       `json:"z"` // building level
	Icon       string    `json:"icon"`
	Color      []int     `json:"color"` // RGB values
	HP         int       `json:"hp"`
	MaxHP      int       `json:"max_hp"`
	Gold       int       `json:"gold"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	Inventory  []string  `json:"inventory"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Player) GetPosition() Position { return Position{X: p.X, Y: p.Y, Z: p.Z} }
func (p *Player) GetID() string         { return p.ID }
func (p *Player) SetPosition(pos Position) {
	p.X, p.Y, p.Z = pos.X, pos.Y, pos.Z
}

type Monster struct {
	ID       string `json:"id"`
	Name     string `json:"name"` // loot table name, e.g. strong_zombie
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Char     string `json:"char"`
	FgColor  []int  `json:"fg_color"` // RGB values
	HP       int    `json:"hp"`
	MaxHP    int    `json:"max_hp"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	AIType   string `json:"ai_type"`
	XPReward int    `json:"xp_reward"`
}

func (m *Monster) GetPosition() Position { return Position{X: m.X, Y: m.Y, Z: m.Z} }
func (m *Monster) GetID() string         { return m.ID }
func (m *Monster) SetPosition(pos Position) {
	m.X, m.Y, m.Z = pos.X, pos.Y, pos.Z
}

type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Char        string `json:"char"`
	Color       []int  `json:"color"` // RGB values
	Description string `json:"description"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Z           int    `json:"z"`
}

func (i *Item) GetPosition() Position { return Position{X: i.X, Y: i.Y, Z: i.Z} }
func (i *Item) GetID() string         { return i.ID }
func (i *Item) SetPosition(pos Position) {
	i.X, i.Y, i.Z = pos.X, pos.Y, pos.Z
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}
