package builtins

import "github.com/torchlight/gserver/script"

// ---------------------------------------------------------------------------
// World: what builtins need from the surrounding game server
// ---------------------------------------------------------------------------

// MessageSender delivers text to players.
type MessageSender interface {
	// SendToPlayer shows text to one player.
	SendToPlayer(player script.ObjectRef, text string) error

	// BroadcastToLevel shows text to every player in a level.
	BroadcastToLevel(level script.ObjectRef, text string) error
}

// EntityAccessor reads and writes named properties of game entities
// (players, NPCs): position, nickname, health and the like.
type EntityAccessor interface {
	GetProperty(ref script.ObjectRef, name string) (script.Value, error)
	SetProperty(ref script.ObjectRef, name string, v script.Value) error
}

// LevelController manipulates level state.
type LevelController interface {
	PlaySound(level script.ObjectRef, sound string) error
	SetTile(level script.ObjectRef, x, y, tile float64) error
	TileAt(level script.ObjectRef, x, y float64) (float64, error)
	SpawnNPC(level script.ObjectRef, name string, x, y float64) (script.ObjectRef, error)
	RemoveNPC(level, npc script.ObjectRef) error
	PlayersInLevel(level script.ObjectRef) ([]script.ObjectRef, error)
}

// WeaponController manages player weapons.
type WeaponController interface {
	GiveWeapon(player script.ObjectRef, weapon string) error
	TakeWeapon(player script.ObjectRef, weapon string) error
	HasWeapon(player script.ObjectRef, weapon string) (bool, error)
}

// World aggregates everything builtins reach outside the scripting core.
// Implementations must be safe for concurrent use; different contexts run
// in parallel.
type World interface {
	MessageSender
	EntityAccessor
	LevelController
	WeaponController
}

// NopWorld is a World where every action succeeds and does nothing.
// Used for compile-only checks and as the embedding base for test mocks.
type NopWorld struct{}

var _ World = NopWorld{}

func (NopWorld) SendToPlayer(script.ObjectRef, string) error      { return nil }
func (NopWorld) BroadcastToLevel(script.ObjectRef, string) error  { return nil }
func (NopWorld) GetProperty(ref script.ObjectRef, name string) (script.Value, error) {
	return script.Null, nil
}
func (NopWorld) SetProperty(script.ObjectRef, string, script.Value) error { return nil }
func (NopWorld) PlaySound(script.ObjectRef, string) error                 { return nil }
func (NopWorld) SetTile(script.ObjectRef, float64, float64, float64) error {
	return nil
}
func (NopWorld) TileAt(script.ObjectRef, float64, float64) (float64, error) { return 0, nil }
func (NopWorld) SpawnNPC(level script.ObjectRef, name string, x, y float64) (script.ObjectRef, error) {
	return script.ObjectRef{Kind: script.ObjectNPC, ID: name}, nil
}
func (NopWorld) RemoveNPC(script.ObjectRef, script.ObjectRef) error { return nil }
func (NopWorld) PlayersInLevel(script.ObjectRef) ([]script.ObjectRef, error) {
	return nil, nil
}
func (NopWorld) GiveWeapon(script.ObjectRef, string) error { return nil }
func (NopWorld) TakeWeapon(script.ObjectRef, string) error { return nil }
func (NopWorld) HasWeapon(script.ObjectRef, string) (bool, error) {
	return false, nil
}
