package party

import (
	"fmt"
	"time"
)

// Player is a session participant bound to a playable character.
// UserID is the identity key; CharacterName binds to the fixed roster.
type Player struct {
	UserID        string          `json:"user_id"`
	CharacterName string          `json:"character_name"`
	IsHost        bool            `json:"is_host"`
	Inventory     []InventoryItem `json:"inventory,omitempty"`
	Badges        []Badge         `json:"badges,omitempty"`
	JoinedAt      time.Time       `json:"joined_at"`
}

// AddItem grants the player one unit of the registry item with the given
// id. A duplicate grant increments the existing stack instead of adding a
// second entry. Unknown ids are rejected.
func (p *Player) AddItem(itemID string) error {
	spec, ok := Items[itemID]
	if !ok {
		return fmt.Errorf("unknown item: %q", itemID)
	}
	for i := range p.Inventory {
		if p.Inventory[i].ID == itemID {
			p.Inventory[i].Quantity++
			return nil
		}
	}
	p.Inventory = append(p.Inventory, InventoryItem{
		ID:       itemID,
		ItemSpec: spec,
		Quantity: 1,
	})
	return nil
}

// AwardBadge grants the player the registry badge with the given id.
// Badges are earned at most once; a repeat award is a no-op.
// Unknown ids are rejected.
func (p *Player) AwardBadge(badgeID string) error {
	spec, ok := Badges[badgeID]
	if !ok {
		return fmt.Errorf("unknown badge: %q", badgeID)
	}
	for i := range p.Badges {
		if p.Badges[i].ID == badgeID {
			return nil
		}
	}
	p.Badges = append(p.Badges, Badge{
		ID:        badgeID,
		BadgeSpec: spec,
		EarnedAt:  time.Now().UTC(),
	})
	return nil
}

// HasBadge reports whether the player already earned the badge.
func (p *Player) HasBadge(badgeID string) bool {
	for i := range p.Badges {
		if p.Badges[i].ID == badgeID {
			return true
		}
	}
	return false
}

// Character resolves the player's bound roster character.
// Returns nil when the binding is missing or stale.
func (p *Player) Character() *Character {
	return CharacterByName(p.CharacterName)
}
