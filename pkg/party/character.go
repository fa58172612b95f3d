package party

import (
	"fmt"

	"github.com/jwebster45206/d20"
)

// Stats are the four core ability scores of a playable pup.
type Stats struct {
	Strength int `json:"strength"`
	Agility  int `json:"agility"`
	Smart    int `json:"smart"`
	Spirit   int `json:"spirit"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility.
func (s Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength": s.Strength,
		"agility":  s.Agility,
		"smart":    s.Smart,
		"spirit":   s.Spirit,
	}
}

// Visuals describe a character's appearance for the character sheet.
type Visuals struct {
	HarnessColor string   `json:"harness_color"`
	Features     []string `json:"features"`
}

// Character is a playable pup definition. The roster of playable
// characters is fixed; players bind to one by name at selection time.
type Character struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Description   string  `json:"description"`
	Stats         Stats   `json:"stats"`
	Ability       string  `json:"ability"`
	Visuals       Visuals `json:"visuals"`
	LoreContext   string  `json:"lore_context"`
	StartingScene string  `json:"starting_scene"`
}

// Actor builds a d20.Actor from the character definition for stat checks
// and the character sheet. HP and AC are derived from the core stats.
func (c *Character) Actor() (*d20.Actor, error) {
	actor, err := d20.NewActor(c.ID).
		WithHP(c.Stats.Strength + c.Stats.Spirit).
		WithAC(10 + c.Stats.Agility/4).
		WithAttributes(c.Stats.ToAttributes()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor for %s: %w", c.Name, err)
	}
	return actor, nil
}

// Characters is the playable roster for Husky's Snow.
var Characters = []Character{
	{
		ID:          "shiver",
		Name:        "Shiver",
		Role:        "The Creative Crafter",
		Description: "The protagonist with mismatched eyes and thin fur. She hears a mysterious telepathic voice (\"Mist\") and uses creativity to solve problems.",
		Stats:       Stats{Strength: 8, Agility: 12, Smart: 18, Spirit: 16},
		Ability:     "Crafting & Telepathy",
		Visuals: Visuals{
			HarnessColor: "Blue-to-Brown Fade",
			Features:     []string{"Thin Fur", "Mismatched Eyes (Blue/Brown)", "Warm Cloak"},
		},
		LoreContext: `SHIVER (Player): The creative crafter.
- VISUAL: Thin fur (needs warmth), mismatched eyes (blue/brown). Wears a blue-fading-to-brown harness with a silver streak and a Warm Cloak attachment.
- PERSONALITY: Creative, determined, "weakest-seeming" but sharp.
- ABILITY: Crafting & Telepathy (Can hear Mist).
- RELATIONS: Daughter of Snapper. Sister to Storm (Rival) and Glacier (Protector).
- STORY: First to hear the telepathic voice of Mist/Mistyfeather.`,
		StartingScene: "You wake up in the trainee den, shivering slightly. Your new blue-and-brown harness lies beside you with its warm cloak attachment. A sarcastic voice echoes in your mind: *'Finally awake, little star?'* It is Mist. Outside, Snapper is calling.",
	},
	{
		ID:          "glacier",
		Name:        "Glacier",
		Role:        "The Fierce Fighter",
		Description: "Strong, bold, and protective. She wears an ice-blue armored harness.",
		Stats:       Stats{Strength: 18, Agility: 14, Smart: 10, Spirit: 12},
		Ability:     "Protective Strike",
		Visuals: Visuals{
			HarnessColor: "Ice Blue Armor",
			Features:     []string{"Solid White Fur", "Icy Blue Eyes", "Big & Fluffy"},
		},
		LoreContext: `GLACIER (Player): The fierce fighter.
- VISUAL: Solid white, icy eyes. Big and fluffy. Wears an Ice-Blue Armored Harness.
- PERSONALITY: Smart, mischievous, fiercely protective of Shiver.
- ABILITY: Protective Strike.
- RELATIONS: Sister to Shiver and Storm. Idolizes Starwhirl.`,
		StartingScene: "The cold air bites, but your thick white fur keeps you warm. You stand at the training circle, your armored harness glinting. Storm is bragging nearby. You roll your eyes. You know you're stronger.",
	},
	{
		ID:          "flurry",
		Name:        "Flurry",
		Role:        "The Gentle Healer",
		Description: "Small body but a mountain-sized heart. Knows which plants soothe wounds.",
		Stats:       Stats{Strength: 6, Agility: 14, Smart: 14, Spirit: 18},
		Ability:     "Soothing Herbs",
		Visuals: Visuals{
			HarnessColor: "Lavender with Pouches",
			Features:     []string{"Small/Runt", "Light Gray/White", "Anxious Eyes"},
		},
		LoreContext: `FLURRY (Player): The gentle healer.
- VISUAL: Small, light gray/white. Runt. Wears a Lavender Harness with herb pouches.
- PERSONALITY: Anxious but brave. "Mountain-sized heart."
- ABILITY: Soothing Herbs (Aloe, Spiderwebs).
- RELATIONS: Apprentice to Sweetbrush (Border Collie).
- STORY: Dreamt of the poisoned river first.`,
		StartingScene: "The sharp scent of crushed herbs fills the Healer's Den. Sweetbrush, the golden-eyed Border Collie, nudges some aloe toward you. 'Pack your pouches, Flurry,' she says. 'The wind whispers of trouble.'",
	},
	{
		ID:          "oak",
		Name:        "Oak",
		Role:        "The Determined Hunter",
		Description: "Born missing a leg, but faster than anyone realizes. Uses traps and determination.",
		Stats:       Stats{Strength: 10, Agility: 16, Smart: 15, Spirit: 15},
		Ability:     "Trap Mastery",
		Visuals: Visuals{
			HarnessColor: "Dark Brown Camo",
			Features:     []string{"Missing Back Left Leg", "White Star on Chest", "Trap Pouches"},
		},
		LoreContext: `OAK (Player): The determined hunter.
- VISUAL: Brown coat, white star, missing back left leg. Wears a Dark Brown Camo Harness with pouches for traps.
- PERSONALITY: Determined to prove he isn't weak. Hates being coddled.
- ABILITY: Trap Mastery (Nets/Snares).
- RELATIONS: Son of Dragonfly (who is over-protective). Friend to Shiver.
- FEAT: Already earned a Small Badge for catching a Giant Fish using a net.`,
		StartingScene: "You stand by the river where you caught the giant fish. Your camo harness fits snugly over your three strong legs. You feel fast. Up on the ridge, your mother Dragonfly watches you with that suffocating worry in her eyes.",
	},
}

// CharacterByName looks up a playable character by display name.
// Returns nil when no character matches.
func CharacterByName(name string) *Character {
	for i := range Characters {
		if Characters[i].Name == name {
			return &Characters[i]
		}
	}
	return nil
}
