package party

import "time"

// ItemSpec defines an acquirable item. Identity key is the registry id.
type ItemSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Effect      string `json:"effect,omitempty"`
}

// InventoryItem is an ItemSpec held by a player with a stack count.
// Quantity is always >= 1; duplicate acquisition increments the stack.
type InventoryItem struct {
	ID       string `json:"id"`
	ItemSpec
	Quantity int `json:"quantity"`
}

// BadgeSize classifies badges by the harness slot they occupy.
const (
	BadgeSmall  = "small"
	BadgeMedium = "medium"
	BadgeLarge  = "large"
)

// BadgeSpec defines an achievement badge. Identity key is the registry id.
type BadgeSpec struct {
	Name        string `json:"name"`
	Size        string `json:"size"` // small, medium or large
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Badge is a BadgeSpec earned by a player.
type Badge struct {
	ID       string    `json:"id"`
	BadgeSpec
	EarnedAt time.Time `json:"earned_at"`
}

// Items is the registry of acquirable items, keyed by item id.
var Items = map[string]ItemSpec{
	"aloe": {
		Name:        "Aloe Leaf",
		Description: "Soothing plant gel. Heals burns and minor wounds.",
		Icon:        "🌿",
		Effect:      "Heals 5 HP",
	},
	"spiderweb": {
		Name:        "Spiderweb",
		Description: "Sticky silk. Stops bleeding or can be used for crafting.",
		Icon:        "🕸️",
		Effect:      "Stops Bleeding / Crafting Material",
	},
	"berry": {
		Name:        "Healing Berry",
		Description: "A sweet, red berry that restores energy.",
		Icon:        "🍒",
		Effect:      "Heals 3 HP",
	},
	"net": {
		Name:        "Fishing Net",
		Description: "Woven by Shiver. Good for catching fish or tripping foes.",
		Icon:        "🥅",
		Effect:      "Traps Target",
	},
	"crystal": {
		Name:        "Frost Crystal",
		Description: "A shard of pure ice magic. Cold to the touch.",
		Icon:        "💎",
		Effect:      "Unknown Power",
	},
	"trap": {
		Name:        "Snare Trap",
		Description: "A simple wire trap for small game.",
		Icon:        "⚙️",
		Effect:      "Immobilizes Target",
	},
	"moss": {
		Name:        "Soft Moss",
		Description: "Good for bedding or padding splints.",
		Icon:        "🌱",
		Effect:      "Comfort / Crafting",
	},
}

// Badges is the registry of achievement badges, keyed by badge id.
var Badges = map[string]BadgeSpec{
	"catch_fish": {
		Name:        "Fisher Pup",
		Size:        BadgeSmall,
		Description: "Caught a giant fish for the pack.",
		Icon:        "🐟",
	},
	"save_pup": {
		Name:        "Life Saver",
		Size:        BadgeMedium,
		Description: "Saved a packmate from danger.",
		Icon:        "❤️",
	},
	"brave_stand": {
		Name:        "Guardian",
		Size:        BadgeMedium,
		Description: "Stood ground against a larger foe.",
		Icon:        "🛡️",
	},
	"legend_pack": {
		Name:        "Pack Legend",
		Size:        BadgeLarge,
		Description: "Saved the Moonshine River Pack from ruin.",
		Icon:        "👑",
	},
}
