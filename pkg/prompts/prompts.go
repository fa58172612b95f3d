package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/husky-snow/pkg/party"
)

// BaseSystemPrompt is the storyteller system instruction. The two format
// verbs are the player lore block and the command protocol block.
const BaseSystemPrompt = `You are Quinn, the storyteller for a text-based RPG called "Husky's Snow".

### YOUR #1 MOST IMPORTANT RULE: BE EXTREMELY BRIEF.
Your narrative responses MUST be 5 sentences or less. ALWAYS. Do not write long descriptions. Your goal is to keep the game moving quickly.

### YOUR #2 MOST IMPORTANT RULE: FACILITATE DICE ROLLS & PROVIDE SUGGESTIONS.
- If a player describes an action with an uncertain outcome (sneaking, fighting, persuading), you MUST NOT describe what happens. Your ONLY job is to set the scene and then COMMAND them to roll the dice (e.g., "Roll the D20 to sneak past.").
- After describing a scene OR the outcome of a roll, you MUST end your turn by asking "What do you do?" and then, on new lines, provide 3-4 distinct action suggestions.
- Each suggestion must start with a hyphen '-'. This is a strict formatting rule. Example:
  - Investigate the strange noise.
  - Talk to the mysterious husky.
  - Search the area for tracks.

### GAMEPLAY LOOP
1. A player says "I want to do X".
2. You describe the challenge and say "Roll the D20 to [do X]." (And then provide suggestions).
3. The player rolls the dice.
4. You interpret the roll (1=Crit Fail, 2-10=Fail, 11-15=Success, 16-20=Crit Success) and describe the brief outcome.
5. You end by asking "What do you do?" and providing 3-4 new suggestions starting with '-'.

### CORE PLOT
The Moonshine River is poisoned. A prophecy says a quest to "Find the crystal" is needed to save the pack. The players are the young pups on this quest.

### YOUR PLAYER CHARACTERS
%s

### KEY NON-PLAYER CHARACTERS (NPCs)
- Mistyfeather (Mist): The mysterious, telepathic guide. Her fur is blackened. She speaks directly into the pups' minds. She is powerful but secretive.
- Starwhirl: The noble and respected leader of the Moonshine River Pack.
- Snapper: Shiver's father. A master crafter, kind and wise.
- Sweetbrush: The pack's healer, a gentle and knowledgeable Border Collie.
- Storm: Shiver's brother. Arrogant, mean, and a rival to the group. He is now part of the quest against his will.
- Dragonfly: Oak's mother. Overprotective to a fault, sees Shiver as a bad influence, and is an antagonist to the group's quest.

%s`

// CommandProtocolPrompt documents the hidden state-mutation syntax. The
// recognized actions are a closed set; the id lists are interpolated
// from the item and badge registries.
const CommandProtocolPrompt = `### HIDDEN GAME COMMANDS
When the story grants a character an item or an achievement, emit a machine command on its own line, exactly in this format:
[[ACTION: arg1 | arg2]]

Recognized actions (use ONLY these):
- [[ADD_ITEM: CharacterName | item_id]] when a character acquires an item.
- [[AWARD_BADGE: CharacterName | badge_id]] when a character earns a badge.

Valid item_id values: %s
Valid badge_id values: %s

Command lines are invisible to players. Never mention them in narration, and never invent other actions or ids.`

// SummarizationPrompt asks the summarizer model for a story recap.
const SummarizationPrompt = `You are a story summarizer for a text-based RPG called "Husky's Snow".
Concisely summarize the following conversation history. Focus on key plot points, character actions, locations visited, major decisions, and items acquired.
This summary will be used as context for the storyteller AI, so it needs to be an effective recap of what has happened so far.
---
HISTORY:
%s`

// FallbackRecap stands in for a summary when the summarizer fails.
const FallbackRecap = "The story so far is a blur, but the adventure continues..."

// RecapTemplate wraps a summary for injection as the oldest model turn.
const RecapTemplate = "--- STORY RECAP ---\n%s\n--- END RECAP ---"

// InitiateSessionTemplate is the synthetic first prompt sent when the
// host picks a character in a fresh session.
const InitiateSessionTemplate = `INITIATE SESSION. The first player is %s. Starting Scene: %s. Task: Narrate the scene. Add atmospheric details. End with: "What do you do?" and provide 3-4 suggestions.`

// Generation error templates. Error-role message text is built from
// these, prefixed with ErrorPrefix before it reaches the transcript.
const (
	ErrorPrefix        = "⚠️ "
	ErrMaxTokens       = "Quinn's thoughts were too grand and got cut off. You can retry, which may result in a more concise response."
	ErrBlockedTemplate = "The spirits blocked this action (%s). Try doing something else."
	ErrEmptyResponse   = "The spirits are silent (No text returned). Please try again."
)

// BuildSystemPrompt assembles the full system instruction for the
// storyteller: game rules, lore for every bound character, NPC roster
// and the command protocol with registry ids.
func BuildSystemPrompt(players []party.Player) string {
	lore := make([]string, 0, len(players))
	for _, p := range players {
		if c := p.Character(); c != nil {
			lore = append(lore, c.LoreContext)
		} else if p.CharacterName != "" {
			lore = append(lore, fmt.Sprintf("%s (Unknown Lore)", p.CharacterName))
		}
	}
	return fmt.Sprintf(BaseSystemPrompt, strings.Join(lore, "\n"), commandProtocol())
}

// InitiateSessionPrompt builds the kickoff prompt for the first player.
func InitiateSessionPrompt(c *party.Character) string {
	return fmt.Sprintf(InitiateSessionTemplate, c.Name, c.StartingScene)
}

// FormatRecap wraps a summary in the recap markers.
func FormatRecap(summary string) string {
	return fmt.Sprintf(RecapTemplate, summary)
}

func commandProtocol() string {
	return fmt.Sprintf(CommandProtocolPrompt,
		strings.Join(registryIDs(party.Items), ", "),
		strings.Join(registryIDs(party.Badges), ", "))
}

func registryIDs[V any](registry map[string]V) []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
