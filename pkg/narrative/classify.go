// Package narrative splits raw storyteller model output into the three
// streams the client and command processor consume.
package narrative

import "strings"

// Response is the classified form of one model completion.
type Response struct {
	// Narrative is the prose shown to players, original line content
	// preserved, joined with newlines and trimmed at the ends.
	Narrative string
	// Suggestions are quick-action lines the model offered, in order.
	Suggestions []string
	// Commands are verbatim [[...]] tokens, brackets included.
	Commands []string
}

// Classify splits model output line by line with strict priority. A line
// whose trimmed form starts with [[ and ends with ]] is a command token;
// else a line whose trimmed form starts with a hyphen is a suggestion;
// else the line is narrative. Blank lines are dropped. Command lines are
// captured in trimmed form so decoders see the brackets without
// surrounding whitespace; suggestions lose the hyphen and whitespace;
// narrative lines keep their original form.
func Classify(text string) Response {
	var resp Response
	var narrative []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]]"):
			resp.Commands = append(resp.Commands, trimmed)
		case strings.HasPrefix(trimmed, "-"):
			resp.Suggestions = append(resp.Suggestions, strings.TrimSpace(trimmed[1:]))
		default:
			narrative = append(narrative, line)
		}
	}

	resp.Narrative = strings.TrimSpace(strings.Join(narrative, "\n"))
	return resp
}
