package convo

import (
	"regexp"
	"strings"
)

// maxPromptTurns caps how much transcript is replayed into the prompt.
const maxPromptTurns = 6

// maxTopics caps the recent-topic list carried in the context.
const maxTopics = 5

var (
	singleQuotedRe = regexp.MustCompile(`'([^']{2,60})'`)
	doubleQuotedRe = regexp.MustCompile(`"([^"]{2,60})"`)
	// "Kuruluş Diploması adlı belge" — capitalized phrase before
	// adlı/isimli names an exhibit or person.
	namedRe = regexp.MustCompile(`([A-ZÇĞİÖŞÜ][^\s,.!?"']*(?:\s+[A-ZÇĞİÖŞÜ][^\s,.!?"']*){0,3})\s+(?:adlı|isimli)`)
)

var topicStopwords = map[string]bool{
	"nedir": true, "nasıl": true, "neden": true, "nerede": true,
	"zaman": true, "hangi": true, "kimdir": true, "bunun": true,
	"şunun": true, "onun": true, "için": true, "gibi": true,
	"daha": true, "eser": true, "eserin": true, "eserler": true,
	"müze": true, "müzede": true, "hakkında": true, "bilgi": true,
	"anlat": true, "söyle": true, "merhaba": true, "teşekkür": true,
}

// BuildContext derives the per-turn conversation context and a
// transcript summary for the prompt from the current history. The
// context is rebuilt fresh every turn and never persisted.
func BuildContext(history []Turn, exhibitName string) (string, Context) {
	ctx := Context{CurrentExhibit: strings.TrimSpace(exhibitName)}

	for _, turn := range history {
		for _, e := range extractEntities(turn.Content) {
			ctx.RecentEntities = appendDistinct(ctx.RecentEntities, e)
		}
		if turn.Role == RoleVisitor {
			for _, topic := range extractTopics(turn.Content) {
				ctx.RecentTopics = appendDistinct(ctx.RecentTopics, topic)
			}
		}
	}
	if len(ctx.RecentTopics) > maxTopics {
		ctx.RecentTopics = ctx.RecentTopics[len(ctx.RecentTopics)-maxTopics:]
	}

	return formatSummary(history, ctx), ctx
}

func formatSummary(history []Turn, ctx Context) string {
	if len(history) == 0 {
		return ""
	}

	recent := history
	if len(recent) > maxPromptTurns {
		recent = recent[len(recent)-maxPromptTurns:]
	}

	lines := []string{"Previous conversation:"}
	for _, turn := range recent {
		label := "Guide"
		if turn.Role == RoleVisitor {
			label = "Visitor"
		}
		lines = append(lines, label+": "+turn.Content)
	}
	if len(ctx.RecentTopics) > 0 {
		lines = append(lines, "Recent topics: "+strings.Join(ctx.RecentTopics, ", "))
	}
	return strings.Join(lines, "\n")
}

// extractEntities pulls quoted phrases and "X adlı" names from a turn.
func extractEntities(text string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{singleQuotedRe, doubleQuotedRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if e := strings.TrimSpace(m[1]); e != "" {
				out = append(out, e)
			}
		}
	}
	for _, m := range namedRe.FindAllStringSubmatch(text, -1) {
		if e := strings.TrimSpace(m[1]); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// MineEntityFromLastGuideTurn searches the most recent guide turn for
// a quoted phrase or a "named X" pattern. Empty result when the
// history holds no guide turn or the turn names nothing.
func MineEntityFromLastGuideTurn(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != RoleGuide {
			continue
		}
		entities := extractEntities(history[i].Content)
		if len(entities) > 0 {
			return entities[0]
		}
		return ""
	}
	return ""
}

func extractTopics(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,!?'":;()`)
		if len([]rune(w)) < 4 || topicStopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

func appendDistinct(list []string, v string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list
		}
	}
	return append(list, v)
}
