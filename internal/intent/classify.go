// Package intent classifies visitor questions into a response
// length/format category that drives retrieval depth and prompt
// instructions.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the classified shape of an answer.
type Intent string

const (
	Short    Intent = "short"    // single fact, 1-2 sentences
	Medium   Intent = "medium"   // 2-4 sentences
	Detailed Intent = "detailed" // 4-7 sentences with historical framing
	List     Intent = "list"     // itemized with a short gloss per item
)

// The tables are evaluated in priority order: enumeration cues beat
// terseness cues, so "kaç tane var?" is a LIST question even though
// "kaç" alone would read as SHORT.
//
// Word boundaries are kept off pattern edges that touch a non-ASCII
// letter; RE2's \b is ASCII-only and would never match there.
var listPatterns = compileAll(
	`hangi\s+eserler`,
	`\blistele`,
	`\bsay\b`,
	`kaç\s+tane`,
	`neler\s+var`,
	`\bhepsi`,
	`tümü`,
	`hangiler`,
	`sırayla`,
	`tüm\s+eserler`,
)

var detailedPatterns = compileAll(
	`\bdetay`,
	`tarihçe`,
	`hikaye`,
	`\bneden\b`,
	`nasıl`,
	`önemi\s+nedir`,
	`ne\s+işe\s+yarar`,
	`önem`,
	`anlam`,
	`her\s*şey`,
	`tüm\s+bilgi`,
	`derin`,
	`geniş`,
	`anlatır\s*mısın`,
	`anlatabilir`,
	`açıkla`,
)

var shortPatterns = compileAll(
	`ne\s+zaman`,
	`\bkim`,
	`\bkaç(\s|\?|$)`,
	`nerede`,
	`ne\s+yıl`,
	`hangi\s+yıl`,
	`hangi\s+tarih`,
	`hangi\s+sene`,
	`kuruldu`,
	`yapıldı`,
	`\btarih(\s|$|[?.!,])`,
	`^\S+\s+mi\??$`,
	`^\S+\s+mı\??$`,
	`sanatçısı`,
	`yapımcısı`,
	`himay`,
	`sergileni`,
	`bulunu`,
	`adı\s+ne`,
	`ismi\s+ne`,
	`boyut`,
	`ağırlı`,
	`uzunlu`,
	`yüksekli`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Classify maps a question to its intent. Deterministic and total:
// any input yields exactly one intent, unmatched text is Medium.
func Classify(question string) Intent {
	q := strings.ToLower(strings.TrimSpace(question))

	for _, re := range listPatterns {
		if re.MatchString(q) {
			return List
		}
	}
	for _, re := range detailedPatterns {
		if re.MatchString(q) {
			return Detailed
		}
	}
	for _, re := range shortPatterns {
		if re.MatchString(q) {
			return Short
		}
	}
	return Medium
}
