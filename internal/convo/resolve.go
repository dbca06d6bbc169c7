package convo

import (
	"regexp"
	"strings"
)

// referenceRule rewrites one demonstrative form into the resolved
// entity name plus a case suffix. The demonstrative-noun pair rule
// comes first so "bu eser" is consumed whole rather than leaving a
// dangling "eser".
type referenceRule struct {
	re     *regexp.Regexp
	suffix suffixKind
}

type suffixKind int

const (
	suffixNone     suffixKind = iota
	suffixGenitive            // bunun -> Diploması'nın
	suffixAccusative
	suffixDative
	suffixLocative
)

// The marker set is fixed: Turkish demonstratives and their case
// forms, plus the "bu eser" style demonstrative-noun pairs. Matching
// is case-insensitive on whole words; (^|\s) stands in for \b because
// several forms contain non-ASCII letters.
var referenceRules = []referenceRule{
	{regexp.MustCompile(`(?i)(^|\s)(bu|şu|o)\s+eser(in|i|e|de|den)?(\s|$|[?.!,])`), suffixNone},
	{regexp.MustCompile(`(?i)(^|\s)(bunun|şunun|onun)(\s|$|[?.!,])`), suffixGenitive},
	{regexp.MustCompile(`(?i)(^|\s)(bunu|şunu|onu)(\s|$|[?.!,])`), suffixAccusative},
	{regexp.MustCompile(`(?i)(^|\s)(buna|şuna|ona)(\s|$|[?.!,])`), suffixDative},
	{regexp.MustCompile(`(?i)(^|\s)(bunda|şunda|onda|burada)(\s|$|[?.!,])`), suffixLocative},
}

// ResolveReferences rewrites demonstrative references in the question
// into the resolved entity name. Best-effort and idempotent: when the
// question carries no marker, or no referent can be resolved, the
// question comes back unchanged.
//
// Referent priority: the active exhibit, then the most recent entity
// in the context, then an entity mined from the last guide turn.
func ResolveReferences(question string, ctx Context, history []Turn) string {
	if !hasReferenceMarker(question) {
		return question
	}

	referent := ctx.CurrentExhibit
	if referent == "" {
		referent = ctx.LastEntity()
	}
	if referent == "" {
		referent = MineEntityFromLastGuideTurn(history)
	}
	if referent == "" {
		return question
	}

	out := question
	for _, rule := range referenceRules {
		re, kind := rule.re, rule.suffix
		out = re.ReplaceAllStringFunc(out, func(m string) string {
			sub := re.FindStringSubmatch(m)
			lead := sub[1]
			trail := sub[len(sub)-1]
			effective := kind
			if kind == suffixNone && len(sub) == 5 {
				// "bu eserin" keeps its case on the substituted name.
				effective = nounSuffixKind(sub[3])
			}
			return lead + referent + caseSuffix(referent, effective) + trail
		})
	}
	return out
}

func nounSuffixKind(nounSuffix string) suffixKind {
	switch strings.ToLower(nounSuffix) {
	case "in":
		return suffixGenitive
	case "i":
		return suffixAccusative
	case "e":
		return suffixDative
	case "de", "den":
		return suffixLocative
	}
	return suffixNone
}

func hasReferenceMarker(question string) bool {
	for _, rule := range referenceRules {
		if rule.re.MatchString(question) {
			return true
		}
	}
	return false
}

// caseSuffix attaches a Turkish case ending with last-vowel harmony.
// This is a heuristic rewrite, not grammatical analysis; mild
// agreement errors are tolerated.
func caseSuffix(name string, kind suffixKind) string {
	if kind == suffixNone {
		return ""
	}

	vowel, endsWithVowel := harmonyVowel(name)
	buffer := ""
	if endsWithVowel {
		buffer = "n"
	}

	switch kind {
	case suffixGenitive:
		if !endsWithVowel {
			return "'" + vowel + "n"
		}
		return "'n" + vowel + "n"
	case suffixAccusative:
		return "'" + buffer + vowel
	case suffixDative:
		back := vowel == "ı" || vowel == "u"
		if back {
			return "'" + buffer + "a"
		}
		return "'" + buffer + "e"
	case suffixLocative:
		back := vowel == "ı" || vowel == "u"
		if back {
			return "'" + buffer + "da"
		}
		return "'" + buffer + "de"
	}
	return ""
}

// harmonyVowel picks the high-vowel harmony class of the name's last
// vowel and reports whether the name ends in a vowel.
func harmonyVowel(name string) (string, bool) {
	vowelClass := map[rune]string{
		'a': "ı", 'ı': "ı",
		'e': "i", 'i': "i",
		'o': "u", 'u': "u",
		'ö': "ü", 'ü': "ü",
	}

	runes := []rune(strings.ToLower(name))
	last := "ı"
	endsWithVowel := false
	for i, r := range runes {
		if v, ok := vowelClass[r]; ok {
			last = v
			endsWithVowel = i == len(runes)-1
		} else if i == len(runes)-1 {
			endsWithVowel = false
		}
	}
	return last, endsWithVowel
}
