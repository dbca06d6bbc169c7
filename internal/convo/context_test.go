package convo

import (
	"strings"
	"testing"
)

func TestBuildContextEmptyHistory(t *testing.T) {
	summary, ctx := BuildContext(nil, "Kuruluş Diploması")
	if summary != "" {
		t.Fatalf("summary = %q, want empty for empty history", summary)
	}
	if ctx.CurrentExhibit != "Kuruluş Diploması" {
		t.Fatalf("CurrentExhibit = %q", ctx.CurrentExhibit)
	}
}

func TestBuildContextTranscriptAndTopics(t *testing.T) {
	history := []Turn{
		{Role: RoleVisitor, Content: "Diploma hakkında bilgi verir misin?"},
		{Role: RoleGuide, Content: "Elbette, 1931 tarihli bir belgedir."},
	}
	summary, ctx := BuildContext(history, "")

	if !strings.HasPrefix(summary, "Previous conversation:") {
		t.Fatalf("summary missing header: %q", summary)
	}
	if !strings.Contains(summary, "Visitor: Diploma hakkında bilgi verir misin?") {
		t.Fatalf("summary missing visitor line: %q", summary)
	}
	if !strings.Contains(summary, "Guide: Elbette, 1931 tarihli bir belgedir.") {
		t.Fatalf("summary missing guide line: %q", summary)
	}

	found := false
	for _, topic := range ctx.RecentTopics {
		if topic == "diploma" {
			found = true
		}
	}
	if !found {
		t.Fatalf("topics = %v, want to include %q", ctx.RecentTopics, "diploma")
	}
}

func TestBuildContextTranscriptBounded(t *testing.T) {
	var history []Turn
	for i := 0; i < 10; i++ {
		history = append(history, Turn{Role: RoleVisitor, Content: "soru numarası"})
	}
	summary, _ := BuildContext(history, "")
	lines := strings.Split(summary, "\n")
	// Header plus at most maxPromptTurns transcript lines plus topics.
	if len(lines) > 2+maxPromptTurns {
		t.Fatalf("transcript too long: %d lines", len(lines))
	}
}

func TestBuildContextEntitiesMostRecentLast(t *testing.T) {
	history := []Turn{
		{Role: RoleGuide, Content: `Bu "Mona Lisa" kopyasıdır.`},
		{Role: RoleGuide, Content: `Şimdi 'Gece Devriyesi' eserine bakalım.`},
	}
	_, ctx := BuildContext(history, "")
	if ctx.LastEntity() != "Gece Devriyesi" {
		t.Fatalf("LastEntity = %q, want %q", ctx.LastEntity(), "Gece Devriyesi")
	}
}

func TestMineEntityFromLastGuideTurnNamedPattern(t *testing.T) {
	history := []Turn{
		{Role: RoleGuide, Content: "Koleksiyonumuzda en değerli parça Kuruluş Diploması adlı belgedir."},
	}
	if got := MineEntityFromLastGuideTurn(history); got != "Kuruluş Diploması" {
		t.Fatalf("mined entity = %q, want %q", got, "Kuruluş Diploması")
	}
}

func TestMineEntityNoGuideTurn(t *testing.T) {
	history := []Turn{{Role: RoleVisitor, Content: "Merhaba"}}
	if got := MineEntityFromLastGuideTurn(history); got != "" {
		t.Fatalf("mined entity = %q, want empty", got)
	}
}
