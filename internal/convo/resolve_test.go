package convo

import (
	"strings"
	"testing"
)

func TestResolveWithActiveExhibit(t *testing.T) {
	ctx := Context{CurrentExhibit: "Kuruluş Diploması"}
	got := ResolveReferences("Bunun önemi ne?", ctx, nil)
	if !strings.Contains(got, "Kuruluş Diploması") {
		t.Fatalf("resolved question = %q, want it to contain the exhibit name", got)
	}
	if strings.Contains(strings.ToLower(got), "bunun") {
		t.Fatalf("resolved question = %q, pronoun not substituted", got)
	}
	if !strings.Contains(got, "önemi ne?") {
		t.Fatalf("resolved question = %q, rest of question altered", got)
	}
}

func TestResolveGenitiveSuffix(t *testing.T) {
	ctx := Context{CurrentExhibit: "Kuruluş Diploması"}
	got := ResolveReferences("Bunun önemi ne?", ctx, nil)
	if got != "Kuruluş Diploması'nın önemi ne?" {
		t.Fatalf("resolved question = %q", got)
	}
}

func TestResolveDemonstrativeNounPair(t *testing.T) {
	ctx := Context{CurrentExhibit: "Gazi Portresi"}
	got := ResolveReferences("Bu eser kim tarafından yapıldı?", ctx, nil)
	if !strings.Contains(got, "Gazi Portresi") {
		t.Fatalf("resolved question = %q", got)
	}
}

func TestResolveNoMarkerIsNoOp(t *testing.T) {
	ctx := Context{CurrentExhibit: "Kuruluş Diploması"}
	q := "Müze ne zaman açıldı?"
	if got := ResolveReferences(q, ctx, nil); got != q {
		t.Fatalf("ResolveReferences changed a question without markers: %q", got)
	}
}

func TestResolveUnresolvableIsIdempotent(t *testing.T) {
	q := "Bunun önemi ne?"
	once := ResolveReferences(q, Context{}, nil)
	if once != q {
		t.Fatalf("unresolvable reference should leave the question unchanged, got %q", once)
	}
	twice := ResolveReferences(once, Context{}, nil)
	if twice != once {
		t.Fatalf("ResolveReferences not idempotent: %q then %q", once, twice)
	}
}

func TestResolveFallsBackToRecentEntity(t *testing.T) {
	ctx := Context{RecentEntities: []string{"Mona Lisa", "Gece Devriyesi"}}
	got := ResolveReferences("Bunu kim yaptı?", ctx, nil)
	if !strings.Contains(got, "Gece Devriyesi") {
		t.Fatalf("resolved question = %q, want most recent entity", got)
	}
}

func TestResolveMinesEntityFromGuideTurn(t *testing.T) {
	history := []Turn{
		{Role: RoleVisitor, Content: "En eski belge hangisi?"},
		{Role: RoleGuide, Content: "En eski belgemiz 'Kuruluş Diploması' adıyla sergileniyor."},
	}
	got := ResolveReferences("Bunun hikayesi nedir?", Context{}, history)
	if !strings.Contains(got, "Kuruluş Diploması") {
		t.Fatalf("resolved question = %q, want mined entity", got)
	}
}

func TestCaseSuffixHarmony(t *testing.T) {
	cases := []struct {
		name string
		kind suffixKind
		want string
	}{
		{"Kuruluş Diploması", suffixGenitive, "'nın"},
		{"Gazi Portresi", suffixGenitive, "'nin"},
		{"Tören Kıyafeti", suffixAccusative, "'ni"},
		{"Okul Anahtarı", suffixDative, "'na"},
	}
	for _, tc := range cases {
		if got := caseSuffix(tc.name, tc.kind); got != tc.want {
			t.Fatalf("caseSuffix(%q, %d) = %q, want %q", tc.name, tc.kind, got, tc.want)
		}
	}
}
