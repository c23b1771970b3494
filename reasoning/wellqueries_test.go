package reasoning

import "testing"

func TestNormalizeWellNodeID_AddsPrefixAndReplacesSlash(t *testing.T) {
	got, ok := normalizeWellNodeID("15/9-13")
	if !ok {
		t.Fatal("expected normalization to succeed")
	}
	if got != "force2020-well-15_9-13" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeWellNodeID_AlreadyPrefixedIsUnchanged(t *testing.T) {
	got, ok := normalizeWellNodeID("force2020-well-15_9-13")
	if !ok || got != "force2020-well-15_9-13" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestOrderMnemonics_PreferredOrderThenAlphabeticalRemainder(t *testing.T) {
	mnemonics := stringSet("GR", "ZZZ", "DEPT", "AAA", "NPHI")
	got := orderMnemonics(mnemonics)
	want := []string{"DEPT", "GR", "NPHI", "AAA", "ZZZ"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestHandleTripleComboExclusion_ExcludesCoreCurves(t *testing.T) {
	ctx := wellContext{OrderedMnemonics: []string{"GR", "NPHI", "RHOB", "RDEP", "CALI"}}
	answer, _, ok := handleTripleComboExclusion("show curves not in the triple combo", ctx)
	if !ok {
		t.Fatal("expected a match")
	}
	if answer == "" {
		t.Fatal("expected a non-empty answer")
	}
	if containsMnemonic(answer, "GR") || containsMnemonic(answer, "NPHI") || containsMnemonic(answer, "RHOB") {
		t.Fatalf("triple-combo curves should be excluded, got %q", answer)
	}
}

func TestHandleGammaRayNeutron_RequiresBothCurvesPresent(t *testing.T) {
	ctx := wellContext{Mnemonics: map[string]struct{}{"GR": {}}}
	if _, _, ok := handleGammaRayNeutron("does it have gamma ray and neutron porosity", ctx); ok {
		t.Fatal("expected no match without NPHI present")
	}
}

func TestHandleUnderscoreCount_CountsOnlyStandardMnemonics(t *testing.T) {
	ctx := wellContext{OrderedMnemonics: []string{"DEPTH_MD", "FORCE_2020_LITHOFACIES_LITHOLOGY", "GR"}}
	answer, _, ok := handleUnderscoreCount("how many curves use an underscore", ctx)
	if !ok {
		t.Fatal("expected a match")
	}
	if answer != "1" {
		t.Fatalf("got %q, expected the long FORCE_2020 tag to be excluded", answer)
	}
}

func containsMnemonic(text, mnemonic string) bool {
	for _, word := range splitOnComma(text) {
		if word == mnemonic {
			return true
		}
	}
	return false
}

func splitOnComma(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ',' || r == ' ' || r == '.' || r == ':' {
			if cur != "" {
				out = append(out, cur)
			}
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}
