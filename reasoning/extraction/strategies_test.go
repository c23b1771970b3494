package extraction

import "testing"

func TestDetectAttributeQuery_WellName(t *testing.T) {
	det, ok := DetectAttributeQuery("What is the well name?")
	if !ok || det.AttributeName != "well" {
		t.Fatalf("expected well attribute detection, got %+v ok=%v", det, ok)
	}
}

func TestDetectAttributeQuery_UnitFilteredMnemonics(t *testing.T) {
	det, ok := DetectAttributeQuery("Which curves have units of ohm.m?")
	if !ok || det.QueryType != "unit_filtered_mnemonics" || det.UnitFilter != "ohm.m" {
		t.Fatalf("expected unit-filtered mnemonic detection, got %+v ok=%v", det, ok)
	}
}

func TestShouldUseStructuredExtraction_ExcludesAggregation(t *testing.T) {
	if ShouldUseStructuredExtraction("what state is this well in", true) {
		t.Fatal("aggregation queries should not use structured extraction")
	}
}

func TestShouldUseStructuredExtraction_ExcludesExplainQueries(t *testing.T) {
	if ShouldUseStructuredExtraction("why does gamma ray indicate shale", false) {
		t.Fatal("explanatory queries should not use structured extraction")
	}
}

func TestStateAttribute_FormatsAbbreviationAndFullName(t *testing.T) {
	texts := []string{"- state: IN\nsome other line"}
	result, ok := StateAttribute(texts)
	if !ok {
		t.Fatal("expected a state match")
	}
	want := "State: IN (Indiana)"
	if result != want {
		t.Fatalf("got %q, want %q", result, want)
	}
}

func TestLocationAttribute_RequiresWhereOrLocated(t *testing.T) {
	_, ok := LocationAttribute("what is the well name", []string{"LOCATION: Lafayette, IN"})
	if ok {
		t.Fatal("expected no location match without where/located in the query")
	}

	result, ok := LocationAttribute("where is the site located", []string{"LOCATION: Lafayette, IN"})
	if !ok {
		t.Fatal("expected a location match")
	}
	if result != "Location: Lafayette, Indiana" {
		t.Fatalf("got %q", result)
	}
}

func TestMnemonicWithDescriptions_TruncatesAboveFive(t *testing.T) {
	texts := make([]string, 6)
	for i := range texts {
		texts[i] = "- mnemonic: M" + string(rune('A'+i))
	}
	result, ok := MnemonicWithDescriptions(texts)
	if !ok {
		t.Fatal("expected a match")
	}
	if result[:2] != "6 " {
		t.Fatalf("expected truncation summary, got %q", result)
	}
}

func TestGenericAttribute_SingleValue(t *testing.T) {
	result, ok := GenericAttribute("operator", []string{"- operator: Acme Energy"})
	if !ok || result != "Acme Energy" {
		t.Fatalf("got %q ok=%v", result, ok)
	}
}
