package aggregation

import "testing"

func numericDocs() []Document {
	return []Document{
		{Fields: map[string]interface{}{"year": "2015"}},
		{Fields: map[string]interface{}{"year": "2019"}},
		{Fields: map[string]interface{}{"year": "2012"}},
	}
}

func TestMaxField_ReturnsIntegerWhenWhole(t *testing.T) {
	value, ok := MaxField(numericDocs(), "year")
	if !ok {
		t.Fatal("expected a max value")
	}
	if value != int64(2019) {
		t.Fatalf("got %v (%T)", value, value)
	}
}

func TestMinField_ReturnsIntegerWhenWhole(t *testing.T) {
	value, ok := MinField(numericDocs(), "year")
	if !ok {
		t.Fatal("expected a min value")
	}
	if value != int64(2012) {
		t.Fatalf("got %v (%T)", value, value)
	}
}

func TestSumField_IgnoresNonNumeric(t *testing.T) {
	documents := []Document{
		{Fields: map[string]interface{}{"production": "100"}},
		{Fields: map[string]interface{}{"production": "n/a"}},
		{Fields: map[string]interface{}{"production": 50}},
	}
	if got := SumField(documents, "production"); got != 150 {
		t.Fatalf("got %v", got)
	}
}

func TestListUniqueValues_SortsAndCaps(t *testing.T) {
	documents := []Document{
		{Fields: map[string]interface{}{"state": "Texas"}},
		{Fields: map[string]interface{}{"state": "Indiana"}},
		{Fields: map[string]interface{}{"state": "Texas"}},
	}
	values := ListUniqueValues(documents, "state", 20)
	if len(values) != 2 || values[0] != "Indiana" || values[1] != "Texas" {
		t.Fatalf("got %v", values)
	}
}

func TestFormatStatePhrase_ThreeStatesUsesOxfordComma(t *testing.T) {
	got := formatStatePhrase([]string{"Indiana", "Texas", "Ohio"})
	want := "in Indiana, Texas, and Ohio"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
