package scope

import (
	"strings"
	"testing"
)

func TestCheck_WeatherIsOutOfScope(t *testing.T) {
	result := Check("What is the weather today?")
	if result.InScope {
		t.Fatal("expected weather query to be out of scope")
	}
	if result.Confidence <= 0.7 {
		t.Fatalf("expected confidence above 0.7, got %v", result.Confidence)
	}
	if !strings.HasPrefix(result.DefusionMessage, "This question appears to be about weather") {
		t.Errorf("unexpected defusion message: %q", result.DefusionMessage)
	}
}

func TestCheck_WellQueryIsInScope(t *testing.T) {
	result := Check("How many curves does well 15/9-13 have?")
	if !result.InScope {
		t.Fatal("expected well query to be in scope")
	}
}

func TestCheck_UnknownQueryDefaultsInScope(t *testing.T) {
	result := Check("tell me something interesting")
	if !result.InScope {
		t.Fatal("ambiguous queries should default to in scope at low confidence")
	}
}
