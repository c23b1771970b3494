package relationship

import "testing"

func TestDetect_WellToCurvesHighConfidence(t *testing.T) {
	det := Detect("What curves are available for well 15/9-13?")
	if !det.IsRelationshipQuery {
		t.Fatal("expected relationship query")
	}
	if det.RelationshipType != WellToCurves {
		t.Fatalf("expected well_to_curves, got %v", det.RelationshipType)
	}
	if det.Confidence < 0.6 {
		t.Fatalf("expected confidence >= 0.6, got %v", det.Confidence)
	}
	if !det.Traversal.ApplyTraversal {
		t.Fatal("expected traversal to be applied")
	}
}

func TestDetect_CurveToWell(t *testing.T) {
	det := Detect("which well has curve GR")
	if det.RelationshipType != CurveToWell {
		t.Fatalf("expected curve_to_well, got %v", det.RelationshipType)
	}
}

func TestDetect_NonRelationshipQueryLowConfidence(t *testing.T) {
	det := Detect("What is the weather today?")
	if det.IsRelationshipQuery {
		t.Fatal("expected non-relationship query")
	}
	if det.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", det.Confidence)
	}
}

func TestDetect_ConfidenceClampedToOne(t *testing.T) {
	det := Detect("what curves are available for well 15/9-13 which contains GR and belongs to site 12345678")
	if det.Confidence > 1.0 {
		t.Fatalf("confidence must be clamped to 1.0, got %v", det.Confidence)
	}
}

func TestDetect_SiteIDExtraction(t *testing.T) {
	det := Detect("what measurements are available for site 12345678")
	if det.Entities["site_id"] != "12345678" {
		t.Fatalf("expected site_id entity, got %v", det.Entities)
	}
}
