package vectorstore

import "encoding/json"

// reservedDocumentKeys are the fields with dedicated struct members; every
// other key found on the wire is folded into Fields.
var reservedDocumentKeys = map[string]struct{}{
	"_id": {}, "$vector": {}, "text": {}, "semantic_text": {}, "entity_type": {},
}

// MarshalJSON flattens Fields alongside the named document fields, matching
// the store's flat-document wire shape.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Fields)+5)
	for k, v := range d.Fields {
		out[k] = v
	}
	if d.ID != "" {
		out["_id"] = d.ID
	}
	if len(d.Vector) > 0 {
		out["$vector"] = d.Vector
	}
	if d.Text != "" {
		out["text"] = d.Text
	}
	if d.SemanticText != "" {
		out["semantic_text"] = d.SemanticText
	}
	if d.EntityType != "" {
		out["entity_type"] = d.EntityType
	}
	return json.Marshal(out)
}

// UnmarshalJSON captures the named fields and folds everything else into
// Fields.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Fields = make(map[string]interface{})
	for k, v := range raw {
		if _, reserved := reservedDocumentKeys[k]; reserved {
			continue
		}
		d.Fields[k] = v
	}

	if v, ok := raw["_id"].(string); ok {
		d.ID = v
	}
	if v, ok := raw["text"].(string); ok {
		d.Text = v
	}
	if v, ok := raw["semantic_text"].(string); ok {
		d.SemanticText = v
	}
	if v, ok := raw["entity_type"].(string); ok {
		d.EntityType = v
	}
	if vecRaw, ok := raw["$vector"].([]interface{}); ok {
		vec := make([]float32, len(vecRaw))
		for i, x := range vecRaw {
			if f, ok := x.(float64); ok {
				vec[i] = float32(f)
			}
		}
		d.Vector = vec
	}

	return nil
}

// ResolvedText returns the text the retrieval pipeline projects into
// workflow.State.Retrieved: semantic_text if present, else text, else a
// synthesized rendering of the document's fields.
func (d Document) ResolvedText() string {
	if d.SemanticText != "" {
		return d.SemanticText
	}
	if d.Text != "" {
		return d.Text
	}
	b, _ := json.Marshal(d.Fields)
	return string(b)
}
