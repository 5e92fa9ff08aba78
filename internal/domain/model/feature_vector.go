package model

import "fmt"

// FeatureSchema fixes the set and order of feature columns. The positional
// encoding of every FeatureVector is taken from the schema, never from map
// insertion order. Trained artifacts record the schema version; a version
// change invalidates previously trained artifacts.
type FeatureSchema struct {
	Version string
	Fields  []string

	index map[string]int
}

// NewFeatureSchema builds a schema from an explicit ordered field list.
func NewFeatureSchema(version string, fields []string) *FeatureSchema {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	return &FeatureSchema{Version: version, Fields: fields, index: idx}
}

// Index returns the column position of a field, or -1 if the schema does not
// define it.
func (s *FeatureSchema) Index(field string) int {
	i, ok := s.index[field]
	if !ok {
		return -1
	}
	return i
}

// Len returns the number of columns.
func (s *FeatureSchema) Len() int { return len(s.Fields) }

// FeatureVector is an ordered mapping from feature name to a float64 value.
// Ordering always follows the owning schema.
type FeatureVector struct {
	schema *FeatureSchema
	values []float64
}

// NewFeatureVector creates a zero-valued vector over the given schema.
func NewFeatureVector(schema *FeatureSchema) FeatureVector {
	return FeatureVector{schema: schema, values: make([]float64, schema.Len())}
}

// Schema returns the schema this vector was produced under.
func (v FeatureVector) Schema() *FeatureSchema { return v.schema }

// Set assigns a value to a named feature. Unknown names return an error so a
// drifting extractor cannot silently write outside the schema.
func (v FeatureVector) Set(field string, value float64) error {
	i := v.schema.Index(field)
	if i < 0 {
		return fmt.Errorf("feature %q not in schema %s", field, v.schema.Version)
	}
	v.values[i] = value
	return nil
}

// Get returns the value of a named feature (0.0 for unknown names).
func (v FeatureVector) Get(field string) float64 {
	i := v.schema.Index(field)
	if i < 0 {
		return 0
	}
	return v.values[i]
}

// Values returns the dense column values in schema order. The returned slice
// is a copy; mutating it does not affect the vector.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Map returns the vector as a flat name-to-value mapping, the cache wire shape.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for i, f := range v.schema.Fields {
		out[f] = v.values[i]
	}
	return out
}

// TrainingSample pairs a feature vector with its resolved binary label
// (1 = confirmed, 0 = unconfirmed or canceled). Never mutated after creation.
type TrainingSample struct {
	Features FeatureVector
	Label    int
}
