package collections

import "fmt"

// PatientVectorSize is the vector dimension callers must supply for Patients.
const PatientVectorSize = 384

var defaultRegistry = NewRegistry(map[Name]Schema{
	Notes: {
		Vectorization: ExternallyVectorized,
		Description:   "Short free-text notes",
		Properties: []Property{
			{Name: "title", DataType: DataTypeText, Description: "Note title"},
			{Name: "body", DataType: DataTypeText, Description: "Note body"},
		},
	},
	Patients: {
		Vectorization: CallerSuppliedVectors,
		Dimensions:    PatientVectorSize,
		Description:   "Patient summaries with precomputed embeddings",
		Properties: []Property{
			{Name: "name", DataType: DataTypeText},
			{Name: "summary", DataType: DataTypeText},
		},
	},
})

func init() {
	if err := defaultRegistry.Validate(Names()); err != nil {
		panic(fmt.Sprintf("collections: invalid default registry: %v", err))
	}
	mustMatch(defaultRegistry, NotesDef)
	mustMatch(defaultRegistry, PatientsDef)
}

func mustMatch[T any](r *Registry, def Def[T]) {
	shape, err := ShapeOf[T]()
	if err != nil {
		panic(fmt.Sprintf("collections: %s: %v", def.Name, err))
	}
	schema, _ := r.Lookup(def.Name)
	if !schema.Matches(shape) {
		panic(fmt.Sprintf("collections: %s: record type does not match registered properties", def.Name))
	}
}

// Default returns the built-in registry.
func Default() *Registry {
	return defaultRegistry
}
