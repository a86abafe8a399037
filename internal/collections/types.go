package collections

// Name is a logical collection name. The set of names is closed: every
// constant below must have an entry in the default registry.
type Name string

const (
	// Notes holds free-text notes vectorized by the database's embedding integration.
	Notes Name = "Notes"
	// Patients holds patient summaries whose vectors are supplied by the caller.
	Patients Name = "Patients"
)

// Names returns every known collection name.
func Names() []Name {
	return []Name{Notes, Patients}
}

// Vectorization is the provisioning policy for a collection: who produces the
// embedding vectors of its records.
type Vectorization int

const (
	// ExternallyVectorized collections use the managed embedding integration.
	ExternallyVectorized Vectorization = iota + 1
	// CallerSuppliedVectors collections expect a vector with every insert.
	CallerSuppliedVectors
)

func (v Vectorization) String() string {
	switch v {
	case ExternallyVectorized:
		return "externally-vectorized"
	case CallerSuppliedVectors:
		return "caller-supplied-vectors"
	default:
		return "unknown"
	}
}

// DataType is the primitive type of a collection property.
type DataType string

const (
	DataTypeText    DataType = "text"
	DataTypeInt     DataType = "int"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeDate    DataType = "date"
)

// Property describes one field of a collection's records.
type Property struct {
	Name        string
	DataType    DataType
	Description string
}

// Schema is the registry entry for a collection.
type Schema struct {
	Vectorization Vectorization
	// Dimensions is the vector size for CallerSuppliedVectors collections.
	// Externally vectorized collections take their size from the embedder.
	Dimensions  int
	Description string
	Properties  []Property
}

// TextFields returns the names of the text properties in declaration order.
func (s Schema) TextFields() []string {
	var fields []string
	for _, p := range s.Properties {
		if p.DataType == DataTypeText {
			fields = append(fields, p.Name)
		}
	}
	return fields
}

// Matches reports whether shape has exactly the schema's properties
// (name and type; order and descriptions are ignored).
func (s Schema) Matches(shape []Property) bool {
	if len(shape) != len(s.Properties) {
		return false
	}
	want := make(map[string]DataType, len(s.Properties))
	for _, p := range s.Properties {
		want[p.Name] = p.DataType
	}
	for _, p := range shape {
		dt, ok := want[p.Name]
		if !ok || dt != p.DataType {
			return false
		}
	}
	return true
}

// Note is a record of the Notes collection.
type Note struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Patient is a record of the Patients collection.
type Patient struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Def binds a collection name to the Go type of its records.
type Def[T any] struct {
	Name Name
}

var (
	NotesDef    = Def[Note]{Name: Notes}
	PatientsDef = Def[Patient]{Name: Patients}
)
