package model

// Tri is a tri-state verdict. TriAbsent means the engine produced no verdict
// at all, which is distinct from an explicit benign one.
type Tri int8

const (
	TriAbsent Tri = iota
	TriBenign
	TriMalicious
)

// Valid reports whether t holds one of the three declared states. The
// instrumentation wrapper counts anything else as an invalid-type scan.
func (t Tri) Valid() bool {
	return t >= TriAbsent && t <= TriMalicious
}

func (t Tri) String() string {
	switch t {
	case TriAbsent:
		return "absent"
	case TriBenign:
		return "benign"
	case TriMalicious:
		return "malicious"
	default:
		return "invalid"
	}
}

// ScanResult is the outcome of a single scan invocation.
//
// Bit tells whether the engine was able to render any verdict at all,
// Verdict carries the verdict itself. Invariant: Bit == false implies
// Verdict is never TriMalicious.
//
// Metadata holds the verdict document in one of several accepted forms:
// nil, a serialized JSON string, a raw map[string]any or a
// *verdict.Verdict. The instrumentation wrapper always hands the result
// back with Metadata coerced to the serialized string form.
type ScanResult struct {
	Bit      bool
	Verdict  Tri
	Metadata any
}
