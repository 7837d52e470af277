// Package scanerr defines the closed set of failures a scan function or the
// process helper is allowed to raise. Values are pure data carriers, they do
// not log, retry or perform any I/O. The instrumentation wrapper recognizes
// only these errors; anything else is treated as a programming defect and
// propagates to the caller.
package scanerr

import (
	"fmt"
	"strings"
)

// Kind enumerates the declared failure kinds. The zero value is invalid,
// constructors reject it, so a raised error always belongs to a concrete kind.
type Kind int

const (
	kindInvalid Kind = iota

	// scan-triggered failures
	Unprocessable
	Timeout
	CalledProcess
	CommandNotFound
	IllegalFileType
	FileEncrypted
	FileCorrupted
	HighCompression
	ServerNotReady
	ServerTransport

	// signature-triggered failures
	SignaturesMissing
	MalformedSignatures
	SignatureUpdate
	TransportEngineUpdate
	MalformedEngineUpdate

	kindEnd
)

// Family splits kinds into failures raised while scanning an artifact and
// failures raised while loading or updating detection signatures.
type Family int

const (
	FamilyScan Family = iota
	FamilySignature
)

// kindNames maps each kind to its declared name. The event tag is derived
// from it once at package initialization, never per instance.
var kindNames = map[Kind]string{
	Unprocessable:         "UnprocessableScanError",
	Timeout:               "TimeoutScanError",
	CalledProcess:         "CalledProcessScanError",
	CommandNotFound:       "CommandNotFoundScanError",
	IllegalFileType:       "IllegalFileTypeScanError",
	FileEncrypted:         "FileEncryptedScanError",
	FileCorrupted:         "FileCorruptedScanError",
	HighCompression:       "HighCompressionScanError",
	ServerNotReady:        "ServerNotReadyScanError",
	ServerTransport:       "ServerTransportScanError",
	SignaturesMissing:     "SignaturesMissingScanError",
	MalformedSignatures:   "MalformedSignaturesScanError",
	SignatureUpdate:       "SignatureUpdateError",
	TransportEngineUpdate: "TransportEngineUpdateError",
	MalformedEngineUpdate: "MalformedEngineUpdateError",
}

var eventTags = func() map[Kind]string {
	tags := make(map[Kind]string, len(kindNames))
	for kind, name := range kindNames {
		tags[kind] = deriveTag(name)
	}
	return tags
}()

// deriveTag strips the reserved suffix from a kind name and folds the rest
// to lower case, e.g "IllegalFileTypeScanError" yields "illegalfiletype".
func deriveTag(name string) string {
	if s, ok := strings.CutSuffix(name, "ScanError"); ok {
		name = s
	} else if s, ok := strings.CutSuffix(name, "Error"); ok {
		name = s
	}
	return strings.ToLower(name)
}

func (k Kind) valid() bool {
	return k > kindInvalid && k < kindEnd
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// EventTag returns the stable machine readable tag of the kind. It is a pure
// function of the kind and identical across instances.
func (k Kind) EventTag() string {
	return eventTags[k]
}

func (k Kind) Family() Family {
	switch k {
	case SignaturesMissing, MalformedSignatures, SignatureUpdate,
		TransportEngineUpdate, MalformedEngineUpdate:
		return FamilySignature
	default:
		return FamilyScan
	}
}

// Error is a single raised failure. Cmd and Reason are only populated by the
// process related kinds.
type Error struct {
	kind   Kind
	Cmd    []string
	Reason string
}

// New raises a plain failure of the given kind. It panics when the kind is
// not one of the declared leaves, raising an undeclared failure is a bug.
func New(kind Kind) *Error {
	if !kind.valid() {
		panic(fmt.Sprintf("scanerr: undeclared kind %d", int(kind)))
	}
	return &Error{kind: kind}
}

// Process raises a CalledProcess failure carrying the attempted command and a
// short free text reason.
func Process(cmd []string, reason string) *Error {
	e := New(CalledProcess)
	e.Cmd = cmd
	e.Reason = reason
	return e
}

// NotFound raises a CommandNotFound failure carrying the attempted command.
func NotFound(cmd []string) *Error {
	e := New(CommandNotFound)
	e.Cmd = cmd
	return e
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.EventTag())
	b.WriteString(" scan error")
	if len(e.Cmd) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Cmd, " "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}
