// Package verdict implements the structured scan result payload exchanged
// with the network: a malware family, a free-form extras bag and a nested
// scanner identity block. The document round-trips through JSON and accepts
// partial updates of the scanner block.
package verdict

import (
	"encoding/json"
	"fmt"
)

// ScannerInfo is the scanner identity block. Its keys match the alias names
// used by engineinfo.EngineInfo.
type ScannerInfo struct {
	Platform            string `json:"platform,omitempty"`
	Machine             string `json:"machine,omitempty"`
	Name                string `json:"name,omitempty"`
	Version             string `json:"version,omitempty"`
	VendorVersion       string `json:"vendor_version,omitempty"`
	SignaturesVersion   string `json:"signatures_version,omitempty"`
	SignaturesTimestamp string `json:"signatures_timestamp,omitempty"`
}

func (s ScannerInfo) isZero() bool {
	return s == ScannerInfo{}
}

// Verdict is one scan result document. Extra values serialize flattened
// next to malware_family, not nested under an "extra" key.
type Verdict struct {
	MalwareFamily string
	Scanner       ScannerInfo
	Extra         map[string]any
}

func New() *Verdict {
	return &Verdict{}
}

// Parse decodes a document from its serialized string form.
func Parse(s string) (*Verdict, error) {
	var v Verdict
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("parsing verdict: %w", err)
	}
	return &v, nil
}

// FromMap decodes a document from its raw mapping form.
func FromMap(m map[string]any) (*Verdict, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding verdict mapping: %w", err)
	}
	return Parse(string(b))
}

// Extract coerces any of the accepted metadata forms into a document.
// A nil metadata yields a nil document and no error, an unknown type is a
// programming defect and yields an error.
func Extract(meta any) (*Verdict, error) {
	switch m := meta.(type) {
	case nil:
		return nil, nil
	case *Verdict:
		return m, nil
	case string:
		return Parse(m)
	case map[string]any:
		return FromMap(m)
	default:
		return nil, fmt.Errorf("unsupported metadata type %T", meta)
	}
}

func (v *Verdict) SetMalwareFamily(family string) *Verdict {
	v.MalwareFamily = family
	return v
}

// AddExtra records a free-form attribute which serializes at the top level
// of the document.
func (v *Verdict) AddExtra(key string, value any) *Verdict {
	if v.Extra == nil {
		v.Extra = make(map[string]any, 1)
	}
	v.Extra[key] = value
	return v
}

// ScanError returns the scan_error extra, if present.
func (v *Verdict) ScanError() (string, bool) {
	s, ok := v.Extra["scan_error"].(string)
	return s, ok
}

// SetScanner merges alias-keyed identity values into the scanner block,
// overwriting only the keys present in info.
func (v *Verdict) SetScanner(info map[string]string) *Verdict {
	for key, value := range info {
		switch key {
		case "platform":
			v.Scanner.Platform = value
		case "machine":
			v.Scanner.Machine = value
		case "name":
			v.Scanner.Name = value
		case "version":
			v.Scanner.Version = value
		case "vendor_version":
			v.Scanner.VendorVersion = value
		case "signatures_version":
			v.Scanner.SignaturesVersion = value
		case "signatures_timestamp":
			v.Scanner.SignaturesTimestamp = value
		}
	}
	return v
}

// JSON returns the serialized string form. Key order is deterministic, so
// serializing an unchanged document is byte stable.
func (v *Verdict) JSON() (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding verdict: %w", err)
	}
	return string(b), nil
}

func (v *Verdict) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(v.Extra)+2)
	for key, value := range v.Extra {
		doc[key] = value
	}
	doc["malware_family"] = v.MalwareFamily
	if !v.Scanner.isZero() {
		doc["scanner"] = v.Scanner
	}
	return json.Marshal(doc)
}

func (v *Verdict) UnmarshalJSON(b []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*v = Verdict{}
	for key, raw := range doc {
		switch key {
		case "malware_family":
			if err := json.Unmarshal(raw, &v.MalwareFamily); err != nil {
				return fmt.Errorf("malware_family: %w", err)
			}
		case "scanner":
			if err := json.Unmarshal(raw, &v.Scanner); err != nil {
				return fmt.Errorf("scanner: %w", err)
			}
		default:
			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("extra %s: %w", key, err)
			}
			if v.Extra == nil {
				v.Extra = make(map[string]any)
			}
			v.Extra[key] = value
		}
	}
	return nil
}
