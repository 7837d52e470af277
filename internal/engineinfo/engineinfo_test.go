package engineinfo_test

import (
	"runtime"
	"testing"

	"github.com/polyswarm/microengine-go/internal/engineinfo"
	"github.com/polyswarm/microengine-go/internal/model"
	"github.com/polyswarm/microengine-go/internal/verdict"
	"github.com/stretchr/testify/require"
)

// fixture mirrors the usual engine setup: wrapper version at construction,
// signature metadata learned later from an update, using both canonical and
// alias key forms.
func engineInfo() *engineinfo.EngineInfo {
	info := engineinfo.New()
	info.Update(map[string]string{"version": "version"})
	info.Update(map[string]string{
		"engine_version":        "vendorver1",
		"signatures_version":    "sigversion",
		"definitions_timestamp": "now",
	})
	return info
}

func TestAliasRoundTrip(t *testing.T) {
	t.Parallel()

	got := engineInfo().ScannerInfo()

	require.Equal(t, map[string]string{
		"platform":             runtime.GOOS,
		"machine":              runtime.GOARCH,
		"version":              "version",
		"vendor_version":       "vendorver1",
		"signatures_version":   "sigversion",
		"signatures_timestamp": "now",
	}, got)
}

func TestOnlySetFieldsIncluded(t *testing.T) {
	t.Parallel()

	info := engineinfo.New()
	got := info.ScannerInfo()

	// operating system and architecture are always present, nothing else is
	require.Equal(t, map[string]string{
		"platform": runtime.GOOS,
		"machine":  runtime.GOARCH,
	}, got)
}

func TestUnknownKeysIgnored(t *testing.T) {
	t.Parallel()

	info := engineinfo.New()
	info.Update(map[string]string{"definitely_not_a_field": "x", "name": "engine"})

	got := info.ScannerInfo()
	require.Equal(t, "engine", got["name"])
	require.NotContains(t, got, "definitely_not_a_field")
}

func TestMergeSynthesizesDocument(t *testing.T) {
	t.Parallel()

	res := &model.ScanResult{Bit: false}
	require.NoError(t, engineInfo().Merge(res))

	s, ok := res.Metadata.(string)
	require.True(t, ok)

	v, err := verdict.Parse(s)
	require.NoError(t, err)
	require.Equal(t, "", v.MalwareFamily)
	require.Equal(t, "sigversion", v.Scanner.SignaturesVersion)
	require.Equal(t, "vendorver1", v.Scanner.VendorVersion)
}

func TestMergeKeepsExistingFields(t *testing.T) {
	t.Parallel()

	meta, err := verdict.New().
		SetMalwareFamily("MALWARE").
		AddExtra("scan_error", "unprocessable").
		JSON()
	require.NoError(t, err)

	res := &model.ScanResult{Bit: true, Verdict: model.TriMalicious, Metadata: meta}
	require.NoError(t, engineInfo().Merge(res))

	v, err := verdict.Parse(res.Metadata.(string))
	require.NoError(t, err)
	require.Equal(t, "MALWARE", v.MalwareFamily)
	tag, ok := v.ScanError()
	require.True(t, ok)
	require.Equal(t, "unprocessable", tag)
	require.Equal(t, "sigversion", v.Scanner.SignaturesVersion)
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	info := engineInfo()
	res := &model.ScanResult{
		Bit:      true,
		Verdict:  model.TriMalicious,
		Metadata: verdict.New().SetMalwareFamily("MALWARE"),
	}

	require.NoError(t, info.Merge(res))
	first := res.Metadata.(string)

	require.NoError(t, info.Merge(res))
	second := res.Metadata.(string)

	require.Equal(t, first, second)
}

func TestMergeMalformedMetadataPropagates(t *testing.T) {
	t.Parallel()

	res := &model.ScanResult{Bit: true, Metadata: `{"malware_family":`}
	require.Error(t, engineInfo().Merge(res))
}

func TestSignatureInfo(t *testing.T) {
	t.Parallel()

	require.Equal(t, "sigversion <now>", engineInfo().SignatureInfo())
}
