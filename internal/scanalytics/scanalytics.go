// Package scanalytics wraps scan functions with uniform timing, outcome
// classification, metric reporting and scanner identity enrichment. Engines
// register their scan function once, through Instrument or InstrumentAsync
// depending on their calling convention, and get back a function with the
// identical direct-call signature.
package scanalytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/polyswarm/microengine-go/internal/engineinfo"
	"github.com/polyswarm/microengine-go/internal/metrics"
	"github.com/polyswarm/microengine-go/internal/model"
	"github.com/polyswarm/microengine-go/internal/scanerr"
	"github.com/polyswarm/microengine-go/internal/verdict"
)

// ScanFunc is the direct calling convention: the scan runs in place and
// exactly one result or one error comes back. Errors from the scanerr
// taxonomy are classified and absorbed by the wrapper, anything else is a
// defect and propagates.
type ScanFunc func(ctx context.Context, guid string, artifact model.ArtifactType, content []byte, metadata map[string]any, chain string) (*model.ScanResult, error)

// Outcome delivers a suspended scan's completion.
type Outcome struct {
	Result *model.ScanResult
	Err    error
}

// AsyncScanFunc is the suspending calling convention: the scan starts work
// and delivers exactly one Outcome on the returned channel. The wrapper
// suspends at the channel without blocking other concurrent invocations.
type AsyncScanFunc func(ctx context.Context, guid string, artifact model.ArtifactType, content []byte, metadata map[string]any, chain string) <-chan Outcome

// Analytics holds the wrapper configuration, resolved once by the caller.
// The verbose flag additionally reports per-verdict and no-result counters.
// info may be nil when no scanner identity should be merged.
type Analytics struct {
	sink    metrics.Sink
	info    *engineinfo.EngineInfo
	verbose bool
}

func New(sink metrics.Sink, info *engineinfo.EngineInfo, verbose bool) *Analytics {
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &Analytics{sink: sink, info: info, verbose: verbose}
}

// Instrument wraps a direct scan function.
func (a *Analytics) Instrument(fn ScanFunc) ScanFunc {
	return func(ctx context.Context, guid string, artifact model.ArtifactType, content []byte, metadata map[string]any, chain string) (*model.ScanResult, error) {
		tags := []string{"type:" + artifact.String()}
		start := time.Now()
		res, err := fn(ctx, guid, artifact, content, metadata, chain)
		a.sink.Timing(ScanTime, time.Since(start), tags)
		return a.finish(ctx, res, err, tags)
	}
}

// InstrumentAsync wraps a suspending scan function into the direct
// signature. The timer measures wall clock time across the suspension and a
// canceled context surfaces as the context error, uncounted.
func (a *Analytics) InstrumentAsync(fn AsyncScanFunc) ScanFunc {
	return func(ctx context.Context, guid string, artifact model.ArtifactType, content []byte, metadata map[string]any, chain string) (*model.ScanResult, error) {
		tags := []string{"type:" + artifact.String()}
		start := time.Now()

		var res *model.ScanResult
		var err error
		select {
		case out, ok := <-fn(ctx, guid, artifact, content, metadata, chain):
			if ok {
				res, err = out.Result, out.Err
			}
			// a closed channel without an outcome counts as an
			// invalid-type scan below
		case <-ctx.Done():
			err = ctx.Err()
		}

		a.sink.Timing(ScanTime, time.Since(start), tags)
		return a.finish(ctx, res, err, tags)
	}
}

// finish is the classification core shared by both adapters: absorb taxonomy
// errors, report exactly one counter family, merge scanner identity and
// guarantee serialized metadata.
func (a *Analytics) finish(ctx context.Context, res *model.ScanResult, err error, tags []string) (*model.ScanResult, error) {
	if err != nil {
		var se *scanerr.Error
		if !errors.As(err, &se) {
			return nil, err
		}
		slog.DebugContext(ctx, "scan raised a known failure",
			"scan_error", se.Kind().EventTag(),
		)
		res = errorResult(se)
	}

	a.classify(res, tags)

	if res == nil {
		return nil, nil
	}
	if a.info != nil {
		if err := a.info.Merge(res); err != nil {
			return nil, err
		}
	}
	if err := serializeMetadata(res); err != nil {
		return nil, err
	}
	return res, nil
}

// errorResult synthesizes the outcome for a raised taxonomy failure: no
// verdict, and a metadata document tagging the failure kind.
func errorResult(se *scanerr.Error) *model.ScanResult {
	return &model.ScanResult{
		Bit:     false,
		Verdict: model.TriBenign,
		Metadata: verdict.New().
			SetMalwareFamily("").
			AddExtra("scan_error", se.Kind().EventTag()),
	}
}

// classify reports exactly one counter family for the outcome, plus the
// optional accompanying verdict counter in verbose mode.
func (a *Analytics) classify(res *model.ScanResult, tags []string) {
	if res == nil || !res.Verdict.Valid() {
		a.sink.Increment(ScanTypeInvalid, tags)
		return
	}

	if res.Bit {
		if v, _ := verdict.Extract(res.Metadata); v != nil && v.MalwareFamily != "" {
			tags = append(tags, "malware_family:"+v.MalwareFamily)
		}
		a.sink.Increment(ScanSuccess, tags)
		if a.verbose {
			vt := "verdict:benign"
			if res.Verdict == model.TriMalicious {
				vt = "verdict:malicious"
			}
			a.sink.Increment(ScanVerdict, append(slices.Clone(tags), vt))
		}
		return
	}

	// No verdict rendered. A metadata document equipped with a scan_error
	// extra counts as a failure whether or not the error was raised in the
	// scan function body; otherwise the engine is just reporting no result.
	if v, _ := verdict.Extract(res.Metadata); v != nil {
		if tag, ok := v.ScanError(); ok {
			a.sink.Increment(ScanFail, append(tags, "scan_error:"+tag))
			return
		}
	}
	if a.verbose {
		a.sink.Increment(ScanNoResult, tags)
	}
}

// serializeMetadata coerces whatever metadata form is left into the
// serialized string the caller is guaranteed to receive.
func serializeMetadata(res *model.ScanResult) error {
	switch m := res.Metadata.(type) {
	case nil, string:
	case *verdict.Verdict:
		s, err := m.JSON()
		if err != nil {
			return err
		}
		res.Metadata = s
	case map[string]any:
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		res.Metadata = string(b)
	default:
		return fmt.Errorf("unsupported metadata type %T", res.Metadata)
	}
	return nil
}
