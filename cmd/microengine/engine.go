package main

import (
	"context"
	"os"
	"time"

	"github.com/polyswarm/microengine-go/internal/model"
	"github.com/polyswarm/microengine-go/internal/procexec"
	"github.com/polyswarm/microengine-go/internal/scanerr"
	"github.com/polyswarm/microengine-go/internal/textmatch"
	"github.com/polyswarm/microengine-go/internal/verdict"
)

// outputPatterns recognize the common command line scanner report format,
// e.g clamscan prints "/path: Eicar-Signature FOUND" or "/path: OK".
var outputPatterns = []string{
	`(?P<family>\S+) FOUND$`,
	`(?P<clean>\bOK\b)`,
}

// commandEngine adapts an external command line scanner into a ScanFunc.
type commandEngine struct {
	exe     string
	timeout time.Duration
	matcher *textmatch.Matcher
}

func newCommandEngine(exe string, timeout time.Duration) *commandEngine {
	return &commandEngine{
		exe:     exe,
		timeout: timeout,
		matcher: textmatch.MustCompile(outputPatterns...),
	}
}

// Scan writes the artifact to a scratch file, runs the scanner binary on it
// and parses its report. The file content arrives in memory because that is
// how the network hands artifacts over.
func (e *commandEngine) Scan(ctx context.Context, guid string, artifact model.ArtifactType, content []byte, _ map[string]any, _ string) (*model.ScanResult, error) {
	f, err := os.CreateTemp("", "artifact-*")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer func() {
		_ = os.Remove(path)
	}()
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	out, err := procexec.Run(ctx, e.exe, []string{path}, procexec.Options{Timeout: e.timeout})
	if err != nil {
		return nil, err
	}

	var family string
	var clean bool
	for name, text := range e.matcher.Each(out.Stdout, false) {
		switch name {
		case "family":
			family = text
		case "clean":
			clean = true
		}
	}

	switch {
	case family != "":
		return &model.ScanResult{
			Bit:      true,
			Verdict:  model.TriMalicious,
			Metadata: verdict.New().SetMalwareFamily(family),
		}, nil
	case clean || out.ExitCode == 0:
		return &model.ScanResult{
			Bit:      true,
			Verdict:  model.TriBenign,
			Metadata: verdict.New().SetMalwareFamily(""),
		}, nil
	default:
		return nil, scanerr.New(scanerr.Unprocessable)
	}
}
