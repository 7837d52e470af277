package scanalytics

// Metric keys reported to the statsd agent. Keys are namespaced by the
// metrics sink, not here.
const (
	HTTPRequest       = "microengine.http"
	HTTPResponseTimer = "microengine.request.time"

	ScanSuccess     = "microengine.scan.success"
	ScanFail        = "microengine.scan.fail"
	ScanExpired     = "microengine.scan.expired"
	ScanTypeValid   = "microengine.scan.valid-type"
	ScanTypeInvalid = "microengine.scan.invalid-type"
	ScanNoResult    = "microengine.scan.no-result"
	ScanTime        = "microengine.scan.time"
	ScanVerdict     = "microengine.scan.verdict"
)
