package telemetry

// API is where components report what went wrong (or right) instead of
// logging directly, tests swap it for a RecordingAPI.
//
// Ids name the component and method that reported, not the detail of the
// failure: a failed click while opening an editor is `slot-page.open-editor`
// with the error as a param, not `slot-page.open-editor-click-failed`.
// Ids are lowercase, underscores join words of a component and dashes join
// words of a method. Packages keep their ids as `report_*` constants and
// prefix them with NewScopedAPI, so the package path never goes into an id.
// Whether something broke is told by the method called, ids like
// `slot.broken-clear` should just be `slot.clear`.
type API interface {
	// ReportBroken reports a component that broke in a way that should be
	// fixed, usually the console changed its markup.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something worth a look that did not stop the
	// run, like a missing acknowledgment.
	ReportWarning(id string, params ...any)
	// ReportDebug is only shown with --verbose.
	ReportDebug(msg string, params ...any)
	// ReportCount reports the current value of a counter. Values are points
	// over time, they should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace before passing it on.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return s.namespace + ": " + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
