package crawler

// StatusClass groups HTTP response codes into the outcome classes the
// walker branches on.
type StatusClass int

const (
	ClassInformational StatusClass = iota
	ClassSuccess
	ClassRedirection
	ClassClientError
	ClassServerError
)

// String returns a human-readable name for the class.
func (c StatusClass) String() string {
	switch c {
	case ClassInformational:
		return "Informational"
	case ClassSuccess:
		return "Success"
	case ClassRedirection:
		return "Redirection"
	case ClassClientError:
		return "Client Error"
	case ClassServerError:
		return "Server Error"
	}
	return "Unknown"
}

// Synthetic status codes for crawler-internal outcomes. They travel through
// the same status field as real HTTP codes but sit above every range
// Classify knows about, so they never collapse into a real class.
const (
	// StatusFetchTimeout marks a fetch that exhausted its whole-call budget.
	StatusFetchTimeout = 620
	// StatusContinuationSearchTimeout marks a continuation-link search that
	// missed its deadline.
	StatusContinuationSearchTimeout = 621
	// StatusNextSearchTimeout marks a next-page-link search that missed its
	// deadline.
	StatusNextSearchTimeout = 622
	// StatusRenderRedirect marks a page whose address changed while the
	// browser rendered it. The rendered HTML is still usable.
	StatusRenderRedirect = 623
	// StatusTooManyPages marks a walk stopped by the page cap.
	StatusTooManyPages = 624
)

// Classify maps an HTTP status code to its class. The second return value
// is false for codes outside every known range, including the synthetic
// Status* codes; callers must not assume a default class for those.
func Classify(code int) (StatusClass, bool) {
	switch {
	case code >= 100 && code <= 102:
		return ClassInformational, true
	case code >= 200 && code <= 226:
		return ClassSuccess, true
	case code >= 300 && code <= 310:
		return ClassRedirection, true
	case code >= 400 && code <= 451:
		return ClassClientError, true
	case code >= 500 && code <= 520:
		return ClassServerError, true
	}
	return 0, false
}

// isErrorStatus reports whether code classifies as a client or server error.
func isErrorStatus(code int) bool {
	class, ok := Classify(code)
	return ok && (class == ClassClientError || class == ClassServerError)
}
