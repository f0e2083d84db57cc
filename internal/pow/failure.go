package pow

// FailureKind classifies why a token request produced no token.
type FailureKind string

const (
	ConfigMissing    FailureKind = "ConfigMissing"
	UpstreamError    FailureKind = "UpstreamError"
	InvalidEnvelope  FailureKind = "InvalidEnvelope"
	UpstreamRejected FailureKind = "UpstreamRejected"
	EmptyToken       FailureKind = "EmptyToken"
	RequestException FailureKind = "RequestException"
)

var failureKinds = []FailureKind{
	ConfigMissing,
	UpstreamError,
	InvalidEnvelope,
	UpstreamRejected,
	EmptyToken,
	RequestException,
}

type failure struct {
	kind         FailureKind
	message      string
	statusCode   int
	responseText string
}
