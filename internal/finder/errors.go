package finder

import (
	"errors"
	"strconv"
	"strings"
)

// Kind classifies failures of the search pipeline.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConfiguration
	KindGeneration
	KindUpstreamProtocol
	KindTransientChunk
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindGeneration:
		return "generation"
	case KindUpstreamProtocol:
		return "upstream_protocol"
	case KindTransientChunk:
		return "transient_chunk"
	}
	return "unknown"
}

// Reason narrows an upstream failure for the user-facing message.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTimeout
	ReasonConnection
	ReasonEmptyBody
	ReasonParse
	ReasonAPIError
	ReasonUnexpectedShape
	ReasonHTTPStatus
	ReasonMalformedRecord
	// Configuration reasons.
	ReasonGeneratorKey
	ReasonRegistrarMissing
	ReasonRegistrarPlaceholder
)

// Pipeline stages used in logs and errors.
const (
	StageRequest    = "request"
	StageConfig     = "config"
	StageGenerate   = "generate"
	StageNormalize  = "normalize"
	StageAvailCheck = "availability"
)

// Error is the single error type produced by the pipeline and its upstream
// clients. Chunk is 1-based and zero when not applicable.
type Error struct {
	Kind    Kind
	Reason  Reason
	Stage   string
	Chunk   int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Stage)
	if e.Chunk > 0 {
		sb.WriteString(" chunk ")
		sb.WriteString(strconv.Itoa(e.Chunk))
	}
	sb.WriteString(": ")
	switch {
	case e.Message != "" && e.Err != nil:
		sb.WriteString(e.Message)
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	case e.Message != "":
		sb.WriteString(e.Message)
	case e.Err != nil:
		sb.WriteString(e.Err.Error())
	default:
		sb.WriteString(e.Kind.String())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf reports the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if fe, ok := AsError(err); ok {
		return fe.Kind
	}
	return KindUnknown
}

// UpstreamError builds a hard registrar failure.
func UpstreamError(reason Reason, message string, err error) *Error {
	return &Error{Kind: KindUpstreamProtocol, Reason: reason, Stage: StageAvailCheck, Message: message, Err: err}
}

// ChunkError builds a per-chunk failure that the Batcher skips.
func ChunkError(reason Reason, message string, err error) *Error {
	return &Error{Kind: KindTransientChunk, Reason: reason, Stage: StageAvailCheck, Message: message, Err: err}
}

func itoa(n int) string { return strconv.Itoa(n) }
