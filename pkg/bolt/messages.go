package bolt

import "github.com/orneryd/boltwire/pkg/packstream"

// Record wraps the field list of a RECORD message (spec §3).
type Record struct {
	Fields []packstream.Value
}

// SummaryKind classifies the terminal message of a pending response.
type SummaryKind uint8

const (
	// SummarySuccess means the request completed normally.
	SummarySuccess SummaryKind = iota
	// SummaryIgnored means the server was in a failed state and skipped
	// the request without executing it.
	SummaryIgnored
	// SummaryFailure means the server rejected or aborted the request;
	// Metadata carries "code" and "message" keys.
	SummaryFailure
)

func (k SummaryKind) String() string {
	switch k {
	case SummarySuccess:
		return "SUCCESS"
	case SummaryIgnored:
		return "IGNORED"
	case SummaryFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Summary is the terminal message of a pending response.
type Summary struct {
	Kind     SummaryKind
	Metadata map[string]packstream.Value
}

// fieldsOf collects a message's field values into the slice packstream.Struct
// takes as its field list.
func fieldsOf(vs ...packstream.Value) []packstream.Value { return vs }

// buildInit constructs the INIT "<user_agent>" {auth...} structure.
func buildInit(userAgent string, auth map[string]packstream.Value) packstream.Value {
	return packstream.Struct(packstream.SigInit, fieldsOf(
		packstream.Str(userAgent),
		packstream.Map(auth),
	))
}

// buildRun constructs the RUN "<statement>" {params} structure.
func buildRun(statement string, params map[string]packstream.Value) packstream.Value {
	if params == nil {
		params = map[string]packstream.Value{}
	}
	return packstream.Struct(packstream.SigRun, fieldsOf(
		packstream.Str(statement),
		packstream.Map(params),
	))
}

func buildDiscardAll() packstream.Value {
	return packstream.Struct(packstream.SigDiscardAll, nil)
}

func buildPullAll() packstream.Value {
	return packstream.Struct(packstream.SigPullAll, nil)
}

func buildAckFailure() packstream.Value {
	return packstream.Struct(packstream.SigAckFailure, nil)
}

func buildReset() packstream.Value {
	return packstream.Struct(packstream.SigReset, nil)
}
