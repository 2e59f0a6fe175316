package api

import (
	"net/http"

	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
)

const (
	titleGenerate = "Failed to generate domains"
	titleCheck    = "Failed to check domains"
)

var registrarReasonMessages = map[finder.Reason]string{
	finder.ReasonTimeout:    "Request timed out. Please try again.",
	finder.ReasonConnection: "Unable to connect to Namecheap API. Please check your internet connection.",
	finder.ReasonParse:      "Error parsing response from Namecheap API. Please check your API credentials and try again.",
	finder.ReasonEmptyBody:  "Received empty response from Namecheap API. Please check your API credentials.",
}

// userFacingError maps a pipeline error to status, title and message. The
// message never contains credentials: registrar and generator clients only put
// upstream error text and counts into *finder.Error.
func userFacingError(err error) (int, string, string) {
	fe, ok := finder.AsError(err)
	if !ok {
		return http.StatusInternalServerError, titleGenerate, "An unexpected error occurred. Please try again."
	}

	switch fe.Kind {
	case finder.KindValidation:
		return http.StatusBadRequest, fe.Message, ""
	case finder.KindConfiguration:
		if fe.Reason == finder.ReasonRegistrarMissing || fe.Reason == finder.ReasonRegistrarPlaceholder {
			return http.StatusInternalServerError, titleCheck, fe.Message
		}
		return http.StatusInternalServerError, titleGenerate, fe.Message
	case finder.KindGeneration:
		if fe.Message != "" {
			return http.StatusInternalServerError, titleGenerate, fe.Message
		}
		return http.StatusInternalServerError, titleGenerate, "Failed to generate domain suggestions"
	case finder.KindUpstreamProtocol, finder.KindTransientChunk:
		if msg, ok := registrarReasonMessages[fe.Reason]; ok {
			return http.StatusInternalServerError, titleCheck, msg
		}
		if fe.Reason == finder.ReasonAPIError && fe.Message != "" {
			return http.StatusInternalServerError, titleCheck, fe.Message
		}
		return http.StatusInternalServerError, titleCheck, "Unexpected response from Namecheap API. Please try again."
	}
	return http.StatusInternalServerError, titleGenerate, "An unexpected error occurred. Please try again."
}
