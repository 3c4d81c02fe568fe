package deletion

import "net/http"

// Kind tags the outcome of a deletion request.
type Kind int

const (
	KindSuccess Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindDeletion
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidation:
		return "validation_error"
	case KindAuthentication:
		return "authentication_error"
	case KindAuthorization:
		return "authorization_error"
	case KindDeletion:
		return "deletion_error"
	case KindInternal:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Status is the HTTP status code the transport answers with for k.
func (k Kind) Status() int {
	switch k {
	case KindSuccess:
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Public messages. Clients match on these strings.
const (
	MsgDeleted            = "User account deleted successfully"
	MsgUserIDRequired     = "userId is required"
	MsgMissingAuthHeader  = "Missing authorization header"
	MsgInvalidToken       = "Invalid authorization token"
	MsgCrossAccount       = "Unauthorized: Cannot delete another user's account"
	MsgDeleteFailed       = "Failed to delete user account"
	MsgInternal           = "Internal server error"
	DetailUnknown         = "Unknown error"
	DetailMalformedBody   = "malformed request body"
	DetailIdentityUnavail = "identity service unavailable"
)

// Request is the body of a deletion call.
type Request struct {
	UserID string `json:"userId"`
}

// SuccessResponse is the body returned when the account was removed.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body returned for every failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Result is the tagged outcome of the pipeline. Cause is kept for logging only and
// never rendered.
type Result struct {
	Kind    Kind
	Message string
	Detail  string
	Cause   error
}

func succeeded() Result {
	return Result{Kind: KindSuccess, Message: MsgDeleted}
}

func failed(kind Kind, msg, detail string, cause error) Result {
	return Result{Kind: kind, Message: msg, Detail: detail, Cause: cause}
}

// Status returns the HTTP status for the result.
func (r Result) Status() int { return r.Kind.Status() }

// Body returns the JSON payload for the result.
func (r Result) Body() any {
	if r.Kind == KindSuccess {
		return SuccessResponse{Success: true, Message: r.Message}
	}
	return ErrorResponse{Error: r.Message, Details: r.Detail}
}
