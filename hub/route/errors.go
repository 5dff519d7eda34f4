package route

var (
	ErrBadRequest = newError("Body invalid")
	ErrNotFound   = newError("Resource not found")
)

// HTTPError is the body of every failed request.
type HTTPError struct {
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func newError(msg string) *HTTPError {
	return &HTTPError{Message: msg}
}
