package server

// Response is the envelope every API endpoint returns. Status is "OK" or
// "Error"; Error carries a message on failure and Data carries the payload
// on success.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	statusOK    = "OK"
	statusError = "Error"
)

// OK returns a successful Response with the given payload.
func OK(data any) Response {
	return Response{Status: statusOK, Data: data}
}

// Error returns a failed Response with the given message.
func Error(msg string) Response {
	return Response{Status: statusError, Error: msg}
}
