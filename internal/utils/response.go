package utils

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Every response uses a uniform envelope so clients can branch on the
// success flag alone.  Successes carry data, failures carry an empty
// errors list; the HTTP status is mirrored inside the body.

type successEnvelope struct {
    StatusCode int    `json:"statusCode"`
    Data       any    `json:"data"`
    Message    string `json:"message"`
    Success    bool   `json:"success"`
}

type errorEnvelope struct {
    StatusCode int      `json:"statusCode"`
    Message    string   `json:"message"`
    Success    bool     `json:"success"`
    Errors     []string `json:"errors"`
}

// APIError is a classified, client-safe failure: an HTTP status plus a
// message.  Handlers construct these at the point of detection and stop.
type APIError struct {
    Status  int
    Message string
}

func (e *APIError) Error() string { return e.Message }

func NewAPIError(status int, message string) *APIError {
    return &APIError{Status: status, Message: message}
}

// Common constructors matching the error taxonomy.
func ValidationError(msg string) *APIError { return NewAPIError(http.StatusBadRequest, msg) }
func Conflict(msg string) *APIError        { return NewAPIError(http.StatusConflict, msg) }
func NotFound(msg string) *APIError        { return NewAPIError(http.StatusNotFound, msg) }
func Unauthorized(msg string) *APIError    { return NewAPIError(http.StatusUnauthorized, msg) }
func InternalError(msg string) *APIError   { return NewAPIError(http.StatusInternalServerError, msg) }

// Respond writes a success envelope with the given status, payload and message.
func Respond(c echo.Context, status int, data any, message string) error {
    return c.JSON(status, successEnvelope{
        StatusCode: status,
        Data:       data,
        Message:    message,
        Success:    true,
    })
}

// RespondError writes an error envelope.  Unclassified errors are reported
// as 500 with a generic message so internals never leak to the client.
func RespondError(c echo.Context, err error) error {
    apiErr, ok := err.(*APIError)
    if !ok {
        apiErr = InternalError("internal server error")
    }
    return c.JSON(apiErr.Status, errorEnvelope{
        StatusCode: apiErr.Status,
        Message:    apiErr.Message,
        Success:    false,
        Errors:     []string{},
    })
}
