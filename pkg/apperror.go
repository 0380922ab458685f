package pkg

// AppError is the error envelope handlers return to clients: a stable
// machine-readable code, a user-safe message, and the HTTP status to use.
// Internal detail stays in Err for logging and never reaches the response.
type AppError struct {
	Code       string
	Message    string
	Err        error
	HTTPStatus int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPError is the JSON body sent to the client.
type HTTPError struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func (e *AppError) ToHTTPError() HTTPError {
	return HTTPError{Success: false, Code: e.Code, Error: e.Message}
}

func NewDomainError(code, message string, err error, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, HTTPStatus: httpStatus}
}

func NewDomainErrorSimple(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}
