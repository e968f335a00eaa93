package tuya

import "fmt"

// AuthError reports a failed token issuance. Token failure is fatal for the
// current poll cycle: no reading may be recorded without authentication.
// Code and Msg hold the vendor's error fields when the response carried them;
// Body is the raw payload.
type AuthError struct {
	Code int
	Msg  string
	Body string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token request failed: %v", e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("token request failed: %s (code %d)", e.Msg, e.Code)
	}
	return fmt.Sprintf("token request failed: %s", e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError reports a status or command call that failed after successful
// authentication. Code and Msg hold the vendor's error fields when the
// response carried them; Body is the raw payload.
type APIError struct {
	Op   string
	Code int
	Msg  string
	Body string
	Err  error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s call failed: %v", e.Op, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s call failed: %s (code %d)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("%s call failed: %s", e.Op, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }
