package browser

import "fmt"

// SessionError reports a fatal browser-infrastructure failure: the engine
// could not start, the browser process is gone, or a context could not be
// created. Session errors always propagate to the caller and are never
// retried automatically.
type SessionError struct {
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("session error: %s", e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func sessionErrorf(err error, format string, v ...interface{}) *SessionError {
	return &SessionError{Message: fmt.Sprintf(format, v...), Err: err}
}

// FileError reports an invalid attachment path or a failed file upload. It
// aborts only the affected upload step.
type FileError struct {
	Path    string
	Message string
	Err     error
}

func (e *FileError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Message, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("file error: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("file error: %s", msg)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
