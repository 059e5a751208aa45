package client

// RequestLogger receives the HTTP session's own warnings and errors. It is
// satisfied by [logging.Context]; supply another implementation via
// [WithRequestLogger]. Implementations must redact credentials before
// persisting anything.
type RequestLogger interface {
	Errorf(format string, v ...any)
	Warnf(format string, v ...any)
	Debugf(format string, v ...any)
}
