package internal

import (
	"log"
	"os"
)

func NewLogger(component string) *log.Logger {
	prefix := "chathooks"
	if component != "" {
		prefix = prefix + "/" + component
	}
	return log.New(os.Stdout, prefix+" ", log.LstdFlags|log.Lmicroseconds)
}

// WithRequestID returns a logger whose lines carry the request id, keeping
// the parent's writer and flags.
func WithRequestID(parent *log.Logger, requestID string) *log.Logger {
	if parent == nil {
		parent = log.Default()
	}
	if requestID == "" {
		return parent
	}
	return log.New(parent.Writer(), parent.Prefix()+"rid="+requestID+" ", parent.Flags())
}
