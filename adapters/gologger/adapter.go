package gologger

import (
	glog "github.com/goliatone/go-logger/glog"
)

// Resolve names a logger for one of the webhook runtimes, using
// deterministic precedence provider > logger > nop. Callers always get
// a usable logger back, even when handed nil.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}
