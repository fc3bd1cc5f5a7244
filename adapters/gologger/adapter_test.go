package gologger

import (
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestResolveNilInputsYieldUsableLogger(t *testing.T) {
	provider, logger := Resolve("webhooks.worker", nil, nil)
	if provider == nil {
		t.Fatal("expected a provider even with nil inputs")
	}
	if logger == nil {
		t.Fatal("expected a logger even with nil inputs")
	}
}

func TestResolveKeepsExplicitLogger(t *testing.T) {
	explicit := glog.Nop()
	_, logger := Resolve("webhooks.worker", nil, explicit)
	if logger == nil {
		t.Fatal("expected explicit logger preserved")
	}
}
