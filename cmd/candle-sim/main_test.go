package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/candle/internal/simulate"
	. "github.com/smartystreets/goconvey/convey"
)

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	Convey("print-tokens emits the server's static_tokens value", t, func() {
		out, err := run("--print-tokens", "--users", "2")
		So(err, ShouldBeNil)
		So(strings.TrimSpace(out), ShouldEqual, "sim-token-0:sim-user-0,sim-token-1:sim-user-1")
	})

	Convey("an invalid rate fails before any request", t, func() {
		_, err := run("--url", "http://127.0.0.1:1", "--dup-rate", "2")
		So(errors.Is(err, simulate.ErrInvalidConfig), ShouldBeTrue)
	})
}
