package logutil_test

import (
	"bytes"
	"flag"
	"testing"

	"github.com/lthibault/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
	"github.com/urfave/cli/v2"

	"terminus-realm/worldgen/logutil"
)

func newContext(t *testing.T, out *bytes.Buffer, args ...string) *cli.Context {
	t.Helper()

	app := &cli.App{ErrWriter: out, Flags: logutil.Flags}
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range logutil.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestNew(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := newContext(t, &out, "--loglvl", "warn", "--logfmt", "json")

	logger := logutil.New(c)
	assert.NotNil(t, c.App.Metadata, "logger is cached on the app")

	logger.Info("hidden")
	logger.WithField("chunk", "0,0,0").Warn("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"chunk":"0,0,0"`)
}

func TestLogfmtNone(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logutil.New(newContext(t, &out, "--logfmt", "none")).Error("quiet")
	assert.Empty(t, out.String())
}

func TestEventHook(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	hook := logutil.NewEventHook(log.New(log.WithWriter(&out), log.WithFormatter(new(logrus.JSONFormatter))))

	hook(suture.EventServiceTerminate{
		SupervisorName: "worldgen",
		ServiceName:    "autosave",
	})
	assert.Contains(t, out.String(), "service terminated")
	assert.Contains(t, out.String(), "autosave")
}
