package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_RunFinishedAlwaysCarriesExitCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeNDJSON(&buf, Event{Type: EventRunFinished, Status: "PASSED"}))

	assert.JSONEq(t, `{"type":"run.finished","status":"PASSED","warnings":0,"errors":0,"exit_code":0}`, buf.String())
}

func TestEvent_OtherEventsOmitZeroFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeNDJSON(&buf, Event{Type: EventRunStarted, Measures: 3}))
	require.NoError(t, writeNDJSON(&buf, warnAlert))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"run.started","measures":3}`, string(lines[0]))
	assert.JSONEq(t, `{"type":"alert","metric":"coverage","level":"WARN","message":"Coverage<80"}`, string(lines[1]))
}
