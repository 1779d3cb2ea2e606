package measures

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "", want: LevelNone},
		{in: "none", want: LevelNone},
		{in: "OK", want: LevelOK},
		{in: "ok", want: LevelOK},
		{in: "WARN", want: LevelWarn},
		{in: " warning ", want: LevelWarn},
		{in: "Error", want: LevelError},
		{in: "critical", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "", LevelNone.String())
	assert.Equal(t, "OK", LevelOK.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestMeasure_JSONOmitsEmptyAlert(t *testing.T) {
	b, err := json.Marshal(New(MetricLines, LevelNone, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"metric":"lines"}`, string(b))

	b, err = json.Marshal(New(MetricCoverage, LevelWarn, "Coverage<80"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"metric":"coverage","alert":"WARN","text":"Coverage<80"}`, string(b))
}

func TestMeasure_IsAggregate(t *testing.T) {
	assert.True(t, New(MetricAlertStatus, LevelError, "x").IsAggregate())
	assert.False(t, New(MetricCoverage, LevelError, "x").IsAggregate())
}
