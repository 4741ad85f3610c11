package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    outputFormat
		wantErr bool
	}{
		{"empty defaults to text", "", formatText, false},
		{"explicit text", "text", formatText, false},
		{"explicit json", "json", formatJSON, false},
		{"unknown format rejected", "xml", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseOutputFormat(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmit_TextWritesCallerText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, emit(&buf, formatText, "packet p1 claimed", map[string]string{"id": "p1"}))
	assert.Equal(t, "packet p1 claimed\n", buf.String())
}

func TestEmit_JSONMarshalsValue(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, emit(&buf, formatJSON, "ignored in json mode", map[string]string{"id": "p1"}))
	assert.JSONEq(t, `{"id":"p1"}`, buf.String())
}
