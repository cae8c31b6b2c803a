package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  KIT-0042 \n"), "Sample ID", &out)
	require.NoError(t, err)
	assert.Equal(t, "KIT-0042", got)
	assert.Equal(t, "Sample ID\n> ", out.String())
}

func TestGetSimpleText_EOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Site", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Site", &out)
	require.Error(t, err)
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "double enter", input: "a\nb\n\n\n", want: "a\nb"},
		{name: "crlf", input: "a\r\nb\r\n\r\n", want: "a\nb"},
		{name: "immediate blank", input: "\n", want: ""},
		{name: "eof", input: "a\nb", want: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tt.input), "Remarks", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFloat(t *testing.T) {
	var out bytes.Buffer

	v, err := GetFloat(rdr("12.5\n"), "Volume", &out)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 12.5, *v)

	v, err = GetFloat(rdr("\n"), "Volume", &out)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = GetFloat(rdr("lots\n"), "Volume", &out)
	require.ErrorContains(t, err, "not a number")
}

func TestGetInt(t *testing.T) {
	var out bytes.Buffer

	v, err := GetInt(rdr("3\n"), "Replicate", &out)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 3, *v)

	_, err = GetInt(rdr("3.5\n"), "Replicate", &out)
	require.Error(t, err)
}

func TestGetDateTime(t *testing.T) {
	var out bytes.Buffer
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	got, err := GetDateTime(rdr("\n"), "When", &out, now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = GetDateTime(rdr("2024-06-30T10:15:00Z\n"), "When", &out, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 10, 15, 0, 0, time.UTC), got)

	got, err = GetDateTime(rdr("2024-06-30 10:15\n"), "When", &out, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 10, 15, 0, 0, time.Local), got)

	_, err = GetDateTime(rdr("tomorrow\n"), "When", &out, now)
	require.Error(t, err)
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		var out bytes.Buffer
		got, err := Confirm(rdr(input), "Delete everything?", &out)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}
