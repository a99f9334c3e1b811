package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	_, err := GetSimpleText(in, "Name?", &out)
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	pw, err := GetPassword("Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Password", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	wipe(b)
	assert.Equal(t, make([]byte, 6), b)
}

func TestSplitAssignmentsAndFlags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		wantPositional []string
		wantFlags      models.Flags
	}{
		{
			name:           "positional only",
			args:           []string{"123", "alice"},
			wantPositional: []string{"123", "alice"},
		},
		{
			name:           "typed flag values",
			args:           []string{"123", "byond=true", "age=30", "note=vip"},
			wantPositional: []string{"123"},
			wantFlags:      models.Flags{"byond": true, "age": float64(30), "note": "vip"},
		},
		{
			name:      "last value wins",
			args:      []string{"a=1", "a=false"},
			wantFlags: models.Flags{"a": false},
		},
		{
			name:           "leading equals is positional",
			args:           []string{"=x"},
			wantPositional: []string{"=x"},
		},
		{
			name:      "empty value stays a string",
			args:      []string{"tag="},
			wantFlags: models.Flags{"tag": ""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, names, values := splitAssignments(tc.args)
			require.Equal(t, tc.wantPositional, pos)
			require.Equal(t, tc.wantFlags, parseFlags(names, values))
		})
	}
}
