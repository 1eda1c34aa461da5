package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/chgslice/io"
)

func TestCloseFiles(t *testing.T) {
	dir := t.TempDir()
	con := &io.SliceConfig{}
	con.LogFile = filepath.Join(dir, "log.out")
	con.ProfileFile = filepath.Join(dir, "prof.out")

	setupFiles(con, false)
	require.NotNil(t, files)
	fg := files
	logger.Info("Logged to file.", "n", 1)

	closeFiles()
	assert.Nil(t, files)
	assert.Nil(t, fg.log)
	assert.Nil(t, fg.prof)
	assert.NoError(t, fg.Close())

	// The log is flushed and the profile is stopped and written.
	text, err := os.ReadFile(con.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Logged to file.")
	info, err := os.Stat(con.ProfileFile)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)

	// Closing again does nothing.
	closeFiles()
	assert.Nil(t, files)
}

func TestGetModeName(t *testing.T) {
	a, b, empty := "a", "b", ""

	table := []struct {
		vars map[string]*string
		mode string
		ok   bool
	}{
		{map[string]*string{"Slice": &a, "Info": &empty}, "Slice", true},
		{map[string]*string{"Slice": &empty, "Info": &b}, "Info", true},
		{map[string]*string{"Slice": &empty, "Info": &empty}, "", false},
		{map[string]*string{"Slice": &a, "Info": &b}, "", false},
	}

	for i, test := range table {
		mode, err := getModeName(test.vars)
		if test.ok && (err != nil || mode != test.mode) {
			t.Errorf("%d) Expected mode %s, got '%s' (%v)", i+1, test.mode, mode, err)
		} else if !test.ok && err == nil {
			t.Errorf("%d) Expected an error, got mode %s", i+1, mode)
		}
	}
}
