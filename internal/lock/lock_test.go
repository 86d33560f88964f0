package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWritesPid(t *testing.T) {
	root := t.TempDir()

	l, err := Acquire(root)
	require.NoError(t, err)
	defer l.Release()

	data, err := os.ReadFile(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
	assert.Equal(t, filepath.Join(root, FileName), l.Path())
}

func TestSecondAcquireFails(t *testing.T) {
	root := t.TempDir()

	l, err := Acquire(root)
	require.NoError(t, err)
	defer l.Release()

	// flock conflicts across file descriptors, so a second holder is
	// rejected even within one process.
	_, err = Acquire(root)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAcquireAfterReleaseSucceeds(t *testing.T) {
	root := t.TempDir()

	l, err := Acquire(root)
	require.NoError(t, err)
	l.Release()

	l2, err := Acquire(root)
	require.NoError(t, err)
	l2.Release()
}

func TestReleaseNilSafe(t *testing.T) {
	var l *Lock
	l.Release()

	l2 := &Lock{}
	l2.Release()
	l2.Release()
}
