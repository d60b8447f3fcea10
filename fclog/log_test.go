package fclog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdGatesInfoByVerbosity(t *testing.T) {
	var buf bytes.Buffer
	l := NewStd(&buf, 1)

	l.V(2).Info("too verbose")
	require.Empty(t, buf.String())

	l.V(1).Info("just right")
	require.Contains(t, buf.String(), "just right")
}

func TestStdWarnAndError(t *testing.T) {
	var buf bytes.Buffer
	l := NewStd(&buf, 0)

	l.Warnf("disk %s low", "C")
	l.Errorf("cannot read %s", "file.txt")

	require.Contains(t, buf.String(), "WARN: disk C low")
	require.Contains(t, buf.String(), "ERROR: cannot read file.txt")
}

func TestNoopDiscardsEverything(t *testing.T) {
	var n Noop
	n.Warn("x")
	n.Errorf("y %d", 1)
	require.False(t, n.V(0).Enabled())
}
