package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagesArePlainWithoutTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut)

	u.Confirm("%s %s built to %s.", "test", "0.0.1", "pkg/test-0.0.1.gem")
	u.Info("Skipping push.")
	u.Warn("careful")
	u.Error("There are files that need to be committed first.")

	assert.Equal(t, "test 0.0.1 built to pkg/test-0.0.1.gem.\nSkipping push.\n", out.String())
	assert.Equal(t, "careful\nThere are files that need to be committed first.\n", errOut.String())
}

func TestMultiLineMessagesKeepLayout(t *testing.T) {
	var out bytes.Buffer
	u := New(&out, nil)

	u.Error("ERROR:  While executing gem ... (Gem::InvalidSpecificationException)\n    missing value for attribute summary\n")

	assert.Equal(t, "ERROR:  While executing gem ... (Gem::InvalidSpecificationException)\n    missing value for attribute summary\n", out.String())
}

func TestTranscriptCollectsLines(t *testing.T) {
	var tr Transcript
	u := New(&tr, &tr)

	u.Confirm("Tagged v1.0.0.")
	u.Confirm("Pushed git commits and release tag.")
	_, _ = tr.Write([]byte("partial"))

	assert.Equal(t, []string{"Tagged v1.0.0.", "Pushed git commits and release tag.", "partial"}, tr.Lines())
	assert.Equal(t, []string{"Pushed git commits and release tag.", "partial"}, tr.Tail(2))
}
