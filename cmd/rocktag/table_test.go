package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTable_NonTerminalWritesTSV(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"alias", "artist"}, [][]string{
		{"beatles", "The Beatles"},
		{"rolling stones", "The Rolling Stones"},
	}, nil)

	assert.Equal(t, "alias\tartist\nbeatles\tThe Beatles\nrolling stones\tThe Rolling Stones\n", buf.String())
}

func TestRenderTable_ContainsCells(t *testing.T) {
	out := renderTable([]string{"metric", "value"}, [][]string{{"artists", "42"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "artists")
	assert.Contains(t, out, "42")
	assert.Contains(t, strings.ToLower(out), "metric")
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "-", joinTags(nil))
	assert.Equal(t, "Metallica, The Who", joinTags([]string{"Metallica", "The Who"}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Motör...", truncate("Motörhead live", 5))
	assert.Equal(t, "a b", truncate("a\nb", 10))
}

func TestReadLines_SkipsBlank(t *testing.T) {
	lines, err := readLines(strings.NewReader("Metallica tour\n\n  Yes reunion  \n"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Metallica tour", "Yes reunion"}, lines)
}
