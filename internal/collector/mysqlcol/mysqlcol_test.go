package mysqlcol

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateInnodbStatusIdentityUnderLimit(t *testing.T) {
	lines := make([]string, 150)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(i)
	}
	status := strings.Join(lines, "\n")
	assert.Equal(t, status, truncateInnodbStatus(status))
}

func TestTruncateInnodbStatusKeepsFirst50Last100(t *testing.T) {
	lines := make([]string, 400)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(i)
	}
	status := strings.Join(lines, "\n")

	got := truncateInnodbStatus(status)
	gotLines := strings.Split(got, "\n")

	assert.Len(t, gotLines, 151)
	assert.Equal(t, lines[:50], gotLines[:50])
	assert.Equal(t, "...ignore 250 lines here...", gotLines[50])
	assert.Equal(t, lines[300:], gotLines[51:])
}

func TestParseMajorMinor(t *testing.T) {
	assert.Equal(t, 8.0, parseMajorMinor("8.0.33"))
	assert.Equal(t, 5.7, parseMajorMinor("5.7.38"))
}
