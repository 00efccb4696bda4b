package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosterFixture = `{"data":[
	{"id":1,"student_details":{"program_code":"BSCS","semester_code":"S1","students":{"name":"Ada","student_id":1,"username":"ada"}}},
	{"id":2,"student_details":{"program_code":"BSCS","semester_code":"S1","students":{"name":"Bo","student_id":2,"username":"bo"}}},
	{"id":3,"student_details":{"program_code":"BBA","semester_code":"S1","students":{"name":"Cy","student_id":3,"username":"cy"}}}
]}`

const analyticsFixture = `[
	{"student_id":1,"total_marks":95,"max_total":100,"assignments":[{"assignment_name":"A1","marks":95,"status":"reviewed"}]},
	{"student_id":"2","total_marks":"72","max_total":100,"assignments":[{"assignment_name":"A1","marks":null,"status":"not submitted"}]}
]`

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	roster := filepath.Join(dir, "roster.json")
	analytics := filepath.Join(dir, "analytics.json")
	require.NoError(t, os.WriteFile(roster, []byte(rosterFixture), 0o600))
	require.NoError(t, os.WriteFile(analytics, []byte(analyticsFixture), 0o600))
	return roster, analytics
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	roster, analytics := writeFixtures(t)

	out, err := run(t, "summary", "--roster", roster, "--analytics", analytics, "--category", "excellent")
	require.NoError(t, err)
	assert.Contains(t, out, "Students: 3")
	assert.Contains(t, out, "Filter: Category: Excellent (1 of 3)")
	assert.Contains(t, out, "Ada")
	assert.NotContains(t, out, "Bo ")
}

func TestSummaryCommandScopesProgram(t *testing.T) {
	roster, analytics := writeFixtures(t)

	out, err := run(t, "summary", "--roster", roster, "--analytics", analytics, "--program", "bba")
	require.NoError(t, err)
	assert.Contains(t, out, "Students: 1")
	assert.Contains(t, out, "Cy")
}

func TestExportCommandWritesFile(t *testing.T) {
	roster, analytics := writeFixtures(t)
	outDir := t.TempDir()

	out, err := run(t, "export", "--roster", roster, "--analytics", analytics,
		"--format", "csv", "--group-name", "Group A", "--details", "--out", outDir)
	require.NoError(t, err)

	target := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(filepath.Base(target), "performance_report_Group_A_"))
	assert.Equal(t, ".csv", filepath.Ext(target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "1,1,Ada,ada,BSCS,S1,95,100,95.0"))
}

func TestExportCommandErrors(t *testing.T) {
	roster, analytics := writeFixtures(t)

	_, err := run(t, "export", "--roster", roster, "--analytics", analytics, "--format", "docx")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = run(t, "export", "--roster", roster, "--analytics", analytics, "--type", "student_report", "--student", "99", "--out", t.TempDir())
	assert.ErrorContains(t, err, "student 99 not found")

	_, err = run(t, "summary", "--roster", filepath.Join(t.TempDir(), "missing.json"), "--analytics", analytics)
	assert.ErrorContains(t, err, "read roster")
}
