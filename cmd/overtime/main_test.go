package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/render"
)

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "overtime.db")
}

var scenario = []string{
	"--set", "Regular Night=2",
	"--set", "Weekend Daytime=1",
	"--set", "Holiday=1",
}

func TestCalc_PrintsBreakdown(t *testing.T) {
	// GIVEN: The default ranked table and the Level 2 scenario
	args := append([]string{"--no-db", "calc", "--rank", "Level 2"}, scenario...)

	// WHEN: Calculating
	out, _, err := execute(t, args...)

	// THEN: The itemized breakdown and headline are printed
	require.NoError(t, err)
	assert.Contains(t, out, "1,135.25 GH₵")
	assert.Contains(t, out, "Gross Total:")
	assert.Contains(t, out, "1,195.00")
	assert.Contains(t, out, "Tax Deduction (5%):")
	assert.Contains(t, out, "-59.75")
	assert.Contains(t, out, "2 days × 160")
}

func TestCalc_JSON(t *testing.T) {
	args := append([]string{"--no-db", "calc", "--rank", "Level 2", "--json"}, scenario...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	var b render.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "1,195.00", b.Gross)
	assert.Equal(t, "1,135.25", b.Net)
	assert.Equal(t, "Level 2", b.Rank)
	assert.Equal(t, "ranked-v3", b.Table)
	assert.Len(t, b.Rows, 3)
}

func TestCalc_Errors(t *testing.T) {
	t.Run("no input", func(t *testing.T) {
		_, _, err := execute(t, "--no-db", "calc", "--rank", "Level 2")
		assert.ErrorIs(t, err, allowance.ErrNoInput)
	})

	t.Run("missing rank", func(t *testing.T) {
		_, _, err := execute(t, append([]string{"--no-db", "calc"}, scenario...)...)
		assert.ErrorIs(t, err, allowance.ErrMissingRank)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, _, err := execute(t, "--no-db", "--table", "nope", "calc", "--set", "Holiday=1")
		assert.True(t, allowance.IsNotFound(err))
	})

	t.Run("malformed set", func(t *testing.T) {
		_, _, err := execute(t, "--no-db", "calc", "--set", "Holiday")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected Category=value")
	})
}

func TestCalc_InvalidCountsWarn(t *testing.T) {
	// GIVEN: One valid and one invalid count on a fixed table
	out, stderr, err := execute(t, "--no-db", "--table", "fixed-v1", "calc",
		"--set", "Regular Night=1", "--set", "Holiday=abc", "--set", "Sunday=2")

	// THEN: The calculation proceeds with warnings for the rest
	require.NoError(t, err)
	assert.Contains(t, stderr, `warning: Holiday: "abc" is not a number, treated as 0`)
	assert.Contains(t, stderr, "Sunday")
	assert.Contains(t, out, "152.00")
}

func TestCalc_RemembersRank(t *testing.T) {
	db := tempDB(t)

	// GIVEN: A calculation with an explicit rank
	_, _, err := execute(t, append([]string{"--db", db, "calc", "--rank", "Supervisor"}, scenario...)...)
	require.NoError(t, err)

	// WHEN: Calculating again without one
	out, _, err := execute(t, append([]string{"--db", db, "calc", "--json"}, scenario...)...)
	require.NoError(t, err)

	// THEN: The saved rank is used
	var b render.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "Supervisor", b.Rank)

	out, _, err = execute(t, "--db", db, "prefs", "get", "rank")
	require.NoError(t, err)
	assert.Equal(t, "Supervisor\n", out)
}

func TestCalc_WritesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payslip.pdf")
	_, stderr, err := execute(t, append([]string{"--no-db", "calc", "--rank", "Trainee", "--pdf", path}, scenario...)...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestParseSets(t *testing.T) {
	raw, err := parseSets([]string{"Holiday=1", " Regular Night =2", "Holiday=3", "Civic Day="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Holiday": "3", "Regular Night": "2", "Civic Day": ""}, raw)

	_, err = parseSets([]string{"=4"})
	assert.Error(t, err)
}

func TestTables_ListShowImport(t *testing.T) {
	db := tempDB(t)

	// GIVEN: A fresh database
	out, _, err := execute(t, "--db", db, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "fixed-v1")
	assert.Contains(t, out, "fixed-v2")
	assert.Contains(t, out, "ranked-v3 *")

	// WHEN: Showing a preset
	out, _, err = execute(t, "--db", db, "tables", "fixed-v2")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "fixed-v2"`)
	assert.NotContains(t, out, "Civic Day")

	// WHEN: Importing a YAML table
	doc := `id: site-b
name: Site B
version: 4
tax_rate: 0.05
currency_symbol: GH₵
currency_code: GHS
categories:
  - name: Standby
    unit: day
    rate: 100
`
	file := filepath.Join(t.TempDir(), "site-b.yaml")
	require.NoError(t, os.WriteFile(file, []byte(doc), 0o644))

	out, _, err = execute(t, "--db", db, "tables", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "imported site-b (version 4, 1 categories)")

	// THEN: It is listed and usable
	out, _, err = execute(t, "--db", db, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "site-b")

	out, _, err = execute(t, "--db", db, "--table", "site-b", "calc", "--set", "Standby=3", "--json")
	require.NoError(t, err)
	var b render.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "285.00", b.Net)
}

func TestTables_ImportNeedsDatabase(t *testing.T) {
	_, _, err := execute(t, "--no-db", "tables", "import", "whatever.yaml")
	assert.Error(t, err)
}

func TestPrefs(t *testing.T) {
	db := tempDB(t)

	out, _, err := execute(t, "--db", db, "prefs", "list")
	require.NoError(t, err)
	assert.Equal(t, "rank=\ntheme=light\n", out)

	out, _, err = execute(t, "--db", db, "prefs", "set", "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "theme=dark\n", out)

	out, _, err = execute(t, "--db", db, "prefs", "set", "rank", "  Level 3 ")
	require.NoError(t, err)
	assert.Equal(t, "rank=Level 3\n", out)

	// A fixed table has no ranks, so the stored rank reads back empty
	out, _, err = execute(t, "--db", db, "--table", "fixed-v2", "prefs", "get", "rank")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)

	_, _, err = execute(t, "--db", db, "prefs", "set", "theme", "blue")
	assert.True(t, preference.IsClientError(err))

	_, _, err = execute(t, "--db", db, "prefs", "get", "font")
	assert.ErrorIs(t, err, preference.ErrUnknownPreference)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--no-db", "version")
	require.NoError(t, err)
	assert.Equal(t, "overtime dev\n", out)
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "--no-db", "--log-level", "loud", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestRateTableFile_ExplicitTableFlagWins(t *testing.T) {
	// GIVEN: A config pointing at a rate-table file
	dir := t.TempDir()
	tableFile := filepath.Join(dir, "site-c.json")
	require.NoError(t, os.WriteFile(tableFile, []byte(`{
  "id": "site-c",
  "name": "Site C",
  "tax_rate": 0.05,
  "categories": [{"name": "Regular Night", "unit": "day", "rate": 200}]
}`), 0o644))
	cfgFile := filepath.Join(dir, "overtime.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("engine:\n  rate_table_file: "+tableFile+"\n"), 0o644))

	calc := func(extra ...string) render.Breakdown {
		t.Helper()
		args := append([]string{"--no-db", "--config", cfgFile}, extra...)
		args = append(args, "calc", "--set", "Regular Night=1", "--json")
		out, _, err := execute(t, args...)
		require.NoError(t, err)
		var b render.Breakdown
		require.NoError(t, json.Unmarshal([]byte(out), &b))
		return b
	}

	// WHEN: No --table is given, THEN: the file is used
	b := calc()
	assert.Equal(t, "site-c", b.Table)
	assert.Equal(t, "190.00", b.Net)

	// WHEN: --table is given, THEN: it takes precedence over the file
	b = calc("--table", "fixed-v1")
	assert.Equal(t, "fixed-v1", b.Table)
	assert.Equal(t, "152.00", b.Net)
}
