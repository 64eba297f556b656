package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerrate/celerrate/pkg/phpast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/dialect"
)

func writeTempPHP(t *testing.T, source string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.php")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o600))

	return path
}

func TestParseFileJSONOutput(t *testing.T) {
	t.Parallel()

	file := writeTempPHP(t, `<?php
class Invoice
{
    public function total(): int
    {
        return 42;
    }
}
`)

	var buf bytes.Buffer

	err := runParse([]string{file}, "8.1", "", "json", 0, true, &buf)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.NewDecoder(&buf).Decode(&out))

	assert.Equal(t, file, out["file"])
	assert.Equal(t, "8.1", out["dialect"])

	astMap, ok := out["ast"].(map[string]any)
	require.True(t, ok, "ast missing from output")
	assert.Equal(t, "File", astMap["kind"])
	assert.NotEmpty(t, astMap["children"])
}

func TestParseFormatNoneProducesNoOutput(t *testing.T) {
	t.Parallel()

	file := writeTempPHP(t, `<?php $a = 1;`)

	var buf bytes.Buffer

	err := runParse([]string{file}, "", "", "none", 0, true, &buf)
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
}

func TestParseParallelManyFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var files []string

	for _, name := range []string{"a.php", "b.php", "c.php", "d.php"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(`<?php function f() { return 1; }`), 0o600))
		files = append(files, path)
	}

	var buf bytes.Buffer

	err := runParse(files, "8.2", "", "none", 2, true, &buf)
	require.NoError(t, err)
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := runParse([]string{filepath.Join(t.TempDir(), "absent.php")}, "", "", "json", 0, true, &buf)
	require.Error(t, err)
}

func TestOutputResultUnsupportedFormat(t *testing.T) {
	t.Parallel()

	res := &phpast.Result{Dialect: dialect.Latest}

	var buf bytes.Buffer

	err := outputResult(res, "x.php", "", "yaml", &buf)
	require.ErrorIs(t, err, ErrUnsupportedParseFmt)
}

func TestRenderDiagnosticsTable(t *testing.T) {
	t.Parallel()

	parser := phpast.NewParser()

	res, err := parser.MapVersion(t.Context(), []byte(`<?php $a = ;`), "8.3")
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)

	var buf bytes.Buffer

	renderDiagnosticsTable(res, "broken.php", &buf)

	out := buf.String()
	assert.Contains(t, out, "broken.php")
	assert.Contains(t, out, string(diag.CodeSyntaxError))
}

func TestParserForVerbose(t *testing.T) {
	t.Parallel()

	parser := parserFor(true)
	require.NotNil(t, parser)

	res, err := parser.MapVersion(t.Context(), []byte(`<?php $x = ;`), "8.4")
	require.NoError(t, err)
	assert.True(t, res.HasErrors())
}

func TestParseWritesOutputFile(t *testing.T) {
	t.Parallel()

	file := writeTempPHP(t, `<?php echo "hi";`)
	outPath := filepath.Join(t.TempDir(), "ast.json")

	var buf bytes.Buffer

	err := runParse([]string{file}, "8.4", outPath, "compact", 0, true, &buf)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "8.4", out["dialect"])
}
