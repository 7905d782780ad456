package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/demtools/demflow/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp() *cli.App {
	a := newApp()
	a.ExitErrHandler = func(*cli.Context, error) {}
	return a
}

func writeDEM(t *testing.T) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "dem.txt")
	require.NoError(t, os.WriteFile(fp, []byte("3 2 1\n3 2 1\n3 2 1\n"), 0644))
	return fp
}

func TestRun_FlagValidation(t *testing.T) {
	dem := writeDEM(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"demflow", "-p", "d8"}},
		{"fa with slope", []string{"demflow", "-i", dem, "-p", "slope", "-fa"}},
		{"fa with aspect", []string{"demflow", "-i", dem, "-p", "aspect", "-fa"}},
		{"fa with watershed", []string{"demflow", "-i", dem, "-p", "d8", "-fa", "-w", "1", "-wdir", t.TempDir()}},
		{"fa without process", []string{"demflow", "-i", dem, "-fa"}},
		{"watershed without dir", []string{"demflow", "-i", dem, "-p", "d8", "-w", "1"}},
		{"watershed without process", []string{"demflow", "-i", dem, "-w", "1", "-wdir", t.TempDir()}},
		{"unknown process", []string{"demflow", "-i", dem, "-p", "bogus"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := testApp().Run(tc.args)
			require.Error(t, err)
			ec, ok := err.(cli.ExitCoder)
			require.True(t, ok)
			assert.Equal(t, 1, ec.ExitCode())
		})
	}
}

func TestRun_AccumulationPipeline(t *testing.T) {
	dem := writeDEM(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "fa.txt")
	bmp := filepath.Join(dir, "fa.bmp")

	err := testApp().Run([]string{"demflow", "-i", dem, "-p", "d8", "-fa", "-o", out, "-img", bmp})
	require.NoError(t, err)

	fa := grid.New[float64](0, 0)
	require.NoError(t, fa.LoadFrom(out, grid.FormatTXT))
	require.Equal(t, 3, fa.Width())
	require.Equal(t, 3, fa.Height())
	total := 0.0
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			v := fa.Value(x, y)
			assert.GreaterOrEqual(t, v, 1.0)
			total += v
		}
	}
	assert.Equal(t, 18.0, total, "every cell's unit forwards through the ramp")

	raw, err := os.ReadFile(bmp)
	require.NoError(t, err)
	assert.Equal(t, byte('B'), raw[0])
	assert.Equal(t, byte('M'), raw[1])
}

func TestRun_SlopeOutput(t *testing.T) {
	dem := writeDEM(t)
	out := filepath.Join(t.TempDir(), "slope.csv")
	require.NoError(t, testApp().Run([]string{"demflow", "-i", dem, "-p", "slope", "-o", out}))

	g := grid.New[float64](0, 0)
	require.NoError(t, g.LoadFrom(out, grid.FormatCSV))
	assert.Equal(t, 3, g.Width())
}

func TestRun_DirectionsImage(t *testing.T) {
	dem := writeDEM(t)
	bmp := filepath.Join(t.TempDir(), "dirs.bmp")
	require.NoError(t, testApp().Run([]string{"demflow", "-i", dem, "-p", "d8", "-img", bmp, "-c", "d8"}))
	_, err := os.Stat(bmp)
	assert.NoError(t, err)
}

func TestRun_Watersheds(t *testing.T) {
	dem := writeDEM(t)
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, testApp().Run([]string{"demflow", "-i", dem, "-p", "d8", "-w", "2", "-wdir", dir}))
	for i := 0; i < 2; i++ {
		_, err := os.Stat(filepath.Join(dir, "watershed_"+string(rune('0'+i))+".bmp"))
		assert.NoError(t, err, "watershed_%d.bmp", i)
	}
}

func TestShell_CommandLoop(t *testing.T) {
	e := &engine{logger: zap.NewNop().Sugar()}
	in := strings.NewReader("help\nbogus\ninfo\nquit\n")
	var out strings.Builder
	require.NoError(t, runShell(e, in, &out))
	assert.Contains(t, out.String(), "commands:")
	assert.Contains(t, out.String(), "unknown command")
	assert.Contains(t, out.String(), "no elevation grid loaded")
}

func TestShell_Pipeline(t *testing.T) {
	dem := writeDEM(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "fa.txt")
	e := &engine{logger: zap.NewNop().Sugar()}
	script := strings.Join([]string{
		"load " + dem,
		"fa d8",
		"scale log",
		"save " + out,
		"exit",
	}, "\n")
	var buf strings.Builder
	require.NoError(t, runShell(e, strings.NewReader(script), &buf))
	assert.NotContains(t, buf.String(), "error:")

	g := grid.New[float64](0, 0)
	require.NoError(t, g.LoadFrom(out, grid.FormatTXT))
	assert.Equal(t, 3, g.Width())
}

func TestShell_ErrorsKeepLoopAlive(t *testing.T) {
	e := &engine{logger: zap.NewNop().Sugar()}
	in := strings.NewReader("load /no/such/file.txt\nscale log\ninfo\nquit\n")
	var out strings.Builder
	require.NoError(t, runShell(e, in, &out))
	assert.Contains(t, out.String(), "error:")
	assert.Contains(t, out.String(), "no elevation grid loaded")
}
