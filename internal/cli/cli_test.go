package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())
	return execute(stdin, args...)
}

func execute(stdin []byte, args ...string) (string, error) {
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 64, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestBayerCommand(t *testing.T) {
	out, err := run(t, nil, "bayer", "1")
	require.NoError(t, err)
	assert.Equal(t, "0 2\n3 1\n", out)

	out, err = run(t, nil, "bayer", "2")
	require.NoError(t, err)
	assert.Equal(t, " 0  8  2 10\n12  4 14  6\n 3 11  1  9\n15  7 13  5\n", out)

	out, err = run(t, nil, "bayer", "1", "--normalized")
	require.NoError(t, err)
	assert.Equal(t, "0 0.5\n0.75 0.25\n", out)

	_, err = run(t, nil, "bayer", "1.5")
	assert.Error(t, err)
	_, err = run(t, nil, "bayer", "9")
	assert.Error(t, err)
	_, err = run(t, nil, "bayer", "-1")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	in := writeTestPNG(t, 12, 6)
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.png")
	dithered := filepath.Join(dir, "dithered.png")
	reference := filepath.Join(dir, "reference.png")

	out, err := run(t, nil, "render", in,
		"--palette", "eink7", "--depth", "2",
		"--plain", plain, "--dithered", dithered, "--reference", reference)
	require.NoError(t, err)
	assert.Contains(t, out, "12x6 palette=eink7 colors=7 depth=2 divisor=7")

	for _, path := range []string{plain, dithered, reference} {
		f, err := os.Open(path)
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err, path)
		assert.Equal(t, image.Rect(0, 0, 12, 6), img.Bounds())
	}
}

func TestRenderCommandFromStdinWithPaletteFile(t *testing.T) {
	src, err := os.ReadFile(writeTestPNG(t, 4, 4))
	require.NoError(t, err)

	paletteFile := filepath.Join(t.TempDir(), "duo.yaml")
	require.NoError(t, os.WriteFile(paletteFile, []byte("name: duo\ncolors:\n  - \"#000000\"\n  - \"#ffffff\"\n"), 0644))

	dithered := filepath.Join(t.TempDir(), "out.png")
	out, err := run(t, src, "render", "-", "--palette-file", paletteFile, "--dithered", dithered)
	require.NoError(t, err)
	assert.Contains(t, out, "palette=duo colors=2")
}

func TestRenderCommandRejectsOversizedPaletteFile(t *testing.T) {
	var yaml strings.Builder
	yaml.WriteString("name: huge\ncolors:\n")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&yaml, "  - \"#%06x\"\n", i)
	}
	paletteFile := filepath.Join(t.TempDir(), "huge.yaml")
	require.NoError(t, os.WriteFile(paletteFile, []byte(yaml.String()), 0644))

	_, err := run(t, nil, "render", writeTestPNG(t, 4, 4), "--palette-file", paletteFile,
		"--dithered", filepath.Join(t.TempDir(), "out.png"))
	assert.ErrorContains(t, err, "300 colours")
}

func TestRenderCommandErrors(t *testing.T) {
	in := writeTestPNG(t, 4, 4)
	out := filepath.Join(t.TempDir(), "x.png")

	_, err := run(t, nil, "render", in)
	assert.Error(t, err, "no outputs")

	_, err = run(t, nil, "render", in, "--dithered", out, "--depth", "two")
	assert.Error(t, err, "non-integer depth")

	_, err = run(t, nil, "render", in, "--dithered", out, "--divisor", "-2")
	assert.Error(t, err)

	_, err = run(t, nil, "render", in, "--dithered", out, "--palette", "bw", "--colors", "#000,#fff")
	assert.Error(t, err, "palette sources are exclusive")

	_, err = run(t, nil, "render", filepath.Join(t.TempDir(), "missing.png"), "--dithered", out)
	assert.Error(t, err)
}

func TestPaletteCommands(t *testing.T) {
	in := writeTestPNG(t, 16, 16)

	out, err := run(t, nil, "palette", in, "--colors", "3")
	require.NoError(t, err)
	colors := strings.Split(strings.TrimSpace(out), ",")
	assert.LessOrEqual(t, len(colors), 3)
	for _, c := range colors {
		assert.Regexp(t, `^#[0-9a-f]{6}$`, c)
	}

	out, err = run(t, nil, "palette", in, "--colors", "2", "--yaml", "--name", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "name: mine")

	out, err = run(t, nil, "palettes")
	require.NoError(t, err)
	assert.Contains(t, out, "bw")
	assert.Contains(t, out, "#000000,#ffffff")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bayerlab v"))
}

func TestInvalidSettingsFailBeforeRunning(t *testing.T) {
	t.Setenv("DITHER_DEPTH", "12")
	_, err := run(t, nil, "bayer", "1")
	assert.Error(t, err)
}

func TestBackupExportImport(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	archive := filepath.Join(t.TempDir(), "backup.tar.gz")

	out, err := execute(nil, "backup", "export", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "exported palettes=0 renders=0 images=0")

	// Fresh data directory
	t.Setenv("DATA_DIR", t.TempDir())
	out, err = execute(nil, "backup", "import", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "imported palettes=0 renders=0 images=0")

	_, err = execute(nil, "backup", "import", filepath.Join(t.TempDir(), "missing.tar.gz"))
	assert.Error(t, err)
}
