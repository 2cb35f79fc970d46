package cache

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSourceTree(t *testing.T) string {
	t.Helper()

	baseDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "dist", "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "dist", "app.js"), []byte("console.log('hi')"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "dist", "assets", "logo.svg"), []byte("<svg/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "build.log"), []byte("done"), 0600))
	require.NoError(t, os.Symlink("app.js", filepath.Join(baseDir, "dist", "app.link.js")))

	return baseDir
}

func assertTreeRestored(t *testing.T, destDir string) {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(destDir, "dist", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, []byte("console.log('hi')"), data)

	data, err = os.ReadFile(filepath.Join(destDir, "dist", "assets", "logo.svg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg/>"), data)

	data, err = os.ReadFile(filepath.Join(destDir, "build.log"))
	require.NoError(t, err)
	assert.Equal(t, []byte("done"), data)

	linkTarget, err := os.Readlink(filepath.Join(destDir, "dist", "app.link.js"))
	require.NoError(t, err)
	assert.Equal(t, "app.js", linkTarget)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, method := range []string{ArchiveMethodTarGz, ArchiveMethodTarZstd} {
		t.Run(method, func(t *testing.T) {
			archiver, err := NewArchiver(method)
			require.NoError(t, err)

			baseDir := makeSourceTree(t)
			archiveDir := t.TempDir()

			archivePath, err := archiver.Pack(archiveDir, baseDir, []string{
				filepath.Join(baseDir, "dist"),
				filepath.Join(baseDir, "build.log"),
			})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(archiveDir, archiver.ArchiveFileName()), archivePath)

			destDir := t.TempDir()
			require.NoError(t, archiver.Unpack(archivePath, destDir))

			assertTreeRestored(t, destDir)
		})
	}
}

func TestList(t *testing.T) {
	archiver, err := NewArchiver(ArchiveMethodTarGz)
	require.NoError(t, err)

	baseDir := makeSourceTree(t)
	archiveDir := t.TempDir()

	archivePath, err := archiver.Pack(archiveDir, baseDir, []string{filepath.Join(baseDir, "dist")})
	require.NoError(t, err)

	manifest, err := archiver.List(archivePath)
	require.NoError(t, err)
	assert.Contains(t, manifest, "dist/app.js")
	assert.Contains(t, manifest, "dist/assets/logo.svg")
	assert.NotContains(t, manifest, "build.log")
}

func TestPackRejectsEscapingPaths(t *testing.T) {
	archiver, err := NewArchiver(ArchiveMethodTarGz)
	require.NoError(t, err)

	baseDir := t.TempDir()
	archiveDir := t.TempDir()

	_, err = archiver.Pack(archiveDir, baseDir, []string{"../outside"})
	assert.Error(t, err)
}

func TestUnpackRejectsEscapingEntries(t *testing.T) {
	archiveDir := t.TempDir()
	archivePath := filepath.Join(archiveDir, "cache.tar.gz")

	// build an archive whose entry tries to climb out of the dest dir
	archiveFile, err := os.Create(archivePath)
	require.NoError(t, err)

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	body := []byte("escaped")
	require.NoError(t, tarWriter.WriteHeader(&tar.Header{
		Name: "../../escape.txt",
		Mode: 0644,
		Size: int64(len(body)),
	}))
	_, err = tarWriter.Write(body)
	require.NoError(t, err)

	require.NoError(t, tarWriter.Close())
	require.NoError(t, gzipWriter.Close())
	require.NoError(t, archiveFile.Close())

	archiver, err := NewArchiver(ArchiveMethodTarGz)
	require.NoError(t, err)

	destDir := t.TempDir()
	require.NoError(t, archiver.Unpack(archivePath, destDir))

	// the entry lands inside the dest dir no matter its name
	_, err = os.Stat(filepath.Join(destDir, "escape.txt"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(filepath.Dir(filepath.Dir(destDir)), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewArchiverUnknownMethod(t *testing.T) {
	_, err := NewArchiver("tar7z")
	assert.Error(t, err)
}
