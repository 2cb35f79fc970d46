package cache

import (
	"archive/tar"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/xerrors"
)

const (
	tarzstArchiveFileName string = "cache.tar.zst"
)

// TarZstdArchiver implements Archiver using tar with zstandard compression
type TarZstdArchiver struct {
}

// Pack packages the given paths into a tar.zst archive inside archiveDir
func (archiver *TarZstdArchiver) Pack(archiveDir string, baseDir string, paths []string) (string, error) {
	archivePath := filepath.Join(archiveDir, archiver.ArchiveFileName())

	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return "", xerrors.Errorf("failed to create archive file %q: %w", archivePath, err)
	}

	zstdWriter, err := zstd.NewWriter(archiveFile)
	if err != nil {
		archiveFile.Close()
		os.Remove(archivePath)
		return "", xerrors.Errorf("failed to create zstd writer for %q: %w", archivePath, err)
	}

	tarWriter := tar.NewWriter(zstdWriter)

	err = packTar(tarWriter, baseDir, paths)
	if err != nil {
		tarWriter.Close()
		zstdWriter.Close()
		archiveFile.Close()
		os.Remove(archivePath)
		return "", err
	}

	err = tarWriter.Close()
	if err == nil {
		err = zstdWriter.Close()
	}
	if err == nil {
		err = archiveFile.Close()
	}

	if err != nil {
		archiveFile.Close()
		os.Remove(archivePath)
		return "", xerrors.Errorf("failed to finalize archive %q: %w", archivePath, err)
	}

	return archivePath, nil
}

// Unpack extracts the tar.zst archive into baseDir
func (archiver *TarZstdArchiver) Unpack(archivePath string, baseDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return xerrors.Errorf("failed to open archive %q: %w", archivePath, err)
	}
	defer archiveFile.Close()

	zstdReader, err := zstd.NewReader(archiveFile)
	if err != nil {
		return xerrors.Errorf("failed to read zstd stream of %q: %w", archivePath, err)
	}
	defer zstdReader.Close()

	return unpackTar(zstdReader, baseDir)
}

// List returns the entry names the tar.zst archive holds
func (archiver *TarZstdArchiver) List(archivePath string) ([]string, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, xerrors.Errorf("failed to open archive %q: %w", archivePath, err)
	}
	defer archiveFile.Close()

	zstdReader, err := zstd.NewReader(archiveFile)
	if err != nil {
		return nil, xerrors.Errorf("failed to read zstd stream of %q: %w", archivePath, err)
	}
	defer zstdReader.Close()

	return listTar(zstdReader)
}

// ArchiveFileName returns the file name used for tar.zst archives
func (archiver *TarZstdArchiver) ArchiveFileName() string {
	return tarzstArchiveFileName
}
