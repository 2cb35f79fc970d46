package cache

import (
	"archive/tar"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/xerrors"
)

const (
	targzArchiveFileName string = "cache.tar.gz"
)

// TarGzArchiver implements Archiver using tar with gzip compression
type TarGzArchiver struct {
}

// Pack packages the given paths into a tar.gz archive inside archiveDir
func (archiver *TarGzArchiver) Pack(archiveDir string, baseDir string, paths []string) (string, error) {
	archivePath := filepath.Join(archiveDir, archiver.ArchiveFileName())

	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return "", xerrors.Errorf("failed to create archive file %q: %w", archivePath, err)
	}

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	err = packTar(tarWriter, baseDir, paths)
	if err != nil {
		tarWriter.Close()
		gzipWriter.Close()
		archiveFile.Close()
		os.Remove(archivePath)
		return "", err
	}

	err = tarWriter.Close()
	if err == nil {
		err = gzipWriter.Close()
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

// Unpack extracts the tar.gz archive into baseDir
func (archiver *TarGzArchiver) Unpack(archivePath string, baseDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return xerrors.Errorf("failed to open archive %q: %w", archivePath, err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return xerrors.Errorf("failed to read gzip stream of %q: %w", archivePath, err)
	}
	defer gzipReader.Close()

	return unpackTar(gzipReader, baseDir)
}

// List returns the entry names the tar.gz archive holds
func (archiver *TarGzArchiver) List(archivePath string) ([]string, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, xerrors.Errorf("failed to open archive %q: %w", archivePath, err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return nil, xerrors.Errorf("failed to read gzip stream of %q: %w", archivePath, err)
	}
	defer gzipReader.Close()

	return listTar(gzipReader)
}

// ArchiveFileName returns the file name used for tar.gz archives
func (archiver *TarGzArchiver) ArchiveFileName() string {
	return targzArchiveFileName
}
