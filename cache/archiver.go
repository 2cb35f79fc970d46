package cache

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

const (
	// ArchiveMethodTarGz is tar with gzip compression
	ArchiveMethodTarGz string = "targz"
	// ArchiveMethodTarZstd is tar with zstandard compression
	ArchiveMethodTarZstd string = "tarzst"
)

// Archiver packages a path set into a single compressed archive and performs
// the reverse operation, unpacking an archive to the original layout.
// Entry names are stored relative to a base directory so that an archive
// round-trips to the exact locations it was built from.
type Archiver interface {
	// Pack packages the given paths, relative to baseDir, into a single
	// archive inside archiveDir and returns the archive path
	Pack(archiveDir string, baseDir string, paths []string) (string, error)
	// Unpack extracts the archive into baseDir
	Unpack(archivePath string, baseDir string) error
	// List returns the entry names the archive holds
	List(archivePath string) ([]string, error)
	// ArchiveFileName returns the file name used for archives of this method
	ArchiveFileName() string
}

// NewArchiver creates an Archiver for the given method
func NewArchiver(method string) (Archiver, error) {
	switch strings.ToLower(method) {
	case ArchiveMethodTarGz:
		return &TarGzArchiver{}, nil
	case ArchiveMethodTarZstd:
		return &TarZstdArchiver{}, nil
	default:
		return nil, xerrors.Errorf("unknown archive method %q", method)
	}
}

// packTar writes the given paths, relative to baseDir, into the tar stream
func packTar(tarWriter *tar.Writer, baseDir string, paths []string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return xerrors.Errorf("failed to compute absolute path of %q: %w", baseDir, err)
	}

	for _, path := range paths {
		absPath := path
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(absBase, path)
		}

		relPath, err := filepath.Rel(absBase, absPath)
		if err != nil {
			return xerrors.Errorf("failed to compute relative path of %q under %q: %w", path, absBase, err)
		}

		if relPath == ".." || strings.HasPrefix(relPath, ".."+string(os.PathSeparator)) {
			return xerrors.Errorf("path %q escapes the base dir %q", path, absBase)
		}

		err = filepath.Walk(absPath, func(walkPath string, info fs.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			return writeTarEntry(tarWriter, absBase, walkPath, info)
		})
		if err != nil {
			return xerrors.Errorf("failed to pack %q: %w", path, err)
		}
	}

	return nil
}

// writeTarEntry writes one directory, regular file, or symlink entry
func writeTarEntry(tarWriter *tar.Writer, absBase string, walkPath string, info fs.FileInfo) error {
	relPath, err := filepath.Rel(absBase, walkPath)
	if err != nil {
		return xerrors.Errorf("failed to compute relative path of %q: %w", walkPath, err)
	}

	if relPath == "." {
		return nil
	}

	linkTarget := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		linkTarget, err = os.Readlink(walkPath)
		if err != nil {
			return xerrors.Errorf("failed to read symlink %q: %w", walkPath, err)
		}
	} else if !info.Mode().IsRegular() && !info.IsDir() {
		// sockets, devices and other irregular files are not cacheable
		return nil
	}

	header, err := tar.FileInfoHeader(info, linkTarget)
	if err != nil {
		return xerrors.Errorf("failed to make tar header for %q: %w", walkPath, err)
	}

	header.Name = filepath.ToSlash(relPath)
	if info.IsDir() {
		header.Name += "/"
	}

	err = tarWriter.WriteHeader(header)
	if err != nil {
		return xerrors.Errorf("failed to write tar header for %q: %w", walkPath, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(walkPath)
	if err != nil {
		return xerrors.Errorf("failed to open %q: %w", walkPath, err)
	}
	defer file.Close()

	_, err = io.Copy(tarWriter, file)
	if err != nil {
		return xerrors.Errorf("failed to write tar data for %q: %w", walkPath, err)
	}

	return nil
}

// unpackTar extracts the tar stream into baseDir.
// Entry names are cleaned rooted before joining, so an archive containing
// names like '../../../etc' cannot escape the base directory.
func unpackTar(reader io.Reader, baseDir string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return xerrors.Errorf("failed to compute absolute path of %q: %w", baseDir, err)
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return xerrors.Errorf("failed to read tar entry: %w", err)
		}

		targetPath := filepath.Join(absBase, filepath.Clean("/"+filepath.FromSlash(header.Name)))

		switch header.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(targetPath, fs.FileMode(header.Mode)|0700)
			if err != nil {
				return xerrors.Errorf("failed to make dir %q: %w", targetPath, err)
			}
		case tar.TypeReg:
			err = os.MkdirAll(filepath.Dir(targetPath), 0755)
			if err != nil {
				return xerrors.Errorf("failed to make dir for %q: %w", targetPath, err)
			}

			err = writeUnpackedFile(tarReader, targetPath, fs.FileMode(header.Mode))
			if err != nil {
				return err
			}
		case tar.TypeSymlink:
			err = os.MkdirAll(filepath.Dir(targetPath), 0755)
			if err != nil {
				return xerrors.Errorf("failed to make dir for %q: %w", targetPath, err)
			}

			os.Remove(targetPath)
			err = os.Symlink(header.Linkname, targetPath)
			if err != nil {
				return xerrors.Errorf("failed to make symlink %q: %w", targetPath, err)
			}
		default:
			return xerrors.Errorf("unsupported tar entry type %d for %q", header.Typeflag, header.Name)
		}
	}

	return nil
}

// writeUnpackedFile writes one regular file from the tar stream
func writeUnpackedFile(tarReader *tar.Reader, targetPath string, mode fs.FileMode) error {
	file, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return xerrors.Errorf("failed to create %q: %w", targetPath, err)
	}

	_, err = io.Copy(file, tarReader)
	if err != nil {
		file.Close()
		return xerrors.Errorf("failed to write %q: %w", targetPath, err)
	}

	err = file.Close()
	if err != nil {
		return xerrors.Errorf("failed to close %q: %w", targetPath, err)
	}

	return nil
}

// listTar returns the entry names in the tar stream
func listTar(reader io.Reader) ([]string, error) {
	names := []string{}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("failed to read tar entry: %w", err)
		}

		names = append(names, header.Name)
	}

	return names, nil
}
