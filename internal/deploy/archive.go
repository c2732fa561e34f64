package deploy

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
)

// filterSubtree narrows a gzipped source tarball to the entries under the
// given subtree. Entry names stay intact; extraction strips the leading
// components remotely. GitHub tarballs carry a single top-level directory,
// so an entry belongs to the subtree when its path after that directory
// starts with subtree/.
func filterSubtree(archive io.Reader, subtree string) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(rewrite(pw, archive, subtree))
	}()
	return pr
}

func rewrite(w io.Writer, archive io.Reader, subtree string) error {
	gzr, err := gzip.NewReader(archive)
	if err != nil {
		return fmt.Errorf("failed to read source archive: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	gzw := gzip.NewWriter(w)
	tr := tar.NewReader(gzr)
	tw := tar.NewWriter(gzw)

	prefix := path.Clean(subtree) + "/"
	matched := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read source archive: %w", err)
		}

		_, rest, ok := strings.Cut(path.Clean(hdr.Name), "/")
		if !ok || !strings.HasPrefix(rest, prefix) {
			continue
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.Copy(tw, tr); err != nil {
			return err
		}
		matched++
	}
	if matched == 0 {
		return fmt.Errorf("subtree %s not found in source archive", subtree)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gzw.Close()
}

// componentCount returns how many path elements a relative directory has.
func componentCount(dir string) int {
	return len(strings.Split(path.Clean(dir), "/"))
}
