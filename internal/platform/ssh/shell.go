package ssh

import (
	"path"
	"strings"
)

// Quote wraps s in single quotes for safe interpolation into a remote
// shell command.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// remoteDir returns the parent directory of a remote path. Remote paths are
// always POSIX.
func remoteDir(p string) string {
	return path.Dir(p)
}
