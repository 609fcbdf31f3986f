// Package pathmap translates between host drive-letter paths and the
// mount-point paths visible inside a bridged guest environment.
package pathmap

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrUnsupportedPath = errors.New("pathmap: unsupported path")

const mountRoot = "/mnt"

var (
	drivePattern = regexp.MustCompile(`^([A-Za-z]):(.*)$`)
	mountPattern = regexp.MustCompile(`^/mnt/([A-Za-z])(/.*)?$`)
)

// HasDrive reports whether the path carries a drive-letter prefix.
func HasDrive(p string) bool {
	return drivePattern.MatchString(strings.ReplaceAll(p, `\`, "/"))
}

// ToMount converts a drive-letter path into its guest mount equivalent,
// e.g. `C:\work\chip.v` becomes `/mnt/c/work/chip.v`. Paths on unknown
// volumes are rejected with ErrUnsupportedPath rather than guessed at.
func ToMount(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsupportedPath)
	}
	normalized := strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(normalized, "//") {
		return "", fmt.Errorf("%w: UNC path %q", ErrUnsupportedPath, p)
	}
	m := drivePattern.FindStringSubmatch(normalized)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPath, p)
	}
	rest := m[2]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return "", fmt.Errorf("%w: drive-relative path %q", ErrUnsupportedPath, p)
	}
	return mountRoot + "/" + strings.ToLower(m[1]) + rest, nil
}

// FromMount is the inverse of ToMount: `/mnt/c/work/chip.v` becomes
// `C:\work\chip.v`. Only single-letter volumes under /mnt are supported.
func FromMount(p string) (string, error) {
	m := mountPattern.FindStringSubmatch(p)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPath, p)
	}
	rest := strings.ReplaceAll(m[2], "/", `\`)
	return strings.ToUpper(m[1]) + ":" + rest, nil
}
