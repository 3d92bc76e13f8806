package domain

import "path/filepath"

const (
	// WatchdagDirName is the name of the per-project metadata directory.
	WatchdagDirName = ".watchdag"

	// HashFileName is the name of the persisted content-hash store file.
	HashFileName = "hashes"

	// DefaultConfigFileName is the default config file name (spec §6).
	DefaultConfigFileName = "Watchdag.toml"

	// DirPerm is the default permission for directories.
	DirPerm = 0o750

	// FilePerm is the default permission for files.
	FilePerm = 0o644
)

// DefaultHashStorePath returns the default path of the file-backed hash
// store relative to the watch root: `<root>/.watchdag/hashes`.
func DefaultHashStorePath(root string) string {
	return filepath.Join(root, WatchdagDirName, HashFileName)
}
