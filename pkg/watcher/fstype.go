package watcher

// FilesystemType is a coarse classification of the filesystem holding a
// watched file.
type FilesystemType string

const (
	FSTypeUnknown FilesystemType = "unknown"
	FSTypeLocal   FilesystemType = "local"
	FSTypeNFS     FilesystemType = "nfs"
	FSTypeSMB     FilesystemType = "smb"
	FSTypeFUSE    FilesystemType = "fuse"
	FSType9P      FilesystemType = "9p"
)

// isRemoteFilesystem reports whether inotify-style events are unreliable on
// fsType, in which case the watcher polls instead.
func isRemoteFilesystem(fsType FilesystemType) bool {
	switch fsType {
	case FSTypeNFS, FSTypeSMB, FSTypeFUSE, FSType9P:
		return true
	default:
		return false
	}
}
