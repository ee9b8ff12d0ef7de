package common

// ConstError is an error that can be declared as a constant and compared
// with errors.Is after wrapping.
type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	ErrFormatMismatch ConstError = "format mismatch"
	ErrCorrupt        ConstError = "corrupt filesystem"
	ErrNotFound       ConstError = "not found"
	ErrNotDir         ConstError = "not a directory"
	ErrNotRegular     ConstError = "not a regular file"
	ErrObjectLimit    ConstError = "object limit reached"
	ErrNoFreeBlocks   ConstError = "no free blocks"
	ErrDirFull        ConstError = "directory full"
	ErrExists         ConstError = "name exists"
	ErrInvalidName    ConstError = "invalid name"
	ErrFileTooBig     ConstError = "file too big"
	ErrNotMounted     ConstError = "not mounted"
	ErrOutOfRange     ConstError = "block out of range"
	ErrBadCookie      ConstError = "bad directory cookie"
)
