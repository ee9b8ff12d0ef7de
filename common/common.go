package common

const (
	BLOCKSIZE uint64 = 4096
	NBITBLOCK uint64 = BLOCKSIZE * 8

	MAGIC   uint64 = 0x20200406
	VERSION uint64 = 1

	// MAXOBJECTS bounds both the inode table and the free-block bitmap,
	// which is a single 64-bit word.
	MAXOBJECTS uint64 = 64

	INODESZ  uint64 = 32 // on-disk size
	INODEBLK uint64 = BLOCKSIZE / INODESZ

	NAMELEN  uint64 = 255 // includes the terminating NUL
	DIRENTSZ uint64 = NAMELEN + 1 + 8
	DIRENTS  uint64 = BLOCKSIZE / DIRENTSZ
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	ROOTINUM Inum = 1
)

const (
	SUPERBLK      Bnum = 0
	INODESTOREBLK Bnum = 1
	ROOTDIRBLK    Bnum = 2

	// first block the allocator may hand out
	FIRSTFREEBLK Bnum = ROOTDIRBLK
)
