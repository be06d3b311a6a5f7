//go:build unix

package sfs

import (
	"context"
	"errors"
	"path"
	"sync"
	"syscall"

	gofs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"
)

// The FUSE host translates kernel VFS calls into storage façade calls. The
// façade is single-threaded by contract, so a single mutex serializes every
// operation regardless of how the kernel dispatches them.

type fuseHost struct {
	fsys *Filesystem
	mu   sync.Mutex
}

// fuseNode is one node of the kernel-visible tree. Nodes carry no state of
// their own; every operation re-resolves the node's path through the
// façade.
type fuseNode struct {
	gofs.Inode
	host *fuseHost
}

var _ = (gofs.NodeGetattrer)((*fuseNode)(nil))
var _ = (gofs.NodeSetattrer)((*fuseNode)(nil))
var _ = (gofs.NodeLookuper)((*fuseNode)(nil))
var _ = (gofs.NodeReaddirer)((*fuseNode)(nil))
var _ = (gofs.NodeMknoder)((*fuseNode)(nil))
var _ = (gofs.NodeMkdirer)((*fuseNode)(nil))
var _ = (gofs.NodeCreater)((*fuseNode)(nil))
var _ = (gofs.NodeUnlinker)((*fuseNode)(nil))
var _ = (gofs.NodeRmdirer)((*fuseNode)(nil))
var _ = (gofs.NodeRenamer)((*fuseNode)(nil))
var _ = (gofs.NodeOpener)((*fuseNode)(nil))
var _ = (gofs.NodeReader)((*fuseNode)(nil))
var _ = (gofs.NodeWriter)((*fuseNode)(nil))
var _ = (gofs.NodeFsyncer)((*fuseNode)(nil))
var _ = (gofs.NodeStatfser)((*fuseNode)(nil))

// MountFUSE mounts the filesystem at mountpoint and returns the running
// server. Call Wait on the server to block until unmount.
func (fsys *Filesystem) MountFUSE(mountpoint string, debug bool) (*fuse.Server, error) {
	host := &fuseHost{fsys: fsys}
	root := &fuseNode{host: host}

	opts := &gofs.Options{
		MountOptions: fuse.MountOptions{
			FsName: "sfs",
			Name:   "sfs",
			Debug:  debug,
		},
	}

	server, err := gofs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, err
	}
	logrus.WithField("mountpoint", mountpoint).Info("sfs mounted")
	return server, nil
}

// errno flattens the error taxonomy to the -errno the kernel expects.
func errno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrNoSpace):
		return syscall.ENOSPC
	case errors.Is(err, ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, ErrNotDirectory):
		return syscall.ENOTDIR
	case errors.Is(err, ErrExist):
		return syscall.EEXIST
	case errors.Is(err, ErrNameTooLong):
		return syscall.ENAMETOOLONG
	case errors.Is(err, ErrCorrupt):
		return syscall.EIO
	default:
		return syscall.EINVAL
	}
}

func (n *fuseNode) abs() string {
	p := n.Path(nil)
	if p == "" {
		return "/"
	}
	return "/" + p
}

func (n *fuseNode) child(name string) string {
	return path.Join(n.abs(), name)
}

func fillAttr(attr *fuse.Attr, st *Stat) {
	attr.Ino = uint64(st.Ino)
	attr.Size = uint64(st.Size)
	attr.Blocks = uint64(st.Blocks)
	attr.Mode = uint32(st.Mode)
	attr.Nlink = uint32(st.Nlink)
	attr.Blksize = uint32(st.Blksize)
	attr.Owner.Uid = uint32(st.Uid)
	attr.Owner.Gid = uint32(st.Gid)
}

// newChild wraps a freshly stat'ed path in a kernel-visible node.
func (n *fuseNode) newChild(ctx context.Context, st *Stat, out *fuse.EntryOut) *gofs.Inode {
	child := n.NewInode(ctx, &fuseNode{host: n.host}, gofs.StableAttr{
		Mode: uint32(st.Mode),
		Ino:  uint64(st.Ino),
	})
	fillAttr(&out.Attr, st)
	return child
}

func (n *fuseNode) Getattr(ctx context.Context, f gofs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	st, err := n.host.fsys.Stat(n.abs())
	if err != nil {
		return errno(err)
	}
	fillAttr(&out.Attr, st)
	return 0
}

func (n *fuseNode) Setattr(ctx context.Context, f gofs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	if size, ok := in.GetSize(); ok {
		if err := n.host.fsys.Truncate(n.abs(), int64(size)); err != nil {
			return errno(err)
		}
	}
	st, err := n.host.fsys.Stat(n.abs())
	if err != nil {
		return errno(err)
	}
	fillAttr(&out.Attr, st)
	return 0
}

func (n *fuseNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofs.Inode, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	st, err := n.host.fsys.Stat(n.child(name))
	if err != nil {
		return nil, errno(err)
	}
	return n.newChild(ctx, st, out), 0
}

func (n *fuseNode) Readdir(ctx context.Context) (gofs.DirStream, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	names, err := n.host.fsys.List(n.abs())
	if err != nil {
		return nil, errno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		st, err := n.host.fsys.Stat(n.child(name))
		if err != nil {
			continue
		}
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Ino:  uint64(st.Ino),
			Mode: uint32(st.Mode),
		})
	}
	return gofs.NewListDirStream(entries), 0
}

func (n *fuseNode) Mknod(ctx context.Context, name string, mode, dev uint32, out *fuse.EntryOut) (*gofs.Inode, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	p := n.child(name)
	if err := n.host.fsys.Mknod(p, int(mode)); err != nil {
		return nil, errno(err)
	}
	st, err := n.host.fsys.Stat(p)
	if err != nil {
		return nil, errno(err)
	}
	return n.newChild(ctx, st, out), 0
}

func (n *fuseNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofs.Inode, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	p := n.child(name)
	if err := n.host.fsys.Mkdir(p, int(mode)); err != nil {
		return nil, errno(err)
	}
	st, err := n.host.fsys.Stat(p)
	if err != nil {
		return nil, errno(err)
	}
	return n.newChild(ctx, st, out), 0
}

func (n *fuseNode) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*gofs.Inode, gofs.FileHandle, uint32, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	p := n.child(name)
	if err := n.host.fsys.Mknod(p, int(mode|S_IFREG)); err != nil {
		return nil, nil, 0, errno(err)
	}
	st, err := n.host.fsys.Stat(p)
	if err != nil {
		return nil, nil, 0, errno(err)
	}
	return n.newChild(ctx, st, out), nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *fuseNode) Unlink(ctx context.Context, name string) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	return errno(n.host.fsys.Unlink(n.child(name)))
}

func (n *fuseNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	return errno(n.host.fsys.Rmdir(n.child(name)))
}

func (n *fuseNode) Rename(ctx context.Context, name string, newParent gofs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	toDir := newParent.EmbeddedInode().Path(nil)
	to := path.Join("/"+toDir, newName)
	return errno(n.host.fsys.Rename(n.child(name), to))
}

func (n *fuseNode) Open(ctx context.Context, flags uint32) (gofs.FileHandle, uint32, syscall.Errno) {
	// all io goes through the façade by path; no per-open state
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *fuseNode) Read(ctx context.Context, f gofs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	cnt, err := n.host.fsys.Read(n.abs(), dest, off)
	if err != nil {
		return nil, errno(err)
	}
	return fuse.ReadResultData(dest[:cnt]), 0
}

func (n *fuseNode) Write(ctx context.Context, f gofs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	cnt, err := n.host.fsys.Write(n.abs(), data, off)
	if err != nil {
		return 0, errno(err)
	}
	return uint32(cnt), 0
}

func (n *fuseNode) Fsync(ctx context.Context, f gofs.FileHandle, flags uint32) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	if err := n.host.fsys.Sync(); err != nil {
		return syscall.EIO
	}
	return 0
}

func (n *fuseNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	n.host.mu.Lock()
	defer n.host.mu.Unlock()

	info := n.host.fsys.Info()
	out.Blocks = uint64(info.Blocks)
	out.Bfree = uint64(info.FreeBlocks)
	out.Bavail = uint64(info.FreeBlocks)
	out.Files = uint64(info.Inodes)
	out.Ffree = uint64(info.FreeInodes)
	out.Bsize = uint32(info.BlockSize)
	out.NameLen = MaxNameLength
	return 0
}
