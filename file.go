package sfs

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"time"
)

// The filesystem doubles as a read-only fs.FS so standard library helpers
// (fs.ReadFile, fs.WalkDir, ...) work against a mounted image.
var (
	_ fs.FS        = (*Filesystem)(nil)
	_ fs.ReadDirFS = (*Filesystem)(nil)
)

// File is a convenience object allowing using an inode as if it was a regular file
type File struct {
	*io.SectionReader
	ino  *Inode
	name string
}

// FileDir is a convenience object allowing using a dir inode as if it was a regular file
type FileDir struct {
	ino  *Inode
	name string
	pos  int
}

type fileinfo struct {
	ino  *Inode
	name string
}

var _ fs.File = (*File)(nil)
var _ io.ReaderAt = (*File)(nil)

var _ fs.ReadDirFile = (*FileDir)(nil)

var _ fs.FileInfo = (*fileinfo)(nil)

// absPath maps an io/fs-style name onto the absolute paths the façade
// speaks.
func absPath(name string) string {
	if name == "." {
		return "/"
	}
	return "/" + name
}

// Open returns a fs.File for the named file. Directories implement
// fs.ReadDirFile; regular files also implement io.Seeker and io.ReaderAt.
func (fsys *Filesystem) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	ino, err := fsys.resolve(absPath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return ino.openFile(name), nil
}

func (ino *Inode) openFile(name string) fs.File {
	if ino.IsDir() {
		return &FileDir{ino: ino, name: name}
	}
	sec := io.NewSectionReader(ino, 0, int64(ino.Size()))
	return &File{SectionReader: sec, ino: ino, name: name}
}

// ReadDir lists the named directory sorted by filename, as io/fs requires.
// The façade's List keeps on-image slot order instead.
func (fsys *Filesystem) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	ino, err := fsys.resolve(absPath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	d := &FileDir{ino: ino, name: name}
	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// (File)

// Stat returns the details of the open file
func (f *File) Stat() (fs.FileInfo, error) {
	return &fileinfo{name: path.Base(f.name), ino: f.ino}, nil
}

// Sys returns the *Inode object for this file
func (f *File) Sys() any {
	return f.ino
}

// Close actually does nothing and exists to comply with fs.File
func (f *File) Close() error {
	return nil
}

// (FileDir)

// Read on a directory is invalid and will always fail
func (d *FileDir) Read(p []byte) (int, error) {
	return 0, fs.ErrInvalid
}

// Stat returns details on the file
func (d *FileDir) Stat() (fs.FileInfo, error) {
	return &fileinfo{name: path.Base(d.name), ino: d.ino}, nil
}

// Close resets the dir reader
func (d *FileDir) Close() error {
	d.pos = 0
	return nil
}

func (d *FileDir) ReadDir(n int) ([]fs.DirEntry, error) {
	var res []fs.DirEntry
	for {
		ent, err := d.ino.readEntry(d.pos)
		if err != nil {
			if err == ErrNotFound {
				if n > 0 && len(res) == 0 {
					return nil, io.EOF
				}
				return res, nil
			}
			return res, err
		}
		d.pos++

		child := d.ino.fs.getInode(ent.inum)
		if child == nil {
			return res, ErrCorrupt
		}
		res = append(res, &direntry{name: ent.name, ino: child})
		if n > 0 && len(res) >= n {
			return res, nil
		}
	}
}

// direntry implements fs.DirEntry for one live directory slot.
type direntry struct {
	name string
	ino  *Inode
}

func (de *direntry) Name() string {
	return de.name
}

func (de *direntry) IsDir() bool {
	return de.ino.IsDir()
}

func (de *direntry) Type() fs.FileMode {
	return UnixToMode(uint32(de.ino.Mode())).Type()
}

func (de *direntry) Info() (fs.FileInfo, error) {
	return &fileinfo{name: de.name, ino: de.ino}, nil
}

// (fileinfo)

// Name returns the file's base name
func (fi *fileinfo) Name() string {
	return fi.name
}

// Size returns the file's size
func (fi *fileinfo) Size() int64 {
	return int64(fi.ino.Size())
}

// Mode returns the file's mode
func (fi *fileinfo) Mode() fs.FileMode {
	return UnixToMode(uint32(fi.ino.Mode()))
}

// ModTime returns the zero time; the filesystem does not track times
func (fi *fileinfo) ModTime() time.Time {
	return time.Time{}
}

// IsDir returns true if this is a directory
func (fi *fileinfo) IsDir() bool {
	return fi.ino.IsDir()
}

// Sys returns the *Inode object matching this file
func (fi *fileinfo) Sys() any {
	return fi.ino
}

// Populate replays a source tree into the image: directories through Mkdir,
// regular files through Mknod and a single Write each. Other file types are
// skipped.
func (fsys *Filesystem) Populate(src fs.FS) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := int(ModeToUnix(info.Mode()))

		switch {
		case d.IsDir():
			return fsys.Mkdir(absPath(p), mode)
		case !info.Mode().IsRegular():
			return nil
		}

		if err := fsys.Mknod(absPath(p), mode); err != nil {
			return err
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
		n, err := fsys.Write(absPath(p), data, 0)
		if err != nil {
			return err
		}
		if n < len(data) {
			return fmt.Errorf("%s: short write %d of %d: %w", p, n, len(data), ErrNoSpace)
		}
		return nil
	})
}
