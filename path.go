package sfs

import "strings"

// splitPath breaks an absolute path into its components, dropping empty
// segments from the leading slash and any doubled slashes.
func splitPath(path string) []string {
	var components []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			components = append(components, part)
		}
	}
	return components
}

// splitParent splits a path into its parent directory and final component.
// The parent always begins with "/" and has no trailing slash unless it is
// the root itself.
func splitParent(path string) (string, string) {
	components := splitPath(path)
	if len(components) == 0 {
		return "/", ""
	}
	name := components[len(components)-1]
	return "/" + strings.Join(components[:len(components)-1], "/"), name
}

// resolve walks an absolute path from the root inode. A missing component
// and an intermediate non-directory both come back as ErrNotFound; the
// resolver does not distinguish them.
func (fsys *Filesystem) resolve(path string) (*Inode, error) {
	cur := fsys.getInode(RootInode)
	for _, comp := range splitPath(path) {
		inum, err := cur.lookup(comp)
		if err != nil {
			return nil, ErrNotFound
		}
		cur = fsys.getInode(inum)
		if cur == nil {
			return nil, ErrNotFound
		}
	}
	return cur, nil
}
