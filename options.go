package sfs

type Option func(fsys *Filesystem) error

// WithOwner sets the uid/gid reported by stat. The default is the calling
// process's owner.
func WithOwner(uid, gid int) Option {
	return func(fsys *Filesystem) error {
		fsys.uid = uid
		fsys.gid = gid
		return nil
	}
}
