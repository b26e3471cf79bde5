package filesystem

import "github.com/brettbedarf/nifs"

// NodeContext holds the locks taken for one operation: the filesystem's
// lifecycle read lock plus the target directory or file lock.
// Calling NodeContext.Close() unwinds all unlocking callbacks in reverse order.
// Do NOT invoke locking methods on the wrapped node while this context is active.
//
// NOTE: NodeContext itself is **not** thread-safe meaning references
// to it should not be shared between goroutines
type NodeContext struct {
	dir      *DirNode
	file     *FileNode
	closeFns []func()
}

// Dir returns the locked directory, nil for file contexts
func (ctx *NodeContext) Dir() *DirNode {
	return ctx.dir
}

// File returns the locked file, nil for directory contexts
func (ctx *NodeContext) File() *FileNode {
	return ctx.file
}

// Info returns a snapshot of the locked node
func (ctx *NodeContext) Info() nifs.NodeInfo {
	if ctx.file != nil {
		return ctx.file.infoLocked()
	}
	return ctx.dir.infoLocked()
}

// AddClose pushes a cleanup callback (e.g., unlock) onto the end of the stack.
func (ctx *NodeContext) AddClose(fn func()) {
	ctx.closeFns = append(ctx.closeFns, fn)
}

// Close unwinds all cleanup callbacks in reverse order.
// Safe to call even if ctx is nil or no locks were acquired; it is
// a no-op in those cases, so you can `defer ctx.Close()` unconditionally.
//
// Example:
//
//	ctx, err := fs.lockDir(parentID, true)
//	defer ctx.Close()
func (ctx *NodeContext) Close() {
	if ctx == nil {
		return
	}
	for i := len(ctx.closeFns) - 1; i >= 0; i-- {
		ctx.closeFns[i]()
	}
	ctx.closeFns = nil
}

// lockShared takes the lifecycle read lock and fails if nothing is mounted
func (fs *FileSystem) lockShared() (*NodeContext, bool) {
	fs.mu.RLock()
	ctx := &NodeContext{}
	ctx.AddClose(fs.mu.RUnlock)
	if !fs.mounted {
		ctx.Close()
		return nil, false
	}
	return ctx, true
}

// lockDir returns a context holding the directory's read (or write) lock.
// Returns nil if the id is not a registered directory.
func (fs *FileSystem) lockDir(id uint64, write bool) *NodeContext {
	ctx, ok := fs.lockShared()
	if !ok {
		return nil
	}
	dir, ok := fs.dirs.Load(id)
	if !ok {
		ctx.Close()
		return nil
	}
	ctx.dir = dir
	if write {
		dir.mu.Lock()
		ctx.AddClose(dir.mu.Unlock)
	} else {
		dir.mu.RLock()
		ctx.AddClose(dir.mu.RUnlock)
	}
	// lost a race with removal between index load and lock
	if dir.removed.Load() {
		ctx.Close()
		return nil
	}
	return ctx
}

// lockFile returns a context holding the file's read (or write) lock.
// Returns nil if the id is not a registered file.
func (fs *FileSystem) lockFile(id uint64, write bool) *NodeContext {
	ctx, ok := fs.lockShared()
	if !ok {
		return nil
	}
	file, ok := fs.files.Load(id)
	if !ok {
		ctx.Close()
		return nil
	}
	ctx.file = file
	if write {
		file.mu.Lock()
		ctx.AddClose(file.mu.Unlock)
	} else {
		file.mu.RLock()
		ctx.AddClose(file.mu.RUnlock)
	}
	if file.removed.Load() {
		ctx.Close()
		return nil
	}
	return ctx
}
