package filesystem

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/internal/util"
)

// AddDirNode creates every missing directory in the request's path and
// returns the id of the leaf. It is equivalent to `mkdir -p`: existing
// directories are reused and an existing leaf is not an error.
func (fs *FileSystem) AddDirNode(req *nifs.DirCreateRequest) (uint64, error) {
	logger := util.GetLogger("FS.AddDirNode")

	parts, err := splitPath(req.Path)
	if err != nil {
		return 0, fmt.Errorf("add dir %q: %w", req.Path, err)
	}
	id, newCnt, err := fs.mkdirAll(parts)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Str("uuid", req.UUID).Msg("Failed to create directory")
		return 0, err
	}
	if newCnt > 0 {
		logger.Info().Str("path", req.Path).Str("uuid", req.UUID).Msg(fmt.Sprintf("Created %d new dir(s)", newCnt))
	}
	return id, nil
}

// AddFileNode creates the file at the request's path, including any missing
// ancestor directories, and fills it from the first source (by priority)
// that delivers its content. If every source fails the file is removed
// again and the combined source errors are returned.
func (fs *FileSystem) AddFileNode(ctx context.Context, req *nifs.FileCreateRequest) (uint64, error) {
	logger := util.GetLogger("FS.AddFileNode")

	parts, err := splitPath(req.Path)
	if err != nil {
		return 0, fmt.Errorf("add file %q: %w", req.Path, err)
	}
	if len(parts) == 0 {
		return 0, fmt.Errorf("add file %q: %w", req.Path, nifs.ErrInvalid)
	}
	dirParts, name := parts[:len(parts)-1], parts[len(parts)-1]

	parentID, _, err := fs.mkdirAll(dirParts)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create file's ancestor directory(s)")
		return 0, err
	}
	id, err := fs.CreateFile(parentID, name)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create file")
		return 0, err
	}
	if len(req.Sources) == 0 {
		logger.Debug().Str("path", req.Path).Uint64("id", id).Msg("Added empty file node")
		return id, nil
	}

	sources := slices.Clone(req.Sources)
	slices.SortStableFunc(sources, func(a, b nifs.FileSource) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	var errs *multierror.Error
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		n, err := fs.fillFromSource(ctx, id, src)
		if err == nil {
			logger.Debug().Str("path", req.Path).Uint64("id", id).Int("source", i).
				Str("size", humanize.IBytes(uint64(n))).Msg("Added new file node")
			return id, nil
		}
		logger.Warn().Err(err).Str("path", req.Path).Int("source", i).Msg("Source failed, trying next")
		errs = multierror.Append(errs, fmt.Errorf("source %d: %w", i, err))
	}

	if rmErr := fs.RemoveFile(parentID, name); rmErr != nil {
		errs = multierror.Append(errs, rmErr)
	}
	logger.Error().Err(errs).Str("path", req.Path).Msg("No source could fill file")
	return 0, fmt.Errorf("add file %q: %w", req.Path, errs.ErrorOrNil())
}

// fillFromSource streams one source into the file. Partial content from a
// failed source is discarded.
func (fs *FileSystem) fillFromSource(ctx context.Context, id uint64, src nifs.FileSource) (int64, error) {
	if src.FileAdapter == nil {
		return 0, errors.New("source has no adapter")
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := io.Copy(&fileWriter{fs: fs, id: id}, rc)
	if err != nil {
		if tErr := fs.Truncate(id, 0); tErr != nil {
			return 0, multierror.Append(err, tErr)
		}
		return 0, err
	}
	return n, nil
}

// fileWriter adapts sequential writes into appends on a file
type fileWriter struct {
	fs *FileSystem
	id uint64
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.fs.Write(w.id, 0, p, true)
}

// mkdirAll walks parts from the root creating missing directories.
// Returns the leaf id and how many directories were created.
func (fs *FileSystem) mkdirAll(parts []string) (uint64, int, error) {
	cur := fs.RootID()
	if _, ok := fs.FindDirectory(cur); !ok {
		return 0, 0, nifs.NewOpError("mkdir", cur, "", nifs.ErrNotFound)
	}

	newCnt := 0
	for _, name := range parts {
		res := fs.Resolve(cur, name)
		switch res.Kind {
		case nifs.Directory:
			cur = res.ID
			continue
		case nifs.File:
			return 0, newCnt, nifs.NewOpError("mkdir", cur, name, nifs.ErrAlreadyExists)
		}

		id, err := fs.MakeDirectory(cur, name)
		if errors.Is(err, nifs.ErrAlreadyExists) {
			// created concurrently; reuse it if it is a directory
			if res = fs.Resolve(cur, name); res.Kind == nifs.Directory {
				cur = res.ID
				continue
			}
		}
		if err != nil {
			return 0, newCnt, err
		}
		newCnt++
		cur = id
	}
	return cur, newCnt, nil
}

// splitPath splits a slash separated path relative to the root, ignoring
// leading, trailing, and repeated slashes. "." and ".." components are rejected.
func splitPath(p string) ([]string, error) {
	var parts []string
	for part := range strings.SplitSeq(p, "/") {
		switch part {
		case "":
			continue
		case ".", "..":
			return nil, nifs.ErrInvalid
		}
		if strings.ContainsRune(part, 0) {
			return nil, nifs.ErrInvalid
		}
		parts = append(parts, part)
	}
	return parts, nil
}
