package server

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hashicorp/go-multierror"

	"github.com/brettbedarf/nifs/config"
	"github.com/brettbedarf/nifs/filesystem"
	nfuse "github.com/brettbedarf/nifs/fuse"
	"github.com/brettbedarf/nifs/internal/util"
	"github.com/brettbedarf/nifs/requests"
)

// Server contains the core filesystem state and operations with abstractions
// over the underlying FUSE wire protocol implementation
type Server struct {
	*filesystem.FileSystem
	cfg    *config.Config
	raw    *nfuse.FuseRaw
	server *fuse.Server
}

// SeedStats counts the nodes added by [Server.Seed]
type SeedStats struct {
	Dirs  int
	Files int
	Bytes int64
}

// New creates a Server for cfg and mounts its in-memory tree so it can be
// seeded before the kernel mount exists.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	fs := filesystem.NewFS(cfg)
	fs.Mount()
	return &Server{
		FileSystem: fs,
		cfg:        cfg,
	}
}

// Seed adds the directory then file requests of nodes to the tree. Every
// request is attempted; failures are combined into the returned error.
func (s *Server) Seed(ctx context.Context, nodes *requests.Nodes) (SeedStats, error) {
	logger := util.GetLogger("Server.Seed")
	logger.Debug().Int("dirs", len(nodes.Dirs)).Int("files", len(nodes.Files)).Msg("Seeding filesystem")

	var stats SeedStats
	var errs *multierror.Error
	for _, req := range nodes.Dirs {
		if _, err := s.AddDirNode(req); err != nil {
			logger.Debug().Interface("request", req).Err(err).Msg("Failed to add directory request")
			errs = multierror.Append(errs, fmt.Errorf("dir %q: %w", req.Path, err))
			continue
		}
		stats.Dirs++
	}
	for _, req := range nodes.Files {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		id, err := s.AddFileNode(ctx, req)
		if err != nil {
			logger.Debug().Str("path", req.Path).Str("uuid", req.UUID).Err(err).Msg("Failed to add file request")
			errs = multierror.Append(errs, fmt.Errorf("file %q: %w", req.Path, err))
			continue
		}
		stats.Files++
		if info, err := s.Stat(id); err == nil {
			stats.Bytes += info.Size
		}
	}

	logger.Info().
		Int("directories", stats.Dirs).
		Int("files", stats.Files).
		Str("content", humanize.IBytes(uint64(stats.Bytes))).
		Msg("Added new nodes to filesystem")
	return stats, errs.ErrorOrNil()
}

// Serve mounts and serves the filesystem at the given mountPoint.
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("Server.Serve")

	s.raw = s.newRaw()
	opts := s.cfg.MountOptions
	srv, err := fuse.NewServer(s.raw, mountPoint, &fuse.MountOptions{
		Name:     opts.Name,
		FsName:   opts.FsName,
		Debug:    opts.Debug || s.cfg.LogLvl == util.TraceLevel,
		Logger:   util.NewLogLogger("FuseServer", util.TraceLevel),
		MaxWrite: s.cfg.MaxWrite,
	})
	if err != nil {
		return err
	}
	s.server = srv

	go srv.Serve()
	if err := srv.WaitMount(); err != nil {
		return err
	}
	logger.Info().Str("mountpoint", mountPoint).Str("session", s.Session()).Msg("Serving")
	return nil
}

// newRaw wraps the tree New mounted; a tree freed by Unmount is mounted afresh
func (s *Server) newRaw() *nfuse.FuseRaw {
	root := s.RootID()
	if !s.Mounted() {
		root = s.Mount()
	}
	return nfuse.NewFuseRaw(s.FileSystem, root, s.cfg)
}

func (s *Server) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Unmount detaches the kernel mount, if any, then frees the in-memory tree.
// The tree is freed even if the kernel unmount fails.
func (s *Server) Unmount() error {
	var errs *multierror.Error
	if s.server != nil {
		if err := s.server.Unmount(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("fuse unmount: %w", err))
		} else {
			s.server.Wait()
		}
		s.server = nil
	}
	s.FileSystem.Unmount()
	return errs.ErrorOrNil()
}
