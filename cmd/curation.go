package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/curator/internal/formatter"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CurationBlocks lists every block in the requested format.
func (r *Runner) CurationBlocks(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.wire(); err != nil {
		return err
	}

	blocks, err := r.curation.RawBlocks(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("fetched curation blocks", "count", len(blocks))

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(blocks, format, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d blocks to %s\n", len(blocks), written)
	}
	return formatter.Write(r.output, blocks, format)
}

// CurationBlock shows one block.
func (r *Runner) CurationBlock(ctx context.Context, cmd *cli.Command) error {
	id, err := parseBlockID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.wire(); err != nil {
		return err
	}

	block, err := r.curation.RawBlock(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(block, true)
	}
	return formatter.Write(r.output, []models.CurationBlock{*block}, formatter.Text)
}

// CurationResolve prints the categories for a context, defaulting to the one currently playing.
func (r *Runner) CurationResolve(ctx context.Context, cmd *cli.Command) error {
	contextURI := strings.TrimSpace(cmd.StringArg("context"))
	if contextURI == "" {
		st, err := r.snapshot(ctx)
		if err != nil {
			return err
		}
		if st.Snapshot.NothingPlaying() {
			return shared.ErrNothingPlaying
		}
		contextURI = st.Snapshot.ContextURI
	} else if err := r.wire(); err != nil {
		return err
	}

	res, err := r.resolver.Resolve(ctx, contextURI)
	if err != nil {
		return err
	}
	return r.writeResolution(contextURI, res)
}

func (r *Runner) writeResolution(contextURI string, res models.Resolution) error {
	if res.Empty() {
		return r.writePlain("%s is not part of any curation block\n", contextURI)
	}

	r.writePlainHeader(res.Block.Label())
	for i, p := range res.TargetPlaylists {
		r.writePlain("%2d. %-24s %s\n", i+1, p.Label(), p.ProviderPlaylistID)
	}
	if res.TrashPlaylist != nil {
		r.writePlain("    %-24s %s\n", "Trash", res.TrashPlaylist.ProviderPlaylistID)
	}
	return nil
}

// CurationProcess marks a block processed and drops cached resolutions.
func (r *Runner) CurationProcess(ctx context.Context, cmd *cli.Command) error {
	id, err := parseBlockID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.wire(); err != nil {
		return err
	}

	block, err := r.curation.ProcessBlock(ctx, id)
	if err != nil {
		return err
	}
	r.resolver.Purge()
	return r.writePlain("✓ Block %d is %s\n", block.ID, block.Status)
}

// CurationMove files the current track into the category named by the argument.
func (r *Runner) CurationMove(ctx context.Context, cmd *cli.Command) error {
	category := strings.TrimSpace(cmd.StringArg("category"))
	if category == "" {
		return fmt.Errorf("%w: category", shared.ErrMissingArgument)
	}

	return r.relocateCurrent(ctx, !cmd.Bool("stay"), func(res models.Resolution) (*models.CurationPlaylist, error) {
		target := findTarget(res.TargetPlaylists, category)
		if target == nil {
			return nil, fmt.Errorf("%w: no category %q in this block", shared.ErrInvalidArgument, category)
		}
		return target, nil
	})
}

// CurationTrash files the current track into the block's trash playlist.
func (r *Runner) CurationTrash(ctx context.Context, cmd *cli.Command) error {
	return r.relocateCurrent(ctx, !cmd.Bool("stay"), func(res models.Resolution) (*models.CurationPlaylist, error) {
		if res.TrashPlaylist == nil {
			return nil, fmt.Errorf("%w: this block has no trash playlist", shared.ErrInvalidArgument)
		}
		return res.TrashPlaylist, nil
	})
}

// relocateCurrent resolves the current context, picks a target and moves the current track there.
func (r *Runner) relocateCurrent(ctx context.Context, advance bool, pick func(models.Resolution) (*models.CurationPlaylist, error)) error {
	st, err := r.snapshot(ctx)
	if err != nil {
		return err
	}
	snap := st.Snapshot
	if snap.NothingPlaying() {
		return shared.ErrNothingPlaying
	}

	res, err := r.resolver.Resolve(ctx, snap.ContextURI)
	if err != nil {
		return err
	}
	if res.Empty() {
		return fmt.Errorf("%w: %s is not part of any curation block", shared.ErrInvalidArgument, snap.ContextURI)
	}

	target, err := pick(res)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 4)
	result, err := r.relocator.Relocate(ctx, progress, snap.TrackURI, target.ProviderPlaylistID, shared.LastSegment(snap.ContextURI))
	close(progress)
	for update := range progress {
		r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step)
	}

	if result == nil {
		return err
	}

	r.writePlain("%s\n", describeTrack(snap))
	switch result.Outcome {
	case tasks.OK:
		r.writePlain("✓ Moved to %s\n", target.Label())
	case tasks.PartialFailure:
		r.writePlain("⚠ Added to %s but still in %s\n", target.Label(), result.SourceID)
	}
	if err != nil {
		return err
	}

	if advance && result.Advance() {
		if err := r.controls.Next(ctx); err != nil && !errors.Is(err, shared.ErrNothingPlaying) {
			return fmt.Errorf("moved, but failed to skip: %w", err)
		}
	}
	return nil
}

// findTarget matches a category by name (case-insensitive) or by playlist id.
func findTarget(targets []models.CurationPlaylist, query string) *models.CurationPlaylist {
	for i := range targets {
		if targets[i].ProviderPlaylistID == query {
			return &targets[i]
		}
	}
	for i := range targets {
		if strings.EqualFold(targets[i].Label(), query) {
			return &targets[i]
		}
	}
	return nil
}

func parseBlockID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: block id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: block id %q", shared.ErrInvalidArgument, s)
	}
	return id, nil
}
