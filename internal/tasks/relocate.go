// package tasks implements the two-step track relocation between curation playlists.
package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/shared"
)

// Outcome is the end state of a relocation.
type Outcome int

const (
	// OK means the track is in the target and no longer in the source.
	OK Outcome = iota
	// PartialFailure means the track was added to the target but is still in the source.
	PartialFailure
	// Failure means the add failed and nothing changed.
	Failure
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case PartialFailure:
		return "partial_failure"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// PlaylistEditor adds and removes tracks on the provider.
type PlaylistEditor interface {
	AddToPlaylist(ctx context.Context, playlistID, trackURI string) error
	RemoveFromPlaylist(ctx context.Context, playlistID, trackURI string) error
}

// RelocationResult records what a relocation did.
type RelocationResult struct {
	ID        string // correlates log lines for one relocation
	TrackURI  string
	TargetID  string
	SourceID  string
	Outcome   Outcome
	AddErr    error
	RemoveErr error
}

// Advance reports whether the caller should move on to the next track.
func (r *RelocationResult) Advance() bool {
	return r.Outcome == OK
}

// Summary is a one-line description for display.
func (r *RelocationResult) Summary() string {
	switch r.Outcome {
	case OK:
		return fmt.Sprintf("Moved to %s", r.TargetID)
	case PartialFailure:
		return fmt.Sprintf("Added to %s but still in %s: %v", r.TargetID, r.SourceID, r.RemoveErr)
	default:
		return fmt.Sprintf("Not moved: %v", r.AddErr)
	}
}

// Relocator moves a track from a source playlist to a target playlist.
type Relocator struct {
	editor PlaylistEditor
	logger *log.Logger
}

// NewRelocator creates a [Relocator] editing playlists through editor.
func NewRelocator(editor PlaylistEditor, logger *log.Logger) *Relocator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Relocator{editor: editor, logger: shared.WithLogger(logger, "component", "relocator")}
}

// Relocate adds trackURI to the target, then removes it from the source.
//
// The two steps are not atomic. A failed add stops before the remove and yields [Failure]. A
// failed remove after a successful add yields [PartialFailure] with an error wrapping
// [shared.ErrPartialRelocation]; the track is then in both playlists and is left there.
// The result is non-nil whenever the arguments are valid.
func (r *Relocator) Relocate(ctx context.Context, progress chan<- ProgressUpdate, trackURI, targetID, sourceID string) (*RelocationResult, error) {
	trackURI, targetID, sourceID = strings.TrimSpace(trackURI), strings.TrimSpace(targetID), strings.TrimSpace(sourceID)

	switch {
	case trackURI == "":
		return nil, fmt.Errorf("%w: track", shared.ErrMissingArgument)
	case targetID == "":
		return nil, fmt.Errorf("%w: target playlist", shared.ErrMissingArgument)
	case sourceID == "":
		return nil, fmt.Errorf("%w: source playlist", shared.ErrMissingArgument)
	case targetID == sourceID:
		return nil, fmt.Errorf("%w: target and source are the same playlist %s", shared.ErrInvalidArgument, targetID)
	}

	res := &RelocationResult{
		ID:       shared.GenerateID(),
		TrackURI: trackURI,
		TargetID: targetID,
		SourceID: sourceID,
	}
	logger := r.logger.With("id", res.ID, "track", trackURI)

	sendProgress(progress, addingUpdate(trackURI, targetID))
	if err := r.editor.AddToPlaylist(ctx, targetID, trackURI); err != nil {
		res.Outcome, res.AddErr = Failure, err
		logger.Error("relocation failed", "target", targetID, "error", err)
		sendProgress(progress, completedUpdate(res))
		return res, fmt.Errorf("failed to add track to %s: %w", targetID, err)
	}

	sendProgress(progress, removingUpdate(trackURI, sourceID))
	if err := r.editor.RemoveFromPlaylist(ctx, sourceID, trackURI); err != nil {
		res.Outcome, res.RemoveErr = PartialFailure, err
		logger.Warn("relocation partially applied", "target", targetID, "source", sourceID, "error", err)
		sendProgress(progress, completedUpdate(res))
		return res, fmt.Errorf("%w: %s: %w", shared.ErrPartialRelocation, sourceID, err)
	}

	res.Outcome = OK
	logger.Info("relocated track", "target", targetID, "source", sourceID)
	sendProgress(progress, completedUpdate(res))
	return res, nil
}
