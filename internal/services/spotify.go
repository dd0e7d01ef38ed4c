// Spotify Web API player and playlist calls, layered on [spotify.Client]
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/zmb3/spotify/v2"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyService reads and drives the provider's player and edits playlists.
//
// Every call goes through the bearer [Client], so a 401 is retried once after a refresh.
type SpotifyService struct {
	client *spotify.Client
	now    func() time.Time
	logger *log.Logger
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	BaseURL string           // defaults to https://api.spotify.com/v1
	Now     func() time.Time // stamps ObservedAt; defaults to [time.Now]
	Logger  *log.Logger
}

// NewSpotifyService creates a [SpotifyService] sending through client.
func NewSpotifyService(client *Client, opts SpotifyOpts) *SpotifyService {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	// The SDK appends relative paths to the base.
	base := strings.TrimRight(opts.BaseURL, "/") + "/"

	return &SpotifyService{
		client: spotify.New(client.HTTPClient(), spotify.WithBaseURL(base)),
		now:    opts.Now,
		logger: shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// CurrentlyPlaying fetches the player state. A 204 yields a snapshot with no track.
//
// ObservedAt is the local clock when the response was decoded.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (models.PlaybackSnapshot, error) {
	cp, err := s.client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return models.PlaybackSnapshot{}, upstreamError("currently playing", err)
	}

	observed := s.now()
	if cp == nil || cp.Item == nil {
		return models.PlaybackSnapshot{ObservedAt: observed}, nil
	}

	return snapshotFrom(cp, observed), nil
}

func snapshotFrom(cp *spotify.CurrentlyPlaying, observed time.Time) models.PlaybackSnapshot {
	track := cp.Item

	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}

	duration := int(track.Duration)
	progress := max(int(cp.Progress), 0)
	if duration > 0 {
		progress = min(progress, duration)
	}

	return models.PlaybackSnapshot{
		IsPlaying:  cp.Playing,
		ProgressMs: progress,
		ObservedAt: observed,
		DurationMs: duration,
		TrackID:    string(track.ID),
		TrackURI:   string(track.URI),
		TrackName:  track.Name,
		Artists:    artists,
		AlbumName:  track.Album.Name,
		ContextURI: string(cp.PlaybackContext.URI),
	}
}

// Play resumes playback.
func (s *SpotifyService) Play(ctx context.Context) error {
	return upstreamError("play", s.client.Play(ctx))
}

// Pause pauses playback.
func (s *SpotifyService) Pause(ctx context.Context) error {
	return upstreamError("pause", s.client.Pause(ctx))
}

// Next skips to the next track.
func (s *SpotifyService) Next(ctx context.Context) error {
	return upstreamError("next", s.client.Next(ctx))
}

// Previous skips to the previous track.
func (s *SpotifyService) Previous(ctx context.Context) error {
	return upstreamError("previous", s.client.Previous(ctx))
}

// Seek moves the play head to positionMs.
func (s *SpotifyService) Seek(ctx context.Context, positionMs int) error {
	return upstreamError("seek", s.client.Seek(ctx, positionMs))
}

// AddToPlaylist appends the track to the playlist.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID, trackURI string) error {
	_, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), trackID(trackURI))
	if err != nil {
		return upstreamError("add to playlist", err)
	}
	s.logger.Debug("added track", "playlist", playlistID, "track", trackURI)
	return nil
}

// RemoveFromPlaylist removes every occurrence of the track from the playlist.
func (s *SpotifyService) RemoveFromPlaylist(ctx context.Context, playlistID, trackURI string) error {
	_, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), trackID(trackURI))
	if err != nil {
		return upstreamError("remove from playlist", err)
	}
	s.logger.Debug("removed track", "playlist", playlistID, "track", trackURI)
	return nil
}

// PlaylistPosition locates the track inside the playlist by walking every page of items.
func (s *SpotifyService) PlaylistPosition(ctx context.Context, playlistID, trackURI string) (models.PlaylistPosition, error) {
	pl, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("name,tracks.total"))
	if err != nil {
		return models.PlaylistPosition{}, upstreamError("get playlist", err)
	}

	pos := models.PlaylistPosition{Name: pl.Name, Total: int(pl.Tracks.Total), Index: -1}
	want := trackID(trackURI)

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(100))
	if err != nil {
		return models.PlaylistPosition{}, upstreamError("get playlist items", err)
	}

	offset := 0
	for {
		for i, item := range page.Items {
			if item.Track.Track != nil && item.Track.Track.ID == want {
				pos.Index = offset + i
				return pos, nil
			}
		}
		offset += len(page.Items)

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return pos, nil
		}
		if err != nil {
			return models.PlaylistPosition{}, upstreamError("get playlist items", err)
		}
	}
}

// trackID accepts either a bare id or a spotify:track: URI.
func trackID(uri string) spotify.ID {
	return spotify.ID(shared.LastSegment(uri))
}

// upstreamError passes session expiry through and wraps everything else as [shared.ErrUpstreamUnavailable].
func upstreamError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrSessionExpired) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrUpstreamUnavailable, op, err)
}
