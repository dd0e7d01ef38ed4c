// package models defines the data model shared by the playback and curation packages
package models

import (
	"fmt"
	"slices"
	"time"
)

// TokenKind names one of the three stored credentials.
type TokenKind int

const (
	PrimaryAccess  TokenKind = iota // curation backend access token (JWT)
	PrimaryRefresh                  // curation backend refresh token
	ProviderAccess                  // streaming provider access token
)

// Key returns the fixed logical storage key for the token kind.
func (k TokenKind) Key() string {
	switch k {
	case PrimaryAccess:
		return "spotify_access_token"
	case PrimaryRefresh:
		return "spotify_refresh_token"
	case ProviderAccess:
		return "spotify_raw_access_token"
	default:
		return ""
	}
}

func (k TokenKind) String() string {
	switch k {
	case PrimaryAccess:
		return "primary_access"
	case PrimaryRefresh:
		return "primary_refresh"
	case ProviderAccess:
		return "provider_access"
	default:
		return "unknown"
	}
}

// TokenKinds lists every kind in storage order.
var TokenKinds = []TokenKind{PrimaryAccess, PrimaryRefresh, ProviderAccess}

// Credentials is the token triple. An empty string means the token is absent.
type Credentials struct {
	PrimaryAccess  string
	PrimaryRefresh string
	ProviderAccess string
}

// Get returns the token of the given kind.
func (c Credentials) Get(kind TokenKind) string {
	switch kind {
	case PrimaryAccess:
		return c.PrimaryAccess
	case PrimaryRefresh:
		return c.PrimaryRefresh
	case ProviderAccess:
		return c.ProviderAccess
	default:
		return ""
	}
}

// Merge returns c with every non-empty field of update applied.
func (c Credentials) Merge(update Credentials) Credentials {
	if update.PrimaryAccess != "" {
		c.PrimaryAccess = update.PrimaryAccess
	}
	if update.PrimaryRefresh != "" {
		c.PrimaryRefresh = update.PrimaryRefresh
	}
	if update.ProviderAccess != "" {
		c.ProviderAccess = update.ProviderAccess
	}
	return c
}

// IsZero reports whether no token is present.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// CredentialBackend persists the credential triple.
//
// Save and Clear must be durable when they return and must replace the whole triple.
type CredentialBackend interface {
	Load() (Credentials, error)
	Save(creds Credentials) error
	Clear() error
}

// PlaylistRole is the role a playlist plays inside a curation block.
type PlaylistRole string

const (
	RoleInboxNew PlaylistRole = "INBOX_NEW"
	RoleInboxOld PlaylistRole = "INBOX_OLD"
	RoleInboxNot PlaylistRole = "INBOX_NOT"
	RoleTrash    PlaylistRole = "TRASH"
	RoleTarget   PlaylistRole = "TARGET"
)

// BlockStatus is the processing state of a curation block.
type BlockStatus string

const (
	BlockNew       BlockStatus = "NEW"
	BlockProcessed BlockStatus = "PROCESSED"
)

// CurationPlaylist is a provider playlist owned by a block.
type CurationPlaylist struct {
	Role                PlaylistRole `json:"type"`
	ProviderPlaylistID  string       `json:"spotify_playlist_id"`
	ProviderPlaylistURL string       `json:"spotify_playlist_url"`
	CategoryID          *int         `json:"category_id"`
	CategoryName        *string      `json:"category_name"`
}

// Label returns the category name for TARGET playlists and the role otherwise.
func (p CurationPlaylist) Label() string {
	if p.CategoryName != nil && *p.CategoryName != "" {
		return *p.CategoryName
	}
	return string(p.Role)
}

// CurationBlock is a time-boxed grouping of inbox, trash and target playlists for one style.
type CurationBlock struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	StyleID       int                `json:"style_id"`
	StyleName     string             `json:"style_name"`
	Status        BlockStatus        `json:"status"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	TrackCount    int                `json:"track_count"`
	PlaylistCount int                `json:"playlist_count"`
	Playlists     []CurationPlaylist `json:"playlists"`
}

// Contains reports whether the block owns the provider playlist id.
func (b CurationBlock) Contains(playlistID string) bool {
	for _, p := range b.Playlists {
		if p.ProviderPlaylistID == playlistID {
			return true
		}
	}
	return false
}

// Label renders "name • style • start - end".
func (b CurationBlock) Label() string {
	return fmt.Sprintf("%s • %s • %s - %s", b.Name, b.StyleName, b.StartDate, b.EndDate)
}

// Resolution is the set of playlists the current track may be filed into.
//
// An unmanaged context resolves to the zero value.
type Resolution struct {
	TargetPlaylists []CurationPlaylist
	TrashPlaylist   *CurationPlaylist
	Block           *CurationBlock
}

// Empty reports whether the context was not resolvable to a block.
func (r Resolution) Empty() bool {
	return r.Block == nil && len(r.TargetPlaylists) == 0 && r.TrashPlaylist == nil
}

// Clone returns a deep copy, so a caller may reorder or edit it without touching shared state.
func (r Resolution) Clone() Resolution {
	out := Resolution{TargetPlaylists: clonePlaylists(r.TargetPlaylists)}
	if r.TrashPlaylist != nil {
		trash := r.TrashPlaylist.clone()
		out.TrashPlaylist = &trash
	}
	if r.Block != nil {
		block := *r.Block
		block.Playlists = clonePlaylists(r.Block.Playlists)
		out.Block = &block
	}
	return out
}

func (p CurationPlaylist) clone() CurationPlaylist {
	if p.CategoryID != nil {
		id := *p.CategoryID
		p.CategoryID = &id
	}
	if p.CategoryName != nil {
		name := *p.CategoryName
		p.CategoryName = &name
	}
	return p
}

func clonePlaylists(playlists []CurationPlaylist) []CurationPlaylist {
	out := slices.Clone(playlists)
	for i := range out {
		out[i] = out[i].clone()
	}
	return out
}

// PlaybackSnapshot is one authoritative observation of the provider's player.
//
// TrackID is empty when nothing is playing.
type PlaybackSnapshot struct {
	IsPlaying  bool
	ProgressMs int
	ObservedAt time.Time
	DurationMs int
	TrackID    string
	TrackURI   string
	TrackName  string
	Artists    []string
	AlbumName  string
	ContextURI string
}

// NothingPlaying reports whether the snapshot carries no track.
func (s PlaybackSnapshot) NothingPlaying() bool {
	return s.TrackID == ""
}

// PlaylistPosition describes where the current track sits in its playlist context.
type PlaylistPosition struct {
	Name  string
	Total int
	Index int // zero-based, -1 when the track was not found
}
