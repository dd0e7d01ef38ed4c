// package formatter renders curation block listings as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Format is an output format for block listings.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat maps a flag value to a [Format]. "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for the format, without a dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// Export renders blocks in the given format.
func Export(blocks []models.CurationBlock, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return ExportToJSON(blocks)
	case CSV:
		return ExportToCSV(blocks)
	case Markdown:
		return ExportToMarkdown(blocks)
	case Text:
		return ExportToText(blocks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToJSON renders blocks as indented JSON in the backend wire format.
func ExportToJSON(blocks []models.CurationBlock) ([]byte, error) {
	if blocks == nil {
		blocks = []models.CurationBlock{}
	}
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal blocks: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders one row per block playlist with columns: Block ID, Block, Style, Status, Start, End, Role, Category, Playlist ID
func ExportToCSV(blocks []models.CurationBlock) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Block ID", "Block", "Style", "Status", "Start", "End", "Role", "Category", "Playlist ID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range blocks {
		for _, p := range b.Playlists {
			category := ""
			if p.CategoryName != nil {
				category = *p.CategoryName
			}
			record := []string{
				strconv.Itoa(b.ID),
				b.Name,
				b.StyleName,
				string(b.Status),
				b.StartDate,
				b.EndDate,
				string(p.Role),
				category,
				p.ProviderPlaylistID,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a section per block with a table of its playlists.
func ExportToMarkdown(blocks []models.CurationBlock) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Curation Blocks\n\n")
	fmt.Fprintf(&buf, "**Blocks**: %d\n\n", len(blocks))

	for _, b := range blocks {
		fmt.Fprintf(&buf, "## %d. %s\n\n", b.ID, b.Label())
		fmt.Fprintf(&buf, "**Status**: %s · **Tracks**: %d\n\n", b.Status, b.TrackCount)

		if len(b.Playlists) == 0 {
			buf.WriteString("_No playlists_\n\n")
			continue
		}

		buf.WriteString("| Role | Category | Playlist |\n")
		buf.WriteString("|---|---|---|\n")
		for _, p := range b.Playlists {
			link := p.ProviderPlaylistID
			if p.ProviderPlaylistURL != "" {
				link = fmt.Sprintf("[%s](%s)", p.ProviderPlaylistID, p.ProviderPlaylistURL)
			}
			category := ""
			if p.CategoryName != nil {
				category = *p.CategoryName
			}
			fmt.Fprintf(&buf, "| %s | %s | %s |\n", p.Role, category, link)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders one line per block followed by its indented playlists.
func ExportToText(blocks []models.CurationBlock) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Blocks: %d\n\n", len(blocks))
	for _, b := range blocks {
		fmt.Fprintf(&buf, "[%d] %s (%s)\n", b.ID, b.Label(), b.Status)
		for _, p := range b.Playlists {
			fmt.Fprintf(&buf, "    %-9s %-20s %s\n", p.Role, p.Label(), p.ProviderPlaylistID)
		}
	}

	return buf.Bytes(), nil
}

// Write renders blocks to w.
func Write(w io.Writer, blocks []models.CurationBlock, f Format) error {
	data, err := Export(blocks, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f, err)
	}
	return nil
}

// WriteExport renders blocks to a file.
//
// Defaults to blocks.{ext} when path is empty.
func WriteExport(blocks []models.CurationBlock, f Format, path string) (string, error) {
	if path == "" {
		path = "blocks." + f.Extension()
	}

	data, err := Export(blocks, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
