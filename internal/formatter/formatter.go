// package formatter renders a playlist and its tracks to export formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	Text     Format = "txt"
	JSON     Format = "json"
)

// Export is a playlist with the tracks loaded for it.
type Export struct {
	Playlist models.Playlist `json:"playlist"`
	Tracks   []models.Track  `json:"tracks"`
}

// ParseFormat maps a user-supplied format name to a [Format].
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
	}
}

// Render encodes export in the given format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(export)
	case Markdown:
		return ExportToMarkdown(export)
	case JSON:
		return ExportToJSON(export, true)
	case Text:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts an Export to CSV with columns: URI, Name, Artists, Album, Duration, Explicit
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"URI", "Name", "Artists", "Album", "Duration", "Explicit"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.URI,
			track.Name,
			track.ArtistNames(),
			track.Album.Name,
			FormatDuration(track.DurationMS),
			strconv.FormatBool(track.Explicit),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to Markdown, linking the playlist artwork when it has one.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name)

	if len(export.Playlist.Images) > 0 && export.Playlist.Images[0].URL != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", export.Playlist.Images[0].URL)
	}

	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", export.Playlist.Description)
	}

	if export.Playlist.Owner.DisplayName != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", export.Playlist.Owner.DisplayName)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", visibility(export.Playlist.Public))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.ArtistNames(), track.Name, albumPart, FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistNames(), track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the playlist and its tracks.
func ExportToJSON(export *Export, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(export, "", "  ")
	} else {
		data, err = json.Marshal(export)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders export and writes it to path.
//
// Defaults to {playlist.ID}.{format} as the filename.
func WriteExport(export *Export, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", export.Playlist.ID, format)
	}

	data, err := Render(export, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
