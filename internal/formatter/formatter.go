// package formatter provides functions to export album lists to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/albumsync/internal/models"
	"github.com/desertthunder/albumsync/internal/shared"
)

// Supported export formats
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formats lists the accepted values of the --format flag.
var Formats = []string{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// Export renders albums in the given format. title is used by Markdown only.
func Export(albums []models.Album, format, title string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ExportToText(albums)
	case FormatCSV:
		return ExportToCSV(albums)
	case FormatMarkdown, "md":
		return ExportToMarkdown(title, albums)
	case FormatJSON:
		return ExportToJSON(albums)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// ExportToCSV converts albums to CSV format with columns: Date, Name, Artists, URI
func ExportToCSV(albums []models.Album) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Date", "Name", "Artists", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, album := range albums {
		record := []string{album.Date, album.Name, album.Artists, album.URI}
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

// ExportToMarkdown converts albums to a Markdown table
func ExportToMarkdown(title string, albums []models.Album) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Albums**: %d\n\n", len(albums))

	buf.WriteString("| # | Date | Album | Artists |\n")
	buf.WriteString("|---|------|-------|---------|\n")
	for i, album := range albums {
		fmt.Fprintf(&buf, "| %d | %s | [%s](%s) | %s |\n",
			i+1, album.Date, escapeCell(album.Name), openURL(album.URI), escapeCell(album.Artists))
	}

	return buf.Bytes(), nil
}

// ExportToText converts albums to pipe-separated lines: date | name | artists | uri
func ExportToText(albums []models.Album) ([]byte, error) {
	var buf bytes.Buffer
	for _, album := range albums {
		fmt.Fprintf(&buf, "%s | %s | %s | %s\n", album.Date, album.Name, album.Artists, album.URI)
	}
	return buf.Bytes(), nil
}

// ExportToJSON converts albums to an indented JSON array
func ExportToJSON(albums []models.Album) ([]byte, error) {
	if albums == nil {
		albums = []models.Album{}
	}
	return shared.MarshalJSON(albums, true)
}

// WriteExport renders albums and writes them to path.
func WriteExport(albums []models.Album, format, title, path string) error {
	data, err := Export(albums, format, title)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// openURL turns "spotify:album:<id>" into its open.spotify.com link; other URIs are returned as is.
func openURL(uri string) string {
	parts := strings.Split(uri, ":")
	if len(parts) == 3 && parts[0] == "spotify" {
		return fmt.Sprintf("https://open.spotify.com/%s/%s", parts[1], parts[2])
	}
	return uri
}
