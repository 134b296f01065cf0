package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/albumsync/internal/models"
)

var _ list.Item = albumItem{}

// albumItem wraps [models.Album] to implement [list.Item].
type albumItem struct {
	album models.Album
}

func (i albumItem) FilterValue() string { return i.album.Name }
func (i albumItem) Title() string       { return i.album.Name }
func (i albumItem) Description() string {
	return i.album.Date + " • " + i.album.Artists
}

func albumItems(albums []models.Album) []list.Item {
	items := make([]list.Item, len(albums))
	for i, album := range albums {
		items[i] = albumItem{album: album}
	}
	return items
}
