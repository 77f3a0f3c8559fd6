package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tapedeck/internal/models"
)

var _ list.Item = tagItem{}

// tagItem wraps [models.Tag] to implement [list.Item].
type tagItem struct {
	tag *models.Tag
}

func (i tagItem) FilterValue() string { return i.tag.Label + " " + i.tag.TagID }

func (i tagItem) Title() string {
	if i.tag.Label != "" {
		return i.tag.Label
	}
	return i.tag.URI
}

func (i tagItem) Description() string {
	return fmt.Sprintf("%s • tag %s", i.tag.URI, i.tag.TagID)
}

func tagItems(tags []*models.Tag) []list.Item {
	items := make([]list.Item, len(tags))
	for i, t := range tags {
		items[i] = tagItem{tag: t}
	}
	return items
}
