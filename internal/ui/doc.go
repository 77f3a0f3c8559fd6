// Package ui implements the interactive tag menu using bubbletea's Elm architecture.
//
// The menu has two views:
//  1. [LibraryView] : browse the tag library; enter plays the selected binding
//  2. [InfoView] : metadata for the selected binding, fetched from the Web API
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving results of API calls as
// [Msg] values produced by commands that run off the UI goroutine.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, i, esc, r, q) with contextual help from
// charmbracelet/bubbles/help.
package ui
