package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	extendLeft    key.Binding
	extendRight   key.Binding
	extendUp      key.Binding
	extendDown    key.Binding
	nextCell      key.Binding
	prevCell      key.Binding
	pageUp        key.Binding
	pageDown      key.Binding
	firstRow      key.Binding
	lastRow       key.Binding
	edit          key.Binding
	copy          key.Binding
	paste         key.Binding
	autoSizeCol   key.Binding
	autoSizeRow   key.Binding
	widenColumn   key.Binding
	narrowColumn  key.Binding
	growRow       key.Binding
	shrinkRow     key.Binding
	recordDetail  key.Binding
	clearRange    key.Binding
	commitEdit    key.Binding
	cancelEdit    key.Binding
	commitEditTab key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+q"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "cell left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "cell right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		extendLeft:    key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("shift+←", "extend left")),
		extendRight:   key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("shift+→", "extend right")),
		extendUp:      key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("shift+↑", "extend up")),
		extendDown:    key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("shift+↓", "extend down")),
		nextCell:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next cell")),
		prevCell:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous cell")),
		pageUp:        key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		pageDown:      key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "page down")),
		firstRow:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/home", "first row")),
		lastRow:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G/end", "last row")),
		edit:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit cell")),
		copy:          key.NewBinding(key.WithKeys("y", "ctrl+c"), key.WithHelp("y", "copy")),
		paste:         key.NewBinding(key.WithKeys("p", "ctrl+v"), key.WithHelp("p", "paste")),
		autoSizeCol:   key.NewBinding(key.WithKeys("="), key.WithHelp("=", "fit column")),
		autoSizeRow:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "fit row")),
		widenColumn:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "widen column")),
		narrowColumn:  key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "narrow column")),
		growRow:       key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "taller row")),
		shrinkRow:     key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "shorter row")),
		recordDetail:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "record detail")),
		clearRange:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear range")),
		commitEdit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "commit")),
		commitEditTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "commit and move right")),
		cancelEdit:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel edit")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.copy, cfg.Copy, "y", "copy")
	configureBinding(&k.paste, cfg.Paste, "p", "paste")
	configureBinding(&k.edit, cfg.Edit, "enter", "edit cell")
	configureBinding(&k.autoSizeCol, cfg.AutoSize, "=", "fit column")
	configureBinding(&k.recordDetail, cfg.Detail, "i", "record detail")
	configureBinding(&k.reload, cfg.Reload, "r", "reload")
}

// configureBinding replaces binding keys and help with one configured key. A
// blank or default key keeps the built-in aliases.
func configureBinding(binding *key.Binding, raw, fallback, desc string) {
	if binding == nil {
		return
	}
	if value := strings.TrimSpace(raw); value == "" || value == fallback {
		binding.SetHelp(fallback, desc)
		return
	}
	keys, helpKey := parseBindingKeys(raw, fallback)
	binding.SetKeys(keys...)
	binding.SetHelp(helpKey, desc)
}

// parseBindingKeys normalizes one configured key into matcher keys and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = fallback
	}
	if strings.EqualFold(value, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.edit, k.copy, k.paste, k.autoSizeCol, k.recordDetail, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.nextCell, k.prevCell, k.pageUp, k.pageDown, k.firstRow, k.lastRow},
		{k.extendLeft, k.extendRight, k.extendUp, k.extendDown, k.clearRange, k.copy, k.paste},
		{k.edit, k.autoSizeCol, k.autoSizeRow, k.widenColumn, k.narrowColumn, k.growRow, k.shrinkRow},
		{k.recordDetail, k.reload, k.toggleHelp, k.quit},
	}
}
