// Package grid implements the interaction engine behind the maintenance grid:
// selection and edit state, cell accessors, navigation, clipboard interchange,
// virtualization windowing and content-based sizing.
package grid
