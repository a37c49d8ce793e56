// internal/types/position.go
package types

// Position is a location on a rendering surface.
// Line is the 0-based line index.
// Col is the 0-based visual column, measured in terminal cells.
type Position struct {
	Line int
	Col  int
}
