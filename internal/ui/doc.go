// package ui implements terminal presentation helpers: the shared
// [lipgloss] palette and the typed confirmation prompt guarding
// destructive restores.
package ui
