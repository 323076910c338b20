// package formatter renders backup and restore outcomes as deterministic
// human-readable reports, plus the append-only restore log.
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/tasks"
	"github.com/spotsnap/spotsnap/internal/ui"
)

// Formatter renders reports. Styled output uses the terminal palette; the
// plain form is stable text suitable for the restore log.
type Formatter struct {
	styled  bool
	verbose bool
}

func New(styled, verbose bool) *Formatter {
	return &Formatter{styled: styled, verbose: verbose}
}

// BackupSummary renders the outcome of a backup run.
func (f *Formatter) BackupSummary(meta snapshot.Metadata, dest string, warnings []string) string {
	var buf bytes.Buffer

	buf.WriteString(f.title(fmt.Sprintf("Backed up library of %s", displayName(meta))))
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  %d liked %s\n", meta.LikedSongs, shared.Pluralize(meta.LikedSongs, "song"))
	fmt.Fprintf(&buf, "  %d owned %s\n", meta.OwnedPlaylists, shared.Pluralize(meta.OwnedPlaylists, "playlist"))
	fmt.Fprintf(&buf, "  %d followed %s\n", meta.FollowedPlaylists, shared.Pluralize(meta.FollowedPlaylists, "playlist"))
	if meta.SkippedItems > 0 {
		fmt.Fprintf(&buf, "  %d skipped %s\n", meta.SkippedItems, shared.Pluralize(meta.SkippedItems, "item"))
	}
	fmt.Fprintf(&buf, "\nSnapshot written to %s\n", dest)

	f.writeWarnings(&buf, warnings)
	return buf.String()
}

// RestoreReport renders a reconciliation outcome grouped by target: liked
// songs first, then owned playlists, then followed playlists. Unchanged
// targets appear only in verbose mode.
func (f *Formatter) RestoreReport(report *tasks.RestoreReport) string {
	var buf bytes.Buffer

	buf.WriteString(f.title(fmt.Sprintf("Restore report (%s policy)", report.Policy)))
	buf.WriteString("\n")

	f.writeTarget(&buf, report.Liked)
	for _, target := range report.Owned {
		f.writeTarget(&buf, target)
	}
	for _, target := range report.Followed {
		f.writeTarget(&buf, target)
	}

	if !report.Changed() && len(report.Failures()) == 0 {
		buf.WriteString("Library already matches the snapshot, nothing to do.\n")
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Fprintf(&buf, "\n%s\n", f.err(fmt.Sprintf("%d %s failed:", len(failures), shared.Pluralize(len(failures), "target"))))
		for _, target := range failures {
			fmt.Fprintf(&buf, "  ! %s: %v\n", target.Name, target.Err)
		}
	}

	f.writeWarnings(&buf, report.Warnings)
	return buf.String()
}

func (f *Formatter) writeTarget(buf *bytes.Buffer, target tasks.TargetResult) {
	if target.Mode == snapshot.ChangeUnchanged && target.Err == nil && !f.verbose {
		return
	}

	header := fmt.Sprintf("%s %s", marker(target.Mode), target.Name)
	if target.LiveName != "" {
		header += " " + f.strike(target.LiveName)
	}
	switch {
	case target.Err != nil:
		header += " " + f.err("(failed)")
	case target.NewID != "":
		header += f.help(fmt.Sprintf(" (recreated as %s)", target.NewID))
	case target.Mode == snapshot.ChangeDeleted:
		header += f.help(" (removed)")
	}
	buf.WriteString(header + "\n")

	if len(target.Added) > 0 || len(target.Removed) > 0 {
		fmt.Fprintf(buf, "    %s %s  %d -> %d %s\n",
			f.ok(fmt.Sprintf("+%d", len(target.Added))),
			f.err(fmt.Sprintf("-%d", len(target.Removed))),
			target.Before, target.After,
			shared.Pluralize(target.After, "track"))
	}

	if f.verbose {
		for _, t := range target.Added {
			fmt.Fprintf(buf, "    %s %s\n", f.ok("+"), trackLine(t))
		}
		for _, t := range target.Removed {
			fmt.Fprintf(buf, "    %s %s\n", f.err("-"), trackLine(t))
		}
	}
}

func (f *Formatter) writeWarnings(buf *bytes.Buffer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	buf.WriteString("\n")
	for _, w := range warnings {
		fmt.Fprintf(buf, "%s\n", f.warn("warning: "+w))
	}
}

// marker is the one-character change classifier used in target headers.
func marker(mode snapshot.ChangeMode) string {
	switch mode {
	case snapshot.ChangeCreated:
		return "+"
	case snapshot.ChangeDeleted:
		return "-"
	case snapshot.ChangeModified:
		return "~"
	default:
		return "="
	}
}

func trackLine(t snapshot.TrackRef) string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	line := t.Name + " - " + t.Artists[0]
	for _, a := range t.Artists[1:] {
		line += ", " + a
	}
	return line
}

func displayName(meta snapshot.Metadata) string {
	if meta.DisplayName != "" {
		return meta.DisplayName
	}
	return meta.UserID
}

func (f *Formatter) title(s string) string {
	if f.styled {
		return ui.Title(s)
	}
	return s
}

func (f *Formatter) ok(s string) string {
	if f.styled {
		return ui.OK(s)
	}
	return s
}

func (f *Formatter) err(s string) string {
	if f.styled {
		return ui.Err(s)
	}
	return s
}

func (f *Formatter) warn(s string) string {
	if f.styled {
		return ui.Warn(s)
	}
	return s
}

func (f *Formatter) help(s string) string {
	if f.styled {
		return ui.Help(s)
	}
	return s
}

// strike renders the superseded live name of a renamed playlist. The plain
// form spells the rename out since ANSI strikethrough has no place in logs.
func (f *Formatter) strike(s string) string {
	if f.styled {
		return ui.Strike(s)
	}
	return fmt.Sprintf("(previously %q)", s)
}

// WriteRestoreLog appends one delimited entry to the restore log at path.
// Entries are framed as "[<RFC3339 timestamp>]" and "[/]" lines so the log
// stays parseable while holding free-form report text.
func WriteRestoreLog(path, body string, now time.Time) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open restore log: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("[%s]\n%s[/]\n\n", now.UTC().Format(time.RFC3339), ensureTrailingNewline(body))
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("failed to append to restore log: %w", err)
	}
	return nil
}

func ensureTrailingNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
