// package formatter renders export outcomes and listings for terminal output
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mixport/internal/export"
	"mixport/internal/models"
	"mixport/internal/repositories"
	"mixport/internal/shared"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	urlStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
)

// ExportResultText renders one export outcome for the terminal.
func ExportResultText(result *models.ExportResult) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render(fmt.Sprintf("Exported to %s", result.Platform.DisplayName())))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s %d track(s)\n", successStyle.Render("✓"), result.ExportedTracks))
	if result.FailedTracks > 0 {
		b.WriteString(fmt.Sprintf("  %s %d track(s) could not be exported\n", failureStyle.Render("✗"), result.FailedTracks))
	}

	b.WriteString(fmt.Sprintf("\n  %s %s\n", dimStyle.Render("Playlist ID:"), result.PlaylistID))
	if result.PlaylistURL != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", dimStyle.Render("URL:"), urlStyle.Render(result.PlaylistURL)))
	}

	return b.String()
}

// ExportResultJSON renders one export outcome as indented JSON.
func ExportResultJSON(result *models.ExportResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// BulkResultText renders a multi-platform export summary, one line per platform.
func BulkResultText(result *export.BulkExportResult) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render(fmt.Sprintf("Exported to %d platform(s)", result.TotalPlatforms)))
	b.WriteString("\n\n")

	for _, entry := range result.Results {
		name := entry.Platform.DisplayName()
		if entry.Success && entry.Result != nil {
			b.WriteString(fmt.Sprintf("  %s %s: %d exported, %d failed\n",
				successStyle.Render("✓"), name, entry.Result.ExportedTracks, entry.Result.FailedTracks))
			if entry.Result.PlaylistURL != "" {
				b.WriteString(fmt.Sprintf("    %s\n", urlStyle.Render(entry.Result.PlaylistURL)))
			}
		} else {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", failureStyle.Render("✗"), name, entry.ErrorMsg))
		}
	}

	b.WriteString(fmt.Sprintf("\n%s\n", dimStyle.Render(
		fmt.Sprintf("%d succeeded, %d failed", result.SuccessfulExports, result.FailedExports))))

	return b.String()
}

// BulkResultJSON renders a multi-platform export summary as indented JSON.
func BulkResultJSON(result *export.BulkExportResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// ConnectionsText renders which platforms are connected for a user.
func ConnectionsText(accounts []*models.Account) string {
	connected := make(map[models.Platform]bool, len(accounts))
	for _, account := range accounts {
		connected[account.Platform] = account.AccessToken != ""
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Platforms"))
	b.WriteString("\n\n")

	for _, platform := range models.Platforms() {
		if connected[platform] {
			b.WriteString(fmt.Sprintf("  %s %s\n", successStyle.Render("●"), platform.DisplayName()))
		} else {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				dimStyle.Render("○"), platform.DisplayName(), dimStyle.Render("(not connected)")))
		}
	}

	return b.String()
}

// PlaylistsText renders a user's playlists as an indexed list.
func PlaylistsText(playlists []*models.Playlist) string {
	if len(playlists) == 0 {
		return dimStyle.Render("No playlists yet.") + "\n"
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Playlists (%d)", len(playlists))))
	b.WriteString("\n\n")

	for i, playlist := range playlists {
		b.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, playlist.Name, dimStyle.Render(playlist.ID)))
	}

	return b.String()
}

// PlaylistText renders one playlist with its songs in order.
func PlaylistText(playlist *models.Playlist) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(playlist.Name))
	b.WriteString(fmt.Sprintf("\n%s\n\n", dimStyle.Render(fmt.Sprintf("%d song(s)", len(playlist.Songs)))))

	for i, song := range playlist.Songs {
		title := song.Title
		if title == "" {
			title = dimStyle.Render("(untitled)")
		}
		line := fmt.Sprintf("  %d. %s", i+1, title)
		if song.Artists != "" {
			line += dimStyle.Render(" - " + song.Artists)
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// HistoryText renders a user's export history, most recent first.
func HistoryText(records []repositories.ExportRecord) string {
	if len(records) == 0 {
		return dimStyle.Render("No exports yet.") + "\n"
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Export history (%d)", len(records))))
	b.WriteString("\n\n")

	for _, record := range records {
		when := record.CreatedAt.Format("2006-01-02 15:04")
		if record.ErrorMessage != "" {
			b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
				failureStyle.Render("✗"), when, record.Platform.DisplayName(),
				dimStyle.Render(record.ErrorMessage)))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %s %s: %d exported, %d failed\n",
			successStyle.Render("✓"), when, record.Platform.DisplayName(),
			record.ExportedTracks, record.FailedTracks))
	}

	return b.String()
}
