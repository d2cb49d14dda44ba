package giveaway

import (
	"fmt"
	"strings"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

const cardTitle = "🎉 Giveaway!"

func mention(id string) string { return "<@" + id + ">" }

func mentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = mention(id)
	}
	return strings.Join(out, ", ")
}

// OutcomeText is the message posted when a giveaway resolves.
func OutcomeText(prize string, winners []string) string {
	if len(winners) == 0 {
		return fmt.Sprintf("🎉 Giveaway ended! Unfortunately there were no participants for %s.", prize)
	}
	return fmt.Sprintf("🎉 Giveaway ended! Winners: %s won %s!", mentions(winners), prize)
}

// RerollText is the message posted when winners are redrawn.
func RerollText(prize string, winners []string) string {
	if len(winners) == 0 {
		return fmt.Sprintf("🎉 No participants left to redraw for %s.", prize)
	}
	return fmt.Sprintf("🎉 New winners: %s won %s!", mentions(winners), prize)
}

// RenderCard builds the announcement body with the live participant count.
func RenderCard(g *dg.Giveaway, emoji string) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "**Prize:** %s\n", g.Prize)
	fmt.Fprintf(&b, "**Duration:** %d minutes\n", g.DurationMinutes)
	fmt.Fprintf(&b, "**Winners:** %d\n", g.WinnerCount)
	fmt.Fprintf(&b, "**Conditions:** %s\n", g.Conditions)
	fmt.Fprintf(&b, "**Participants:** %d\n", len(g.Participants))
	fmt.Fprintf(&b, "Ends <t:%d:R>. React with %s to enter!", g.EndsAt.Unix(), emoji)
	return Card{Title: cardTitle, Description: b.String()}
}
