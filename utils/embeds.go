package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// HandLine is one player's row in a table embed. The dispatcher converts
// core snapshots into these; the core itself never formats text.
type HandLine struct {
	Name   string
	Cards  []string
	Score  int
	Bet    int64
	Stood  bool
	Busted bool
}

// CreateBrandedEmbed creates a basic embed with consistent styling.
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Blackjack Duel",
		},
	}
}

// ErrorEmbed renders a rejection for the user.
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("❌ "+capitalize(message), "", ErrorColor)
}

// TableEmbed renders the table: every player's cards, score and status,
// plus whose move it is.
func TableEmbed(title string, lines []HandLine, turnName string, color int) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(formatHandLine(line))
		b.WriteString("\n")
	}
	if turnName != "" {
		fmt.Fprintf(&b, "\nIt's **%s**'s move.", turnName)
	}
	return CreateBrandedEmbed(title, b.String(), color)
}

// formatHandLine mirrors the classic status row: "Alice: A♠️ K♥️ = 21".
func formatHandLine(line HandLine) string {
	status := ""
	if line.Stood {
		status = " (stands)"
	}
	if line.Busted {
		status = " (bust 💥)"
	}
	cards := strings.Join(line.Cards, " ")
	if cards == "" {
		cards = "—"
	}
	row := fmt.Sprintf("**%s**: %s = %d%s", line.Name, cards, line.Score, status)
	if line.Bet > 0 {
		row += fmt.Sprintf("  · bet %d %s", line.Bet, ChipsEmoji)
	}
	return row
}

// BalanceEmbed renders a player's chip balance.
func BalanceEmbed(name string, balance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		fmt.Sprintf("💰 %s's Balance", name),
		fmt.Sprintf("You currently have **%d** %s chips.", balance, ChipsEmoji),
		BotColor,
	)
}

// StatsEmbed renders a player's lifetime counters for this chat.
func StatsEmbed(name string, balance int64, wins, losses, draws, busts int) *discordgo.MessageEmbed {
	embed := CreateBrandedEmbed(fmt.Sprintf("📊 %s's Stats", name), "", BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Chips", Value: fmt.Sprintf("%d %s", balance, ChipsEmoji), Inline: true},
		{Name: "Wins", Value: fmt.Sprintf("%d", wins), Inline: true},
		{Name: "Losses", Value: fmt.Sprintf("%d", losses), Inline: true},
		{Name: "Draws", Value: fmt.Sprintf("%d", draws), Inline: true},
		{Name: "Busts", Value: fmt.Sprintf("%d", busts), Inline: true},
	}
	return embed
}

// LeaderboardEmbed renders the chat's standings, already ordered by wins.
func LeaderboardEmbed(rows []HandLine, wins []int, balances []int64) *discordgo.MessageEmbed {
	var b strings.Builder
	medals := []string{"🥇", "🥈", "🥉"}
	for i, row := range rows {
		marker := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			marker = medals[i]
		}
		fmt.Fprintf(&b, "%s **%s** — %d wins, %d %s\n", marker, row.Name, wins[i], balances[i], ChipsEmoji)
	}
	if b.Len() == 0 {
		b.WriteString("Nobody has played here yet.")
	}
	return CreateBrandedEmbed("🏆 Leaderboard", b.String(), BotColor)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
