// Package cogs wires Discord slash commands and button components to the
// game manager. It is the external collaborator the core hands snapshots
// to: all text rendering lives here, none of the game rules do.
package cogs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"bjduel-go/games/blackjack"
	"bjduel-go/utils"
)

// Handler dispatches interactions for one game manager instance.
type Handler struct {
	Manager *blackjack.Manager
	Log     *log.Logger
}

// NewHandler creates a dispatcher around the injected manager.
func NewHandler(manager *blackjack.Manager, logger *log.Logger) *Handler {
	return &Handler{Manager: manager, Log: logger}
}

// Commands returns the slash command set to register with Discord.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "newgame", Description: "Create a new 1v1 blackjack game in this channel"},
		{Name: "join", Description: "Join the game (2 players max)"},
		{
			Name:        "bet",
			Description: "Set your bet for the coming deal",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "Chips to wager (e.g. 50, 10k, half, all)",
					Required:    true,
				},
			},
		},
		{Name: "startgame", Description: "Deal the cards once 2 players have joined"},
		{Name: "status", Description: "Show the current table"},
		{Name: "cancel", Description: "Cancel the game in this channel"},
		{Name: "rematch", Description: "Play another deal with the same players"},
		{Name: "balance", Description: "Check your chip balance"},
		{Name: "stats", Description: "View your wins, losses, draws and busts"},
		{Name: "leaderboard", Description: "Channel standings by wins"},
	}
}

// HandleCommand routes a slash command to the matching core operation.
func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	chatID, user, err := interactionIDs(i)
	if err != nil {
		h.respondError(s, i, "could not identify you or this channel")
		return
	}
	ctx := context.Background()
	name := i.ApplicationCommandData().Name

	switch name {
	case "newgame":
		h.handleNewGame(ctx, s, i, chatID)
	case "join":
		h.handleJoin(ctx, s, i, chatID, user)
	case "bet":
		h.handleBet(ctx, s, i, chatID, user)
	case "startgame":
		h.handleStart(ctx, s, i, chatID)
	case "status":
		h.handleStatus(ctx, s, i, chatID)
	case "cancel":
		h.handleCancel(ctx, s, i, chatID)
	case "rematch":
		h.handleRematch(ctx, s, i, chatID)
	case "balance":
		h.handleBalance(ctx, s, i, chatID, user)
	case "stats":
		h.handleStats(ctx, s, i, chatID, user)
	case "leaderboard":
		h.handleLeaderboard(ctx, s, i, chatID)
	}
}

// HandleComponent routes Hit/Stand button presses.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	chatID, user, err := interactionIDs(i)
	if err != nil {
		h.respondError(s, i, "could not identify you or this channel")
		return
	}
	ctx := context.Background()

	var action blackjack.Action
	switch i.MessageComponentData().CustomID {
	case utils.HitButtonID:
		action = blackjack.ActionHit
	case utils.StandButtonID:
		action = blackjack.ActionStand
	default:
		return
	}

	snap, err := h.Manager.Act(ctx, chatID, user.id, action)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	embed, components := h.renderTable(snap)
	if err := utils.UpdateComponentInteraction(s, i, embed, components); err != nil {
		h.Log.Error("failed to update game message", "chat", chatID, "error", err)
	}
}

func (h *Handler) handleNewGame(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64) {
	snap, err := h.Manager.NewGame(ctx, chatID)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	description := "A new 1v1 blackjack game is open!\nUse **/join** to take a seat (2 players max)."
	if snap.Replaced {
		description = "⚠️ The previous unfinished game was discarded.\n\n" + description
	}
	h.respond(s, i, utils.CreateBrandedEmbed("🎰 New Game", description, utils.BotColor), nil)
}

func (h *Handler) handleJoin(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64, user chatUser) {
	snap, err := h.Manager.Join(ctx, chatID, user.id, user.name)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	description := fmt.Sprintf("**%s** joined the game!", user.name)
	if snap.Phase == blackjack.PhaseBettingOpen {
		description += "\n\n2 players are in. Set bets with **/bet**, then **/startgame**."
	}
	h.respond(s, i, utils.CreateBrandedEmbed("🙋 Joined", description, utils.BotColor), nil)
}

func (h *Handler) handleBet(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64, user chatUser) {
	betStr := i.ApplicationCommandData().Options[0].StringValue()

	balance, err := h.Manager.Balance(ctx, chatID, user.id, user.name)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}
	amount, err := utils.ParseBet(betStr, balance)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	if _, err := h.Manager.SetBet(ctx, chatID, user.id, amount); err != nil {
		h.respondErr(s, i, err)
		return
	}
	h.respond(s, i, utils.CreateBrandedEmbed("💵 Bet Set",
		fmt.Sprintf("**%s** wagers **%d** %s on the next deal.", user.name, amount, utils.ChipsEmoji),
		utils.BotColor), nil)
}

func (h *Handler) handleStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64) {
	snap, err := h.Manager.StartGame(ctx, chatID)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	embed, components := h.renderTable(snap)
	h.respond(s, i, embed, components)
}

func (h *Handler) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64) {
	snap, err := h.Manager.Status(ctx, chatID)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	embed, components := h.renderTable(snap)
	h.respond(s, i, embed, components)
}

func (h *Handler) handleCancel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64) {
	if err := h.Manager.Cancel(ctx, chatID); err != nil {
		h.respondErr(s, i, err)
		return
	}
	h.respond(s, i, utils.CreateBrandedEmbed("🚫 Game Cancelled",
		"The game was cancelled. Bets already paid for a dealt hand are not refunded.",
		utils.BotColor), nil)
}

func (h *Handler) handleRematch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64) {
	_, err := h.Manager.Rematch(ctx, chatID)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}
	h.respond(s, i, utils.CreateBrandedEmbed("🔁 Rematch",
		"Same players, fresh deal. Set bets with **/bet**, then **/startgame**.",
		utils.BotColor), nil)
}

func (h *Handler) handleBalance(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64, user chatUser) {
	balance, err := h.Manager.Balance(ctx, chatID, user.id, user.name)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}
	h.respond(s, i, utils.BalanceEmbed(user.name, balance), nil)
}

func (h *Handler) handleStats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64, user chatUser) {
	entry, err := h.Manager.Stats(ctx, chatID, user.id, user.name)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}
	h.respond(s, i, utils.StatsEmbed(entry.Name, entry.Balance, entry.Wins, entry.Losses, entry.Draws, entry.Busts), nil)
}

func (h *Handler) handleLeaderboard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, chatID int64) {
	board, err := h.Manager.Leaderboard(ctx, chatID)
	if err != nil {
		h.respondErr(s, i, err)
		return
	}

	rows := make([]utils.HandLine, len(board))
	wins := make([]int, len(board))
	balances := make([]int64, len(board))
	for n, entry := range board {
		rows[n] = utils.HandLine{Name: entry.Name}
		wins[n] = entry.Wins
		balances[n] = entry.Balance
	}
	h.respond(s, i, utils.LeaderboardEmbed(rows, wins, balances), nil)
}

// renderTable builds the table embed plus the Hit/Stand row for a live
// hand, or a result embed once the deal has settled.
func (h *Handler) renderTable(snap *blackjack.Snapshot) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	lines := make([]utils.HandLine, len(snap.Players))
	byID := make(map[int64]string, len(snap.Players))
	for i, p := range snap.Players {
		lines[i] = utils.HandLine{
			Name:   p.Name,
			Cards:  p.Cards,
			Score:  p.Score,
			Bet:    p.Bet,
			Stood:  p.Stood,
			Busted: p.Busted,
		}
		byID[p.ID] = p.Name
	}

	switch snap.Phase {
	case blackjack.PhaseInProgress:
		turnName := ""
		if current := snap.CurrentPlayer(); current != nil {
			turnName = current.Name
		}
		return utils.TableEmbed("🃏 Blackjack Duel", lines, turnName, utils.BotColor), utils.HitStandRow(false)

	case blackjack.PhaseSettled:
		title, color := "🏁 Game Over", utils.BotColor
		resultLine := ""
		if snap.Outcome != nil {
			switch snap.Outcome.Kind {
			case blackjack.OutcomeWin:
				title, color = "🎉 Game Over", utils.WinColor
				resultLine = fmt.Sprintf("\n**%s** wins the pot of **%d** %s!",
					byID[snap.Outcome.WinnerID], snap.Outcome.Pot, utils.ChipsEmoji)
			case blackjack.OutcomeDraw:
				title, color = "🤝 Game Over", utils.DrawColor
				resultLine = "\nIt's a draw — bets are returned."
			case blackjack.OutcomeBothBust:
				resultLine = "\nBoth players bust 💥 — the pot is forfeited."
			}
		}
		embed := utils.TableEmbed(title, lines, "", color)
		embed.Description += resultLine + "\n\nUse **/rematch** for another deal."
		return embed, utils.HitStandRow(true)

	default:
		return utils.TableEmbed("🪑 Blackjack Lobby", lines, "", utils.BotColor), nil
	}
}

func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if err := utils.SendInteractionResponse(s, i, embed, components, false); err != nil {
		h.Log.Error("failed to respond to interaction", "error", err)
	}
}

func (h *Handler) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := utils.SendInteractionResponse(s, i, utils.ErrorEmbed(message), nil, true); err != nil {
		h.Log.Error("failed to send error response", "error", err)
	}
}

// respondErr classifies a game rejection and renders it ephemerally.
func (h *Handler) respondErr(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	if respErr := utils.SendInteractionResponse(s, i, errorEmbedFor(err), nil, true); respErr != nil {
		h.Log.Error("failed to send error response", "error", respErr)
	}
}

// errorEmbedFor picks the embed for a rejection. Players who cannot cover
// their bet get an itemized breakdown; everything else renders its message.
func errorEmbedFor(err error) *discordgo.MessageEmbed {
	var ife *blackjack.InsufficientFundsError
	if errors.As(err, &ife) {
		var b strings.Builder
		for _, sp := range ife.Short {
			fmt.Fprintf(&b, "**%s** needs **%d** %s but only has **%d**\n",
				sp.Name, sp.Need, utils.ChipsEmoji, sp.Have)
		}
		b.WriteString("\nLower the bets with **/bet** and try **/startgame** again.")
		return utils.CreateBrandedEmbed("💸 Not Enough Chips", b.String(), utils.ErrorColor)
	}
	return utils.ErrorEmbed(err.Error())
}

// chatUser is the acting Discord user reduced to what the core needs.
type chatUser struct {
	id   int64
	name string
}

// interactionIDs extracts the chat (channel) and user identity from an
// interaction, in guilds and DMs alike.
func interactionIDs(i *discordgo.InteractionCreate) (int64, chatUser, error) {
	chatID, err := strconv.ParseInt(i.ChannelID, 10, 64)
	if err != nil {
		return 0, chatUser{}, fmt.Errorf("bad channel id %q: %w", i.ChannelID, err)
	}

	var u *discordgo.User
	if i.Member != nil {
		u = i.Member.User
	} else {
		u = i.User
	}
	if u == nil {
		return 0, chatUser{}, errors.New("interaction has no user")
	}

	userID, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return 0, chatUser{}, fmt.Errorf("bad user id %q: %w", u.ID, err)
	}

	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return chatID, chatUser{id: userID, name: name}, nil
}
