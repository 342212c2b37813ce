package utils

// Economy defaults. Both can be overridden from the command line.
const (
	StartingChips int64 = 1000
	DefaultBet    int64 = 50
)

// Discord presentation.
const (
	BotColor   = 0x5865F2
	ErrorColor = 0xFF0000
	WinColor   = 0x2ECC71
	DrawColor  = 0xF1C40F
	ChipsEmoji = "🪙"
)
