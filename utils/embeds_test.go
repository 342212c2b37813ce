package utils

import "testing"

func TestCapitalize(t *testing.T) {
	tests := []struct{ input, want string }{
		{"it is not your turn", "It is not your turn"},
		{"überboten", "Überboten"},
		{"étrange", "Étrange"},
		{"X", "X"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := capitalize(tt.input); got != tt.want {
			t.Errorf("capitalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatHandLine(t *testing.T) {
	line := HandLine{Name: "Alice", Cards: []string{"A♠️", "K♥️"}, Score: 21, Bet: 50}
	got := formatHandLine(line)
	want := "**Alice**: A♠️ K♥️ = 21  · bet 50 " + ChipsEmoji
	if got != want {
		t.Errorf("formatHandLine = %q, want %q", got, want)
	}

	line.Busted = true
	if got := formatHandLine(line); got != "**Alice**: A♠️ K♥️ = 21 (bust 💥)  · bet 50 "+ChipsEmoji {
		t.Errorf("busted line = %q", got)
	}
}
