// Package icon provides a flexible multi-variant rendering engine for UI symbols and feedback indicators.
package icon

// Icon identifies a UI symbol in the global registry.
type Icon int

const (
	Success Icon = iota + 1
	Fail
	Progress
	Question
	Lock
	Unlock
)

// icons maps every Icon identifier to its per-variant representations.
var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "[ok]",
		kaomoji: "(＾▽＾)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "[!]",
		kaomoji: "(╥﹏╥)",
		squares: "🟥",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・・;)",
		squares: "🟨",
	},
	Question: {
		emoji:   "❓",
		nerd:    "",
		plain:   "[?]",
		kaomoji: "(・・?)",
		squares: "🟦",
	},
	Lock: {
		emoji:   "🔒",
		nerd:    "",
		plain:   "[x]",
		kaomoji: "(>_<)",
		squares: "⬛",
	},
	Unlock: {
		emoji:   "🔓",
		nerd:    "",
		plain:   "[ ]",
		kaomoji: "(^-^)",
		squares: "⬜",
	},
}
