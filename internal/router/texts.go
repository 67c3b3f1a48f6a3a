package router

// Reply templates. Kept in one place so wording changes don't touch
// handler logic.
const (
	textStart = "👋 I track marketplace prices for you.\n\n" +
		"Add items with /add, and every day at your chosen time I will check " +
		"their prices and message you.\n\nSee /help for all commands."

	textHelp = "Commands:\n" +
		"/add <market> <article> [description] — track an item\n" +
		"/del <market> <article> — stop tracking an item\n" +
		"/view — list tracked items\n" +
		"/mode <name> — notification mode (%s)\n" +
		"/time H:MM [tz] — daily check time, optional timezone offset\n" +
		"/timezone <±n> — timezone offset in hours\n" +
		"/pause — suspend daily checks\n" +
		"/resume — continue daily checks\n" +
		"/status — current settings"

	textWrongAdd      = "Usage: /add <market> <article> [description]"
	textWrongDel      = "Usage: /del <market> <article>"
	textWrongMarket   = "Unknown market. Allowed: %s"
	textWrongArticle  = "Could not find that article — check the market and article id."
	textArticleAdded  = "✅ Tracking it. Current price: %d"
	textArticleRemove = "🗑 No longer tracking %s %d."
	textListHeader    = "Your tracked items:"
	textListElement   = "%s %d: %d %s"
	textListEmpty     = "You are not tracking anything yet. Add an item with /add."
	textWrongMode     = "Usage: /mode <name>. Modes: %s"
	textModeChanged   = "Notification mode updated."
	textWrongTime     = "Usage: /time H:MM [tz], e.g. /time 9:30 or /time 9:30 +3"
	textTimeChanged   = "Daily check time updated."
	textWrongTZ       = "Usage: /timezone <±n>, an hour offset between %d and %d."
	textTZChanged     = "Timezone updated."
	textPaused        = "⏸ Daily checks paused. /resume to continue."
	textResumed       = "▶️ Daily checks resumed."
	textStatus        = "🧾 Your settings:\n• Check time: %02d:%02d\n• Timezone: %+d\n• Mode: %s\n• Checks: %s"
	textStatusOn      = "on"
	textStatusOff     = "paused"
	textNotRegistered = "Send /start first."
)
