package telegram

// Config is loaded from telegram_config.json next to the binary.
type Config struct {
	BotToken     string  `json:"bot_token"`
	AdminUserIDs []int64 `json:"admin_user_ids"`
	Enabled      bool    `json:"enabled"`
}
