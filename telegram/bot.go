package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AppServices defines the interface the bot needs to interact with the main app
type AppServices interface {
	RestartApp()
	SubscriptionLinks() []string
	SubscriptionURL() string
	GetStatus(request string) map[string]interface{}
	GetLogs(limit string, level string) []string
}

var (
	adminIDs   = make(map[int64]bool)
	services   AppServices
	currentBot *bot.Bot
)

// Start initializes and starts the Telegram bot
func Start(ctx context.Context, config *Config, appServices AppServices) {
	if !config.Enabled || config.BotToken == "" {
		log.Println("Telegram bot is disabled or token is not configured.")
		return
	}

	services = appServices

	for _, id := range config.AdminUserIDs {
		adminIDs[id] = true
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(handler),
	}

	b, err := bot.New(config.BotToken, opts...)
	if err != nil {
		log.Printf("Error creating Telegram bot: %v", err)
		return
	}
	currentBot = b

	log.Println("Telegram bot started.")
	b.Start(ctx)
}

func Stop() {
	if currentBot != nil {
		currentBot.Close(context.Background())
		currentBot = nil
	}
}

// Notify pushes a message to every admin chat. Messages are dropped
// while the bot is disabled or still connecting.
func Notify(ctx context.Context, text string) {
	b := currentBot
	if b == nil {
		return
	}
	for id := range adminIDs {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: id, Text: text})
	}
}

func handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	if !isAdmin(userID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "You are not authorized to use this bot.",
		})
		return
	}

	if strings.HasPrefix(update.Message.Text, "/") {
		handleCommand(ctx, b, update.Message)
	}
}

func isAdmin(userID int64) bool {
	_, ok := adminIDs[userID]
	return ok
}

func handleCommand(ctx context.Context, b *bot.Bot, message *models.Message) {
	command, args := parseCommand(message.Text)

	switch command {
	case "/start":
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   "Welcome to the s-node admin bot. Send /help to see available commands.",
		})
	case "/help":
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text: "Available commands:\n" +
				"/sub\n" +
				"/status\n" +
				"/logs [count] [level]\n" +
				"/restart",
		})
	case "/sub":
		handleSub(ctx, b, message)
	case "/status":
		handleStatus(ctx, b, message)
	case "/logs":
		handleLogs(ctx, b, message, args)
	case "/restart":
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: message.Chat.ID, Text: "Restarting s-node..."})
		services.RestartApp()
	default:
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   "Unknown command. Send /help to see available commands.",
		})
	}
}

func handleSub(ctx context.Context, b *bot.Bot, message *models.Message) {
	links := services.SubscriptionLinks()
	if len(links) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: message.Chat.ID, Text: "The node is not provisioned yet."})
		return
	}

	text := "Node URIs:\n" + strings.Join(links, "\n") + "\n\nSubscription: " + services.SubscriptionURL()
	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: message.Chat.ID, Text: text})
}

func handleStatus(ctx context.Context, b *bot.Bot, message *models.Message) {
	status := services.GetStatus("cpu,mem,sys,engine,tunnel")

	var response strings.Builder
	response.WriteString("Node status:\n")
	if cpu, ok := status["cpu"].(float64); ok {
		response.WriteString(fmt.Sprintf("- CPU: %.1f%%\n", cpu))
	}
	if mem, ok := status["mem"].(map[string]interface{}); ok {
		current, _ := mem["current"].(uint64)
		total, _ := mem["total"].(uint64)
		response.WriteString(fmt.Sprintf("- Mem: %d/%d MB\n", current/1024/1024, total/1024/1024))
	}
	if uptime, ok := status["uptime"].(uint64); ok {
		response.WriteString(fmt.Sprintf("- Uptime: %s\n", time.Duration(uptime)*time.Second))
	}
	if loads, ok := status["loads"].([]float64); ok && len(loads) == 3 {
		response.WriteString(fmt.Sprintf("- Load: %.2f %.2f %.2f\n", loads[0], loads[1], loads[2]))
	}
	response.WriteString(processLine("engine", status["engine"]))
	response.WriteString(processLine("tunnel", status["tunnel"]))

	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: message.Chat.ID, Text: response.String()})
}

func processLine(name string, obj interface{}) string {
	info, ok := obj.(map[string]interface{})
	if !ok {
		return ""
	}
	if running, _ := info["running"].(bool); !running {
		return fmt.Sprintf("- %s: stopped\n", name)
	}
	pid, _ := info["pid"].(int)
	if mode, ok := info["mode"].(string); ok {
		return fmt.Sprintf("- %s: running (%s), PID %d\n", name, mode, pid)
	}
	return fmt.Sprintf("- %s: running, PID %d\n", name, pid)
}

func handleLogs(ctx context.Context, b *bot.Bot, message *models.Message, args []string) {
	limit := "10"
	level := "info"

	if len(args) > 0 {
		limit = args[0]
	}
	if len(args) > 1 {
		level = args[1]
	}

	logs := services.GetLogs(limit, level)
	if len(logs) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: message.Chat.ID, Text: "No logs found."})
		return
	}

	response := strings.Join(logs, "\n")
	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: message.Chat.ID, Text: "Logs:\n" + response})
}

func parseCommand(text string) (string, []string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}
