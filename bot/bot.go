package bot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rustbot/command"
	"rustbot/config"
	"rustbot/database"
	"rustbot/moving"
	"rustbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session *discordgo.Session
	Store   *database.Store
	Locks   *moving.LockRegistry
	Router  *moving.Router
	Move    *moving.Service
}

// NewBot creates and initializes a new Bot instance.
func NewBot() (*Bot, error) {
	config.LoadConfig()
	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages

	store, err := database.InitDB(viper.GetString("bot.database"))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	locks := moving.NewLockRegistry()
	router := moving.NewRouter()
	moveLog := logrus.WithField("module", "moving")
	move := moving.NewService(moving.NewSessionAdapter(dg), locks, router, store, moveLog)

	return &Bot{
		Session: dg,
		Store:   store,
		Locks:   locks,
		Router:  router,
		Move:    move,
	}, nil
}

// Start opens the bot's session and registers handlers and commands.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	utils.InitLogger(b.Session)

	for _, def := range command.GetCommandDefinitions() {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", def); err != nil {
			logrus.WithError(err).Errorf("cannot create %q command", def.Name)
		}
	}

	startScheduler(b.Session, b.Store)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	if b.Store != nil {
		b.Store.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot)) {
	bot, err := NewBot()
	if err != nil {
		logrus.Fatalf("Error initializing bot: %v", err)
	}

	if err := bot.Start(registerHandlers); err != nil {
		logrus.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
