package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const (
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	healthBody        = "Bot is running 🟢"
	maxUpdateBytes    = 1 << 20
	shutdownTimeout   = 30 * time.Second
)

// Router returns the HTTP surface: health checks and the webhook endpoint.
// Updates are handled asynchronously; Telegram gets its 200 immediately.
func (b *Bot) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	health := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(healthBody))
	}
	r.Get("/", health)
	r.Get("/health", health)

	r.Post(b.webhookPath(), func(w http.ResponseWriter, r *http.Request) {
		if b.config.WebhookSecret != "" {
			got := r.Header.Get(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(b.config.WebhookSecret)) != 1 {
				log.WithField("remote_addr", r.RemoteAddr).Warn("Rejected webhook call with bad secret token")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
			log.WithError(err).Warn("Failed to decode webhook update")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		b.dispatch(ctx, update)
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func (b *Bot) webhookPath() string {
	if b.config.WebhookPath == "" {
		return "/webhook"
	}
	return b.config.WebhookPath
}

// Run receives updates until ctx is cancelled, through the webhook when one
// is configured and long polling otherwise.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	if _, err := api.Request(tgbotapi.NewSetMyCommands(b.BotCommands()...)); err != nil {
		log.WithError(err).Warn("Failed to register bot commands")
	}

	if b.config.WebhookURL != "" {
		return b.runWebhook(ctx, api)
	}
	return b.runPolling(ctx, api)
}

func (b *Bot) runPolling(ctx context.Context, api *tgbotapi.BotAPI) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	log.WithField("username", api.Self.UserName).Info("Bot started in polling mode")

	// The health endpoint stays available for container health checks
	srv := b.startServer(ctx)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			log.Info("Polling stopped")
			return b.stopServer(srv)
		case update, ok := <-updates:
			if !ok {
				return b.stopServer(srv)
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) runWebhook(ctx context.Context, api *tgbotapi.BotAPI) error {
	params := tgbotapi.Params{}
	params["url"] = b.config.WebhookURL + b.webhookPath()
	params.AddNonEmpty("secret_token", b.config.WebhookSecret)
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	log.WithFields(log.Fields{
		"username": api.Self.UserName,
		"url":      params["url"],
	}).Info("Bot started in webhook mode")

	srv := b.startServer(ctx)
	if srv == nil {
		return errors.New("webhook mode requires a listen address")
	}

	<-ctx.Done()
	return b.stopServer(srv)
}

func (b *Bot) startServer(ctx context.Context) *http.Server {
	if b.config.ListenAddr == "" {
		return nil
	}

	srv := &http.Server{
		Addr:         b.config.ListenAddr,
		Handler:      b.Router(ctx),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
		}
	}()
	return srv
}

func (b *Bot) stopServer(srv *http.Server) error {
	if srv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
