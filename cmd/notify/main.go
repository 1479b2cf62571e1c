package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"iark_app/internal/config"
	"iark_app/internal/services"
)

// notify sends a test message through the configured WhatsApp or email channel
func main() {
	phone := flag.String("phone", "", "WhatsApp number (e.g. 08123456789 or 628123456789)")
	to := flag.String("email", "", "Email address")
	msg := flag.String("msg", "Pesan uji coba dari IARK", "Message body")
	flag.Parse()

	if *phone == "" && *to == "" {
		log.Fatal("Provide -phone or -email")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	config.SetupLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *phone != "" {
		waha := services.NewWahaService(cfg.Waha)
		chatID := services.NormalizeChatID(*phone)
		log.Infof("Sending WhatsApp message to %s", chatID)
		if err := waha.SendMessage(ctx, chatID, *msg); err != nil {
			log.Fatalf("Failed to send message: %v", err)
		}
	}

	if *to != "" {
		log.Infof("Sending email to %s", *to)
		if err := services.NewEmailService(cfg.SMTP).SendEmail(ctx, *to, "Uji coba notifikasi IARK", *msg); err != nil {
			log.Fatalf("Failed to send email: %v", err)
		}
	}

	log.Info("Message sent successfully!")
}
