package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/service"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.InitConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("general=%s ratings=%s mediainfo=%s extensions=%v backend=%s",
		cfg.Paths.General, cfg.Paths.Ratings, cfg.Paths.MediaInfo, cfg.Images.Extensions, cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	imageByNameService := service.NewService(cfg)

	if err := imageByNameService.StartService(ctx); err != nil {
		log.Fatalf("failed to start image service: %v", err)
	}
	log.Println("image service stopped")
}
