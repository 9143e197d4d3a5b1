package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/joho/godotenv"

	"github.com/TenVexAI/soundscapes/internal/audio"
	"github.com/TenVexAI/soundscapes/internal/collab"
	"github.com/TenVexAI/soundscapes/internal/config"
	"github.com/TenVexAI/soundscapes/internal/obs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	appConfig := config.Load()

	log.Println("================================")
	log.Println(" SOUNDSCAPE ENGINE")
	log.Println("================================")
	log.Printf("device: %dHz, %d ch", appConfig.Device.SampleRate, appConfig.Device.Channels)
	log.Printf("tick: %dms", appConfig.Engine.TickInterval)

	sampleRate := beep.SampleRate(appConfig.Device.SampleRate)
	bufferSize := sampleRate.N(time.Duration(appConfig.Engine.TickInterval) * time.Millisecond)
	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		log.Fatalf("device init: %v", err)
	}

	playlist := collab.NewMemoryPlaylists()
	scheduler := collab.NewMemoryScheduler("default", nil)
	presets := collab.NewMemoryPresets()

	engine := audio.NewEngine(sampleRate, playlist, scheduler, presets)
	speaker.Play(engine.Output())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if appConfig.Obs.Enabled {
		obsServer := obs.NewServer(appConfig.Obs, engine.State)
		go func() {
			if err := obsServer.Start(ctx); err != nil {
				log.Printf("observability server stopped: %v", err)
			}
		}()
		log.Printf("observability: http://localhost:%d/state, /metrics, /ws/spectrum", appConfig.Obs.Port)
	} else {
		log.Println("observability server disabled")
	}

	stop := make(chan struct{})
	go engine.Run(stop)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("engine ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down...")
	close(stop)
	cancel()
	speaker.Clear()
	log.Println("goodbye")
}
