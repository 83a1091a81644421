// Command overlay is a headless display consumer. It connects to the
// server's broadcast channel as a display session, plays alerts one at a
// time to stdout and reports completions back, mirroring what the browser
// overlay does inside OBS.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/overlay"
)

func main() {
	_ = godotenv.Load()

	base := os.Getenv("SERVER_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	wsURL := strings.Replace(base, "http", "ws", 1) + "/ws"

	settle := overlay.DefaultSettleDelay
	if v := os.Getenv("OVERLAY_SETTLE_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			settle = time.Duration(ms) * time.Millisecond
		}
	}
	autoUnlock := true
	if v := os.Getenv("OVERLAY_AUTO_UNLOCK"); v != "" {
		autoUnlock = v == "1" || strings.EqualFold(v, "true")
	}

	currency := "USD"
	opts := overlay.Options{
		SettleDelay: settle,
		AutoUnlock:  autoUnlock,
		OnShow: func(e overlay.Entry) {
			a := e.Alert
			fmt.Printf("[ALERT] %s donated %.2f %s (%s, %dms) %s\n",
				a.DonorName, a.Amount, currency, a.Label, a.DurationMS, a.Message)
		},
	}

	client := overlay.NewClient(wsURL, overlay.NewSync(base), opts)
	client.OnSettings = func(s model.PlatformSettings) {
		currency = s.Currency
		fmt.Printf("[SETTINGS] %s | currency=%s | tts=%v | muted=%v\n",
			s.SiteTitle, s.Currency, s.TTSEnabled, s.MuteOverlay)
	}
	client.OnTopDonor = func(top *model.TopDonor) {
		if top == nil {
			return
		}
		fmt.Printf("[TOP] %s with %.2f today\n", top.DonorName, top.Amount)
	}
	client.OnLatest = func(d *model.Donation) {
		if d == nil {
			return
		}
		fmt.Printf("[LAST] %s donated %.2f %s\n", d.DonorName, d.Amount, currency)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := client.Sched.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("scheduler stopped: %v", err)
		}
	}()

	if !autoUnlock {
		// Browser overlays gate playback behind a user gesture; here the
		// gesture is pressing Enter.
		go func() {
			fmt.Println("press Enter to unlock playback")
			bufio.NewReader(os.Stdin).ReadString('\n')
			client.Sched.Unlock()
		}()
	}

	log.Printf("overlay connecting to %s", wsURL)
	if err := client.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
