package main

import (
	"context"
	"flag"
	"log"
	"os"

	"BarScan/internal/di"
	"BarScan/pkg/config"
	"BarScan/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	serve := flag.Bool("serve", false, "run the HTTP server instead of a one-shot scan")
	exchange := flag.String("exchange", "", "override scan.exchange")
	pattern := flag.String("pattern", "", "override scan.pattern")
	from := flag.String("from", "", "output range start (YYYY-MM-DD, one-shot mode)")
	to := flag.String("to", "", "output range end (YYYY-MM-DD, defaults to -from)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *exchange != "" {
		cfg.Scan.Exchange = *exchange
	}
	if *pattern != "" {
		cfg.Scan.Pattern = *pattern
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer app.Close()

	if *serve {
		if err := app.Serve(); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
		return
	}

	if *from == "" {
		log.Fatal("one-shot mode needs -from (or use -serve)")
	}
	if *to == "" {
		*to = *from
	}
	rangeStart, err := util.ParseDate(*from)
	if err != nil {
		log.Fatalf("bad -from: %v", err)
	}
	rangeEnd, err := util.ParseDate(*to)
	if err != nil {
		log.Fatalf("bad -to: %v", err)
	}

	if err := app.RunOnce(context.Background(), rangeStart, rangeEnd); err != nil {
		log.Printf("scan failed: %v", err)
		os.Exit(1)
	}
}
