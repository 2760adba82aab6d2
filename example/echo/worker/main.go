package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chathooks/internal"
	worker "chathooks/pkg/worker"

	_ "github.com/lib/pq"
)

// Echo worker: subscribes to line topics and prints each rendered
// notification line to stdout, the way an IRC or chat bot would relay it.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to app config")
	driver := flag.String("driver", "", "Override subscriber driver (amqp|nats|kafka|sql|gochannel)")
	topics := flag.String("topics", "", "Comma-separated topics; defaults to the config's rule topics")
	plain := flag.Bool("plain", false, "Strip mIRC color codes before printing")
	flag.Parse()

	log.SetPrefix("chathooks/echo-worker ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	subCfg, err := worker.LoadSubscriberConfig(*configPath)
	if err != nil {
		log.Fatalf("load subscriber config: %v", err)
	}
	if *driver != "" {
		subCfg.Driver = *driver
		subCfg.Drivers = nil
	}

	subscribeTo := splitTopics(*topics)
	if len(subscribeTo) == 0 {
		subscribeTo, err = worker.LoadTopicsFromConfig(*configPath)
		if err != nil {
			log.Fatalf("load topics: %v", err)
		}
	}
	if len(subscribeTo) == 0 {
		log.Fatal("no topics configured; pass -topics or add rules to the config")
	}

	sub, err := worker.BuildSubscriber(subCfg)
	if err != nil {
		log.Fatalf("subscriber: %v", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			log.Printf("subscriber close: %v", err)
		}
	}()

	wk := worker.New(
		worker.WithSubscriber(sub),
		worker.WithTopics(subscribeTo...),
		worker.WithConcurrency(5),
		worker.WithListener(worker.Listener{
			OnStart: func(ctx context.Context) { log.Println("worker started") },
			OnExit:  func(ctx context.Context) { log.Println("worker stopped") },
			OnError: func(ctx context.Context, d *worker.Delivery, err error) {
				log.Printf("worker error: %v", err)
			},
		}),
	)

	for _, topic := range subscribeTo {
		wk.HandleTopic(topic, func(ctx context.Context, d *worker.Delivery) error {
			text := d.Text
			if *plain && !d.Strip {
				text = internal.StripColors(text)
			}
			if driver := d.Metadata["driver"]; driver != "" {
				log.Printf("driver=%s topic=%s provider=%s", driver, d.Topic, d.Provider)
			}
			log.Printf("%s | %s", d.Topic, text)
			return nil
		})
	}

	if err := wk.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

func splitTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
