package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"rainfall-api/pkg/client"
)

const usage = `usage: rain-cli [-addr URL] [-timeout D] <command> [args]

commands:
  predict -timestamp "2023-05-09 14:30" -temp 25.5 -humidity 80
  batch   [file]   observations as a JSON array, read from file or stdin
  health
  info
`

func main() {
	addr := flag.String("addr", "http://localhost:8080", "rainfall API base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*addr, *timeout)
	ctx := context.Background()

	var (
		out any
		err error
	)
	switch flag.Arg(0) {
	case "predict":
		out, err = predict(ctx, c, flag.Args()[1:])
	case "batch":
		out, err = batch(ctx, c, flag.Args()[1:])
	case "health":
		out, err = c.Health(ctx)
	case "info":
		out, err = c.Info(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func predict(ctx context.Context, c *client.Client, args []string) (any, error) {
	obs, err := parsePredictArgs(args)
	if err != nil {
		return nil, err
	}
	return c.Predict(ctx, obs)
}

// parsePredictArgs requires every observation flag so a forgotten one is
// reported instead of being sent as a zero value.
func parsePredictArgs(args []string) (client.Observation, error) {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ts := fs.String("timestamp", "", "local time, YYYY-MM-DD HH:MM")
	temp := fs.Float64("temp", 0, "temperature in degrees Celsius")
	humidity := fs.Float64("humidity", 0, "relative humidity in percent")
	if err := fs.Parse(args); err != nil {
		return client.Observation{}, fmt.Errorf("predict: %w", err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var missing []string
	for _, name := range []string{"timestamp", "temp", "humidity"} {
		if !set[name] {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		return client.Observation{}, fmt.Errorf("predict: missing required flags %s", strings.Join(missing, ", "))
	}

	return client.Observation{
		Timestamp:       *ts,
		TemperatureC:    *temp,
		HumidityPercent: *humidity,
	}, nil
}

func batch(ctx context.Context, c *client.Client, args []string) (any, error) {
	var r io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	obs := make([]any, len(items))
	for i, item := range items {
		obs[i] = item
	}
	return c.PredictBatch(ctx, obs)
}
