// README: Batch runner; generates billing cycles for a period and prints the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"carrental/internal/config"
	"carrental/internal/infra"
	"carrental/internal/modules/billing"
	"carrental/internal/modules/charges"
	"carrental/internal/types"
)

type options struct {
	Period      types.Period
	ContractIDs []types.ID
	Timeout     time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:], time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	db, err := infra.NewDB(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		log.WithError(err).Fatal("connect db")
	}
	defer db.Close()

	table, err := cfg.RateTable()
	if err != nil {
		log.WithError(err).Fatal("rate table")
	}
	store := billing.NewStore(db)
	svc := billing.NewService(store, charges.New(table), cfg.Billing.BatchConcurrency, log.WithField("module", "billing"))

	ids := opts.ContractIDs
	if len(ids) == 0 {
		ids, err = store.ActiveContracts(ctx)
		if err != nil {
			log.WithError(err).Fatal("list active contracts")
		}
	}

	res, err := svc.BatchGenerate(ctx, ids, opts.Period)
	if err != nil {
		log.WithError(err).Fatal("batch generate")
	}

	fmt.Printf("period %s .. %s\n", opts.Period.Start.Format(types.DateLayout), opts.Period.End.Format(types.DateLayout))
	for id, msg := range res.Errors {
		fmt.Printf("FAIL %s: %s\n", id, msg)
	}
	fmt.Printf("SUCCEEDED=%d FAILED=%d\n", res.Succeeded, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

// parseFlags defaults the period to the calendar month before now.
func parseFlags(args []string, now time.Time) (options, error) {
	fs := flag.NewFlagSet("billing-batch", flag.ContinueOnError)
	def := previousMonth(now)
	start := fs.String("period-start", envOrDefault("CARRENTAL_BATCH_PERIOD_START", def.Start.Format(types.DateLayout)), "period start (YYYY-MM-DD)")
	end := fs.String("period-end", envOrDefault("CARRENTAL_BATCH_PERIOD_END", def.End.Format(types.DateLayout)), "period end (YYYY-MM-DD, inclusive)")
	contracts := fs.String("contracts", "", "comma-separated contract ids (default: all active)")
	timeout := fs.Duration("timeout", 10*time.Minute, "total timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var opts options
	p, err := types.ParsePeriod(*start, *end)
	if err != nil {
		return options{}, err
	}
	opts.Period = p
	if !opts.Period.Valid() {
		return options{}, fmt.Errorf("period-end %s precedes period-start %s", *end, *start)
	}
	for _, id := range strings.Split(*contracts, ",") {
		if id = strings.TrimSpace(id); id != "" {
			opts.ContractIDs = append(opts.ContractIDs, types.ID(id))
		}
	}
	opts.Timeout = *timeout
	return opts, nil
}

func previousMonth(now time.Time) types.Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, -1, 0)
	return types.Period{Start: start, End: types.EndOfDay(first.AddDate(0, 0, -1))}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
