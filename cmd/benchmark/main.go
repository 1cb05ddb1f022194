package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joripage/lob-engine/config"
	"github.com/joripage/lob-engine/pkg/journal"
	"github.com/joripage/lob-engine/pkg/logging"
	"github.com/joripage/lob-engine/pkg/orderbook"
	"github.com/joripage/lob-engine/pkg/riskrule"
)

type flow struct {
	cfg   *config.BenchmarkConfig
	rules []riskrule.Rule
	rng   *rand.Rand

	// resting candidates for cancels and modifies: inserted ids that have
	// not shown up in a match yet.
	open    []string
	openIdx map[string]int
}

func newFlow(cfg *config.BenchmarkConfig, rules []riskrule.Rule, rng *rand.Rand) *flow {
	return &flow{
		cfg:     cfg,
		rules:   rules,
		rng:     rng,
		openIdx: make(map[string]int),
	}
}

func (f *flow) randomPrice() int64 {
	return f.cfg.MinPrice + f.rng.Int63n(f.cfg.MaxPrice-f.cfg.MinPrice+1)
}

func (f *flow) randomQty() int64 {
	return 1 + f.rng.Int63n(f.cfg.MaxQty)
}

func (f *flow) takeOpen() (string, bool) {
	if len(f.open) == 0 {
		return "", false
	}
	i := f.rng.Intn(len(f.open))
	id := f.open[i]
	f.forget(id)
	return id, true
}

func (f *flow) forget(id string) {
	i, ok := f.openIdx[id]
	if !ok {
		return
	}
	last := len(f.open) - 1
	f.open[i] = f.open[last]
	f.openIdx[f.open[i]] = i
	f.open = f.open[:last]
	delete(f.openIdx, id)
}

func (f *flow) nextOp() (orderbook.LimitOp, bool) {
	roll := f.rng.Float64()
	if roll < f.cfg.CancelRatio {
		if id, ok := f.takeOpen(); ok {
			return orderbook.LimitOp{Kind: orderbook.OpCancel, ID: id}, true
		}
	} else if roll < f.cfg.CancelRatio+f.cfg.ModifyRatio {
		if id, ok := f.takeOpen(); ok {
			return orderbook.LimitOp{Kind: orderbook.OpModify, ID: id, Price: f.randomPrice(), Quantity: f.randomQty()}, true
		}
	}

	price := f.randomPrice()
	qty := f.randomQty()
	isBuy := f.rng.Intn(2) == 0
	for _, rule := range f.rules {
		if err := rule.Check(isBuy, price, qty); err != nil {
			return orderbook.LimitOp{}, false
		}
	}
	id := uuid.New().String()
	op := orderbook.LimitOp{
		Kind:  orderbook.OpInsert,
		Order: orderbook.NewLimitOrder(id, isBuy, price, qty),
	}
	f.open = append(f.open, id)
	f.openIdx[id] = len(f.open) - 1
	return op, true
}

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint

	bench := cfg.Benchmark
	rules := []riskrule.Rule{
		&riskrule.LimitPriceRule{Ceil: bench.MaxPrice, Floor: bench.MinPrice},
	}
	if cfg.TickRuleFile != "" {
		tickRule, err := riskrule.NewTickSizeRuleFromFile(cfg.TickRuleFile)
		if err != nil {
			log.Fatal("load tick rule", zap.Error(err))
		}
		rules = append(rules, tickRule)
	}

	book := orderbook.NewLimitBook()
	tape := journal.New[string, int64, int64]()
	f := newFlow(bench, rules, rand.New(rand.NewSource(time.Now().UnixNano())))

	var rejected, failedBatches, processed int
	var batchSeq uint64

	start := time.Now()
	for processed < bench.NumOrders {
		n := bench.BatchSize
		if left := bench.NumOrders - processed; left < n {
			n = left
		}
		ops := make([]orderbook.LimitOp, 0, n)
		for len(ops) < n {
			op, ok := f.nextOp()
			if !ok {
				rejected++
				continue
			}
			ops = append(ops, op)
		}
		processed += len(ops)
		batchSeq++

		matches, err := book.Process(ops)
		if err != nil {
			// a candidate picked for cancel/modify can have been consumed
			// by an insert earlier in the same batch
			log.WithBatch(batchSeq).Error("batch rejected", zap.Error(err))
			failedBatches++
			continue
		}
		tape.Record(matches)
		for _, m := range matches {
			f.forget(m.MakerID)
			f.forget(m.TakerID)
		}
	}
	elapsed := time.Since(start)

	log.Info("benchmark done",
		zap.Int("ops", processed),
		zap.Uint64("batches", batchSeq),
		zap.Int("trades", tape.TradeCount()),
		zap.Int64("executed_qty", tape.ExecutedQuantity()),
		zap.Int("resting", book.OrderCount()),
		zap.Int("rejected", rejected),
		zap.Int("failed_batches", failedBatches),
		zap.Duration("elapsed", elapsed),
	)

	fmt.Println("--------")
	fmt.Printf("Total Ops       : %d\n", processed)
	fmt.Printf("Total Trades    : %d\n", tape.TradeCount())
	fmt.Printf("Executed Qty    : %d\n", tape.ExecutedQuantity())
	fmt.Printf("Resting Orders  : %d\n", book.OrderCount())
	fmt.Printf("Ops/sec         : %.0f\n", float64(processed)/elapsed.Seconds())
	fmt.Printf("Time Taken      : %s\n", elapsed)
}
