// bench-hibernation measures heap memory held by reconstructed brackets
// before and after their order arenas are hibernated.
//
// Usage:
//
//	go run ./scripts/bench-hibernation --entrants 65536 --brackets 16 \
//	  --profile-dir docs/profiles/hibernation
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
	"github.com/Sumatoshi-tech/bracketorder/pkg/ordertree"
)

type heapSnapshot struct {
	label     string
	heapInUse uint64
	heapSys   uint64
	took      time.Duration
}

func main() {
	entrants := flag.Int("entrants", 1<<16, "Entrants per bracket (rounded up to a power of two)")
	brackets := flag.Int("brackets", 8, "Number of brackets kept alive")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles (optional)")

	flag.Parse()

	if *entrants < 2 || *brackets < 1 {
		log.Fatal("--entrants must be at least 2 and --brackets at least 1")
	}

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	rounds := singleElimination(*entrants)
	log.Printf("bracket: %s entrants in %d rounds", humanize.Comma(int64(len(rounds[0].Matches)*2)), len(rounds))

	var snapshots []heapSnapshot

	takeSnapshot := func(label string, took time.Duration) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		snapshots = append(snapshots, heapSnapshot{label: label, heapInUse: m.HeapInuse, heapSys: m.HeapSys, took: took})
		log.Printf("  [heap] %-20s inuse=%s sys=%s", label, humanize.Bytes(m.HeapInuse), humanize.Bytes(m.HeapSys))

		if *profileDir != "" {
			writeHeapProfile(filepath.Join(*profileDir, "heap_"+label+".prof"))
		}
	}

	takeSnapshot("before", 0)

	start := time.Now()
	orders := make([]*ordertree.Tree[string], 0, *brackets)

	for range *brackets {
		rec, err := bracket.Reconstruct(rounds, bracket.Options{})
		if err != nil {
			log.Fatalf("reconstruct: %v", err)
		}

		orders = append(orders, rec.Order())
	}

	takeSnapshot("reconstructed", time.Since(start))

	start = time.Now()

	for _, order := range orders {
		if err := order.Hibernate(); err != nil {
			log.Fatalf("hibernate: %v", err)
		}
	}

	takeSnapshot("hibernated", time.Since(start))

	start = time.Now()

	for _, order := range orders {
		if err := order.Arena().Boot(); err != nil {
			log.Fatalf("boot: %v", err)
		}
	}

	takeSnapshot("booted", time.Since(start))

	for _, order := range orders {
		if err := order.Verify(); err != nil {
			log.Fatalf("verify booted order: %v", err)
		}
	}

	printSummary(snapshots)
	runtime.KeepAlive(orders)
}

// singleElimination builds a power-of-two bracket in which the first entrant
// of every match advances.
func singleElimination(entrants int) []bracket.Round {
	size := 2
	for size < entrants {
		size *= 2
	}

	field := make([]string, size)
	for i := range field {
		field[i] = fmt.Sprintf("e%d", i)
	}

	var rounds []bracket.Round

	for len(field) > 1 {
		round := bracket.Round{Name: fmt.Sprintf("Round of %d", len(field))}
		next := make([]string, 0, len(field)/2)

		for i := 0; i < len(field); i += 2 {
			round.Matches = append(round.Matches, bracket.Match{Entrants: []bracket.Entrant{
				{ID: field[i], Winner: true},
				{ID: field[i+1]},
			}})
			next = append(next, field[i])
		}

		rounds = append(rounds, round)
		field = next
	}

	return rounds
}

func writeHeapProfile(path string) {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		log.Printf("warning: create heap profile %s: %v", path, err)

		return
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("warning: write heap profile %s: %v", path, err)
	}
}

func printSummary(snapshots []heapSnapshot) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Phase", "Heap in use", "Heap sys", "Took"})

	for _, s := range snapshots {
		tbl.AppendRow(table.Row{s.label, humanize.Bytes(s.heapInUse), humanize.Bytes(s.heapSys), s.took.Round(time.Millisecond)})
	}

	fmt.Println()
	fmt.Println(tbl.Render())

	for i := 0; i+1 < len(snapshots); i++ {
		curr, next := snapshots[i], snapshots[i+1]
		if !strings.HasPrefix(next.label, "hibernated") || next.heapInUse >= curr.heapInUse {
			continue
		}

		freed := curr.heapInUse - next.heapInUse
		fmt.Printf("hibernation freed %s (%.1f%%)\n", humanize.Bytes(freed), float64(freed)/float64(curr.heapInUse)*100)
	}
}
