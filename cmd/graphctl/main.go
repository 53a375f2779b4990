// Command graphctl is the operator CLI for the road-network storage engine:
// import an OSM extract into a fresh graph directory, inspect or compact an
// existing one, verify its invariants, or serve read-only HTTP introspection
// over it. Mirrors the teacher's cmd/preprocess and cmd/server in style
// (stdlib flag, log.Printf/log.Fatalf, time.Since timing) but collapsed into
// one binary with subcommands rather than one binary per stage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/azybler/roadgraph/pkg/flags"
	"github.com/azybler/roadgraph/pkg/graph"
	"github.com/azybler/roadgraph/pkg/httpapi"
	"github.com/azybler/roadgraph/pkg/osmimport"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "optimize":
		err = runOptimize(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("graphctl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: graphctl <command> [flags]

Commands:
  import   --osm file.pbf --out dir/ [--bbox minLat,minLng,maxLat,maxLng]
  stats    --dir dir/
  optimize --dir dir/
  verify   --dir dir/
  serve    --dir dir/ [--addr :8080]`)
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	osmPath := fs.String("osm", "", "Path to .osm.pbf extract")
	out := fs.String("out", "", "Output graph directory")
	bbox := fs.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng")
	fs.Parse(args)

	if *osmPath == "" || *out == "" {
		return fmt.Errorf("import: --osm and --out are required")
	}

	var opts []osmimport.Option
	if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			return fmt.Errorf("import: invalid --bbox format: %w", err)
		}
		opts = append(opts, osmimport.WithBBox(osmimport.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}))
		log.Printf("graphctl: using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	start := time.Now()

	f, err := os.Open(*osmPath)
	if err != nil {
		return fmt.Errorf("import: opening %s: %w", *osmPath, err)
	}
	defer f.Close()

	g := graph.New(0, graph.WithFlagsCodec(flags.StreetCodec{}))
	log.Printf("graphctl: importing %s...", *osmPath)
	stats, err := osmimport.Import(context.Background(), f, g, opts...)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	log.Printf("graphctl: imported %d nodes, %d edges in %s", stats.NodesImported, stats.EdgesInserted, time.Since(start).Round(time.Millisecond))

	if err := g.Flush(*out); err != nil {
		return fmt.Errorf("import: flushing to %s: %w", *out, err)
	}
	log.Printf("graphctl: wrote %s", *out)
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dir := fs.String("dir", "", "Graph directory")
	fs.Parse(args)
	if *dir == "" {
		return fmt.Errorf("stats: --dir is required")
	}

	g, loaded, err := graph.Open(*dir, 0, graph.WithFlagsCodec(flags.StreetCodec{}))
	if err != nil {
		return fmt.Errorf("stats: opening %s: %w", *dir, err)
	}
	if !loaded {
		return fmt.Errorf("stats: %s holds no saved graph", *dir)
	}

	b := g.Bounds()
	var numEdges int
	for it := g.AllEdges(); it.Next(); {
		numEdges++
	}

	fmt.Printf("nodes:    %d\n", g.NumNodes())
	fmt.Printf("edges:    %d\n", numEdges)
	fmt.Printf("segments: %d\n", g.SegmentCount())
	fmt.Printf("bounds:   lat [%.6f, %.6f], lon [%.6f, %.6f]\n", b.Min[1], b.Max[1], b.Min[0], b.Max[0])
	return nil
}

func runOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	dir := fs.String("dir", "", "Graph directory")
	fs.Parse(args)
	if *dir == "" {
		return fmt.Errorf("optimize: --dir is required")
	}

	g, loaded, err := graph.Open(*dir, 0, graph.WithFlagsCodec(flags.StreetCodec{}))
	if err != nil {
		return fmt.Errorf("optimize: opening %s: %w", *dir, err)
	}
	if !loaded {
		return fmt.Errorf("optimize: %s holds no saved graph", *dir)
	}

	before := g.NumNodes()
	start := time.Now()
	if err := g.Optimize(); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	log.Printf("graphctl: compacted %d -> %d nodes in %s", before, g.NumNodes(), time.Since(start).Round(time.Millisecond))

	if err := g.Flush(""); err != nil {
		return fmt.Errorf("optimize: flushing %s: %w", *dir, err)
	}
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	dir := fs.String("dir", "", "Graph directory")
	fs.Parse(args)
	if *dir == "" {
		return fmt.Errorf("verify: --dir is required")
	}

	g, loaded, err := graph.Open(*dir, 0, graph.WithFlagsCodec(flags.StreetCodec{}))
	if err != nil {
		return fmt.Errorf("verify: opening %s: %w", *dir, err)
	}
	if !loaded {
		return fmt.Errorf("verify: %s holds no saved graph", *dir)
	}

	var violations int

	// Invariant 2: nodeA <= nodeB on every stored record.
	var numEdges int
	for it := g.AllEdges(); it.Next(); {
		numEdges++
		if it.NodeA() > it.NodeB() {
			violations++
			log.Printf("verify: edge record violates nodeA<=nodeB: %d > %d", it.NodeA(), it.NodeB())
		}
	}

	// Invariant 5: bounds contain every live node.
	b := g.Bounds()
	for i := uint32(0); i < g.NumNodes(); i++ {
		if g.IsDeleted(i) {
			continue
		}
		lat, lon := g.NodeLat(i), g.NodeLon(i)
		if lat < b.Min[1] || lat > b.Max[1] || lon < b.Min[0] || lon > b.Max[0] {
			violations++
			log.Printf("verify: node %d (%.6f, %.6f) falls outside bounds", i, lat, lon)
		}
	}

	// Invariant 1: every adjacency list walks cleanly to completion (a
	// corrupt or cyclic link chain surfaces as it.Err() != nil).
	var numLive int
	for i := uint32(0); i < g.NumNodes(); i++ {
		if g.IsDeleted(i) {
			continue
		}
		numLive++
		it := g.Edges(i)
		for it.Next() {
		}
		if err := it.Err(); err != nil {
			violations++
			log.Printf("verify: node %d adjacency walk: %v", i, err)
		}
	}

	log.Printf("graphctl: verified %d live nodes, %d edge records, %d violation(s)", numLive, numEdges, violations)
	if violations > 0 {
		return fmt.Errorf("verify: %d invariant violation(s) found", violations)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dir := fs.String("dir", "", "Graph directory")
	addr := fs.String("addr", ":8080", "HTTP listen address")
	corsOrigin := fs.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	fs.Parse(args)
	if *dir == "" {
		return fmt.Errorf("serve: --dir is required")
	}

	g, loaded, err := graph.Open(*dir, 0, graph.WithFlagsCodec(flags.StreetCodec{}))
	if err != nil {
		return fmt.Errorf("serve: opening %s: %w", *dir, err)
	}
	if !loaded {
		return fmt.Errorf("serve: %s holds no saved graph", *dir)
	}
	log.Printf("graphctl: loaded %d nodes from %s", g.NumNodes(), *dir)

	cfg := httpapi.DefaultConfig(*addr)
	cfg.CORSOrigin = *corsOrigin
	h := httpapi.NewHandlers(g, flags.StreetCodec{})
	srv := httpapi.NewServer(cfg, h)

	return httpapi.ListenAndServe(srv)
}
