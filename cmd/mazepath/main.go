// Command mazepath answers a single path query against a maze file.
//
//	mazepath -maze mazes/spiral.yaml -from 0,0 -to 6,6
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gravitas-games/mazenav/internal/mazemap"
	"github.com/gravitas-games/mazenav/pkg/grid"
	"github.com/gravitas-games/mazenav/pkg/path"
)

func main() {
	mazeFile := flag.String("maze", "", "maze definition file (YAML)")
	from := flag.String("from", "0,0", "start cell as x,y")
	to := flag.String("to", "", "goal cell as x,y")
	verbose := flag.Bool("v", false, "log search statistics")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "mazepath"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(*mazeFile, *from, *to, logger); err != nil {
		logger.Error("Path query failed", "error", err)
		os.Exit(1)
	}
}

func run(mazeFile, from, to string, logger *log.Logger) error {
	if mazeFile == "" || to == "" {
		return fmt.Errorf("-maze and -to are required")
	}
	start, err := parseCoord(from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	goal, err := parseCoord(to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	data, err := os.ReadFile(mazeFile)
	if err != nil {
		return err
	}
	m, err := mazemap.ParseMaze(data)
	if err != nil {
		return err
	}

	res, err := path.Search(start, goal, m.Grid)
	if err != nil {
		return err
	}
	logger.Debug("Search finished", "maze", m.ID, "expanded", res.Expanded, "found", res.Found)

	fmt.Println(formatPath(res.Path))
	return nil
}

// parseCoord reads "x,y"
func parseCoord(s string) (grid.Coord, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return grid.Coord{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return grid.Coord{}, fmt.Errorf("bad x in %q", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return grid.Coord{}, fmt.Errorf("bad y in %q", s)
	}
	return grid.Coord{X: x, Y: y}, nil
}

func formatPath(p []grid.Coord) string {
	if len(p) == 0 {
		return "no path"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%d moves: %s", len(p)-1, strings.Join(parts, " "))
}
