// Command genmock writes a synthetic KMA typ01 observation fixture for local
// development and tests. Values follow a simple diurnal curve so the scored
// output is plausible and fully reproducible.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/typ01_day.txt -end 202408290700 -hours 6
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the typ01 fixture")
	endStr := flag.String("end", "202408290700", "last observation (YYYYMMDDHHMM, KST)")
	hours := flag.Int("hours", 6, "number of hourly observations")
	station := flag.String("station", "108", "station id")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *hours < 1 {
		return fmt.Errorf("-hours must be at least 1")
	}

	end, err := time.ParseInLocation("200601021504", *endStr, domain.KST)
	if err != nil {
		return fmt.Errorf("parse -end %q: %w", *endStr, err)
	}

	payload := render(end, *hours, *station)

	// Confirm the fixture round-trips through the real normalizer before
	// writing it anywhere.
	observations, err := domain.NormalizeTyp01(payload)
	if err != nil {
		return fmt.Errorf("generated fixture does not normalize: %w", err)
	}
	if len(observations) != *hours {
		return fmt.Errorf("generated fixture normalized to %d observations, want %d", len(observations), *hours)
	}

	if err := os.WriteFile(*out, []byte(payload), 0o644); err != nil {
		return err
	}

	log.Printf("wrote %d observations ending %s to %s", *hours, end.Format("2006-01-02 15:04"), *out)
	return nil
}

// render produces typ01 text oldest-first, the order KMA serves it in.
func render(end time.Time, hours int, station string) string {
	var b strings.Builder
	b.WriteString("#START7777\n")
	b.WriteString("# YYMMDDHHMI STN  WS    TA    HM    RN\n")

	for i := hours - 1; i >= 0; i-- {
		ts := end.Add(-time.Duration(i) * time.Hour)
		h := float64(ts.Hour())

		// Diurnal curve: coolest near 05:00, warmest near 15:00.
		temp := 18.0 + 6.0*math.Sin((h-9.0)*math.Pi/12.0)
		wind := 1.5 + 1.2*math.Abs(math.Sin(h*math.Pi/8.0))
		humidity := 65.0 - 15.0*math.Sin((h-9.0)*math.Pi/12.0)
		rain := 0.0
		if ts.Hour()%7 == 0 {
			rain = 0.5
		}

		fmt.Fprintf(&b, "%s %s  %.1f  %.1f  %.1f  %.1f\n",
			ts.Format("200601021504"), station, wind, temp, humidity, rain)
	}

	b.WriteString("#7777END\n")
	return b.String()
}
