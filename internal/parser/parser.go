package parser

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndefokin/botarmy/models"
)

// ErrNoValidData is returned when not a single input row survives validation.
// Callers must treat it as a hard stop and never train against an empty series.
var ErrNoValidData = errors.New("no valid candle data in input")

// Maximum gap between adjacent candles before it counts against quality
const maxGap = 2 * time.Hour

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// Parse converts raw delimited text into a validated, time-ordered candle
// series. Rows that fail to parse or violate the OHLC invariants are dropped,
// not fatal; only a fully empty result is an error.
func Parse(raw string) (*models.CandleSeries, error) {
	lines := strings.Split(raw, "\n")

	var candles []models.Candle
	dropped := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		candle, ok := parseRow(line)
		if !ok {
			dropped++
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, ErrNoValidData
	}

	// Sort ascending by timestamp regardless of input order
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	// Drop duplicate timestamps, keeping the first occurrence
	deduped := candles[:1]
	for _, c := range candles[1:] {
		if c.Timestamp.Equal(deduped[len(deduped)-1].Timestamp) {
			dropped++
			continue
		}
		deduped = append(deduped, c)
	}
	candles = deduped

	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("kept", len(candles)).Msg("Dropped malformed candle rows")
	}

	return &models.CandleSeries{
		Candles:      candles,
		QualityScore: qualityScore(candles),
	}, nil
}

// ParseFile reads and parses a delimited candle file
func ParseFile(path string) (*models.CandleSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candle file: %w", err)
	}
	return Parse(string(data))
}

// parseRow parses one delimited row into a candle. The accepted shapes are
// timestamp,O,H,L,C[,V] and date,time,O,H,L,C[,V].
func parseRow(line string) (models.Candle, bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || r == '\t'
	})
	if len(fields) < 5 {
		return models.Candle{}, false
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	timestamp, ok := parseTimestamp(fields[0])
	numericStart := 1
	if !ok {
		return models.Candle{}, false
	}

	// A separate time column may follow a date-only first column
	if len(fields) >= 6 {
		if withTime, merged := mergeTimeColumn(fields[0], fields[1]); merged {
			timestamp = withTime
			numericStart = 2
		}
	}

	numeric := fields[numericStart:]
	if len(numeric) < 4 || len(numeric) > 5 {
		return models.Candle{}, false
	}

	values := make([]float64, len(numeric))
	for i, f := range numeric {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.Candle{}, false
		}
		values[i] = v
	}

	candle := models.Candle{
		Timestamp: timestamp,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
	}
	if len(values) == 5 {
		candle.Volume = int64(values[4])
	}

	if !candle.Valid() {
		return models.Candle{}, false
	}

	return candle, true
}

func parseTimestamp(field string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, field); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// mergeTimeColumn combines a date-only column with an HH:MM[:SS] column
func mergeTimeColumn(dateField, timeField string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "02.01.2006 15:04:05", "02.01.2006 15:04"} {
		if ts, err := time.Parse(layout, dateField+" "+timeField); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// qualityScore rates a sorted series on a 0-100 scale. The score is degraded
// by the fraction of adjacent-candle gaps above maxGap and the fraction of
// closes more than 3 standard deviations from the mean; each axis can remove
// at most half the score.
func qualityScore(candles []models.Candle) float64 {
	score := 100.0

	if len(candles) > 1 {
		gaps := 0
		for i := 1; i < len(candles); i++ {
			if candles[i].Timestamp.Sub(candles[i-1].Timestamp) > maxGap {
				gaps++
			}
		}
		gapFraction := float64(gaps) / float64(len(candles)-1)
		score -= math.Min(50, gapFraction*100)
	}

	if len(candles) > 2 {
		mean := 0.0
		for _, c := range candles {
			mean += c.Close
		}
		mean /= float64(len(candles))

		variance := 0.0
		for _, c := range candles {
			diff := c.Close - mean
			variance += diff * diff
		}
		stdDev := math.Sqrt(variance / float64(len(candles)))

		if stdDev > 0 {
			outliers := 0
			for _, c := range candles {
				if math.Abs(c.Close-mean) > 3*stdDev {
					outliers++
				}
			}
			outlierFraction := float64(outliers) / float64(len(candles))
			score -= math.Min(50, outlierFraction*100)
		}
	}

	return math.Max(0, math.Min(100, score))
}
