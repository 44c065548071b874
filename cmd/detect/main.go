package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/extract"
	"ai-docview-be/pkg/recommend"
	"ai-docview-be/pkg/view"

	"github.com/fatih/color"
)

// detect prints the view detection for a local file without calling any model.
func main() {
	asJSON := flag.Bool("json", false, "print the result as JSON")
	documentID := flag.String("id", "", "document id used for the cache key (defaults to the file name)")
	flag.Parse()

	if flag.NArg() != 1 {
		color.Red("usage: detect [-json] [-id ID] FILE")
		os.Exit(2)
	}
	path := flag.Arg(0)
	if *documentID == "" {
		*documentID = path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read %s: %v", path, err)
		os.Exit(1)
	}

	ctx := context.Background()
	log := logger.NewNopLogger()

	raw, err := extract.NewPlainTextExtractor().Extract(ctx, path, "", data)
	if err != nil {
		color.Red("Failed to extract: %v", err)
		os.Exit(1)
	}
	pre, err := extract.NewPreprocessor(extract.DefaultPreprocessorConfig(), log, extract.StripMarkup).Run(ctx, raw)
	if err != nil {
		color.Red("Failed to preprocess: %v", err)
		os.Exit(1)
	}

	registry := view.NewRegistry(log)
	for _, kind := range []view.Kind{view.KindQA, view.KindSystem, view.KindLearning} {
		registry.Register(kind, view.ProcessorFunc(nil), "")
	}
	detector := detect.NewDetector(log)
	report := detector.DetectReport(pre.Content)
	rec := recommend.NewRecommender(detector, registry, nil, recommend.DefaultConfig(), log).FromScores(ctx, pre.Content, report.Scores)
	cacheKey := detect.CacheKey(*documentID, report.Scores)

	if *asJSON {
		out, _ := json.MarshalIndent(map[string]interface{}{
			"recommendation": rec,
			"degraded":       report.Degraded,
			"segments":       len(pre.Segments),
			"cache_key":      cacheKey,
		}, "", "  ")
		fmt.Println(string(out))
		return
	}

	color.Cyan("Document: %s (%d segments, %d skipped)", path, len(pre.Segments), pre.Skipped)

	kinds := make([]view.Kind, 0, len(report.Scores))
	for k := range report.Scores {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return report.Scores[kinds[i]] > report.Scores[kinds[j]] })
	for _, k := range kinds {
		line := fmt.Sprintf("  %-9s %.3f", k, report.Scores[k])
		switch {
		case k == rec.Primary:
			color.Green("%s  primary", line)
		case rec.IsEnabled(k):
			color.Yellow("%s  enabled", line)
		default:
			fmt.Println(line)
		}
	}
	for _, name := range report.Degraded {
		color.Red("  degraded feature: %s", name)
	}
	fmt.Printf("Cache key: %s\n", cacheKey)
}
