package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/sync/errgroup"

	"github.com/entrhq/anistream/pkg/scrape"
	"github.com/entrhq/anistream/pkg/service"
	"github.com/entrhq/anistream/pkg/types"
)

func runBrowse(ctx context.Context, svc *service.Service, out *console, cliConfig *CLIConfig, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("browse needs at least one URL")
	}

	opts := service.BrowseOptions{AdBlock: cliConfig.AdBlock, AutoDetect: cliConfig.AutoDetect}
	for _, url := range urls {
		ok, err := svc.Browse(ctx, url, opts)
		if err != nil {
			return err
		}
		if ok && !cliConfig.JSON {
			out.printf("%s %s\n", okStyle.Render("✓ loaded"), url)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

type extractResult struct {
	URL  string           `json:"url"`
	Info *types.AnimeInfo `json:"info"`
}

// runExtract processes the URLs concurrently and prints results in input order.
func runExtract(ctx context.Context, svc *service.Service, out *console, cliConfig *CLIConfig, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("extract needs at least one URL")
	}

	results := make([]extractResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	if cliConfig.Concurrency > 0 {
		g.SetLimit(cliConfig.Concurrency)
	}
	for i, url := range urls {
		g.Go(func() error {
			info, err := svc.ExtractInfo(gctx, url)
			if err != nil {
				return err
			}
			results[i] = extractResult{URL: url, Info: info}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cliConfig.JSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		out.printf("%s\n", data)
		return nil
	}

	for _, r := range results {
		if r.Info == nil {
			out.printf("%s %s\n", errorStyle.Render("✗"), r.URL)
			continue
		}
		out.printf("%s %s\n  %s\n", okStyle.Render("✓"), formatInfo(*r.Info), mutedStyle.Render(r.URL))
	}
	return nil
}

func runLocate(ctx context.Context, svc *service.Service, out *console, cliConfig *CLIConfig, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("locate needs exactly one URL")
	}

	video, found, err := svc.LocateVideo(ctx, args[0])
	if err != nil {
		return err
	}
	if !found {
		out.printf("%s\n", warnStyle.Render("No video found on "+args[0]))
		return nil
	}

	out.printf("%s\n", video)
	if cliConfig.Copy {
		if err := clipboard.WriteAll(video); err != nil {
			out.printf("%s %v\n", warnStyle.Render("clipboard unavailable:"), err)
		} else {
			out.printf("%s\n", mutedStyle.Render("copied to clipboard"))
		}
	}
	return nil
}

func runDownload(ctx context.Context, svc *service.Service, out *console, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("download needs a URL and a file name")
	}

	ok, err := svc.DownloadEpisode(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !ok {
		out.printf("%s\n", errorStyle.Render("Nothing was downloaded from "+args[0]))
	}
	return nil
}

func listSites() error {
	rules := scrape.DefaultRules()
	for _, host := range rules.Hosts() {
		fmt.Fprintln(os.Stdout, host)
	}
	return nil
}
