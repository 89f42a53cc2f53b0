package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luispater/bokchoy/internal/artifact"
	"github.com/luispater/bokchoy/internal/browser"
	"github.com/luispater/bokchoy/internal/browser/common"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

type captureCmd struct {
	g       *globalFlags
	timeout time.Duration
	tags    []string
}

func (c *captureCmd) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.g.loadConfig()
	if err != nil {
		return err
	}

	url := args[0]
	name := uuid.NewString()
	if len(args) > 1 {
		name = args[1]
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	b, err := browser.New(ctx, cfg, common.WithTags(c.tags...))
	if err != nil {
		return err
	}
	defer func() {
		if errQuit := b.Quit(); errQuit != nil {
			log.Debugf("Error closing browser: %v", errQuit)
		}
	}()

	if err = b.Navigate(ctx, url); err != nil {
		return err
	}

	title := ""
	if src, errSource := b.Source(ctx); errSource == nil {
		title = pageTitle(src)
	} else {
		log.Debugf("Could not read page title: %v", errSource)
	}

	saver := artifact.NewSaver()
	saver.Defaults = cfg.Artifacts
	if err = saver.SaveAll(ctx, b, name); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "captured %s with %s as %q (title: %q)\n", url, b.Kind(), name, title)
	return err
}

// pageTitle returns the text of the first <title> element in src.
func pageTitle(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			return strings.TrimSpace(sb.String())
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}

func getCmdCapture(g *globalFlags) *cobra.Command {
	c := &captureCmd{g: g}

	cmd := &cobra.Command{
		Use:   "capture <url> [name]",
		Short: "Open a page and save its screenshot, source and driver logs",
		Long: `Launch the browser selected by SELENIUM_BROWSER, open the URL and save
artifacts into SCREENSHOT_DIR, SAVED_SOURCE_DIR and SELENIUM_DRIVER_LOG_DIR.
The artifact name defaults to a random UUID.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: c.run,
	}

	cmd.Flags().DurationVar(&c.timeout, "timeout", 2*time.Minute, "overall time limit for the capture")
	cmd.Flags().StringSliceVar(&c.tags, "tag", nil, "session tag sent to a remote hub (repeatable)")

	return cmd
}
