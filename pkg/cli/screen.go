package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/element"
	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

var locatorFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "text",
		Usage: "Match elements whose text equals `VALUE`",
	},
	&cli.StringFlag{
		Name:  "tag",
		Usage: "Match elements whose tag equals `VALUE`",
	},
	&cli.StringFlag{
		Name:  "attr",
		Usage: "Match elements with an attribute value, as `NAME=VALUE`",
	},
	&cli.StringFlag{
		Name:  "locator",
		Usage: `Locator as JSON, e.g. {"using":"attr","attribute":"focused","value":"true"}`,
	},
}

var elementCommand = &cli.Command{
	Name:  "element",
	Usage: "Print the first on-screen element matching a locator",
	Description: `Exactly one of --text, --tag, --attr or --locator is required.

Examples:
  ecp-runner element --text "Item 2"
  ecp-runner element --attr focused=true`,
	Flags:  locatorFlags,
	Action: withDevice(runElement),
}

var elementsCommand = &cli.Command{
	Name:   "elements",
	Usage:  "Print every on-screen element matching a locator",
	Flags:  locatorFlags,
	Action: withDevice(runElements),
}

var focusedCommand = &cli.Command{
	Name:   "focused",
	Usage:  "Print the focused element",
	Action: withDevice(runFocused),
}

var sourceCommand = &cli.Command{
	Name:  "source",
	Usage: "Print the app-ui document of the current screen",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the document to `FILE`",
		},
	},
	Action: withDevice(runSource),
}

// locatorFromFlags builds the locator selected by exactly one locator flag.
func locatorFromFlags(c *cli.Context) (uitree.Locator, error) {
	var locs []uitree.Locator

	if c.IsSet("text") {
		locs = append(locs, uitree.ByText(c.String("text")))
	}
	if c.IsSet("tag") {
		locs = append(locs, uitree.ByTag(c.String("tag")))
	}
	if c.IsSet("attr") {
		name, value, ok := strings.Cut(c.String("attr"), "=")
		if !ok {
			return uitree.Locator{}, core.ErrInvalidLocator.WithMessage(
				fmt.Sprintf("--attr %q must be NAME=VALUE", c.String("attr")))
		}
		locs = append(locs, uitree.ByAttr(name, value))
	}
	if c.IsSet("locator") {
		var loc uitree.Locator
		if err := json.Unmarshal([]byte(c.String("locator")), &loc); err != nil {
			return uitree.Locator{}, core.ErrInvalidLocator.WithCause(err)
		}
		locs = append(locs, loc)
	}

	if len(locs) != 1 {
		return uitree.Locator{}, core.ErrInvalidLocator.WithMessage(
			"exactly one of --text, --tag, --attr or --locator is required")
	}
	return locs[0], locs[0].Validate()
}

func printElement(s *session, el element.Element) error {
	// Elements are always structured output.
	return s.out.JSON(el)
}

func runElement(ctx context.Context, s *session, c *cli.Context) error {
	loc, err := locatorFromFlags(c)
	if err != nil {
		return err
	}
	el, err := s.driver.GetElement(ctx, loc)
	if err != nil {
		return err
	}
	return printElement(s, el)
}

func runElements(ctx context.Context, s *session, c *cli.Context) error {
	loc, err := locatorFromFlags(c)
	if err != nil {
		return err
	}
	els, err := s.driver.GetElements(ctx, loc)
	if err != nil {
		return err
	}
	return s.out.JSON(els)
}

func runFocused(ctx context.Context, s *session, c *cli.Context) error {
	el, err := s.driver.GetFocusedElement(ctx)
	if err != nil {
		return err
	}
	return printElement(s, el)
}

func runSource(ctx context.Context, s *session, c *cli.Context) error {
	src, err := s.driver.GetScreenSource(ctx)
	if err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		s.out.Line("%s", src)
		return nil
	}
	doc := core.NewSourceAttachment([]byte(src))
	if err := doc.Save(path); err != nil {
		return err
	}
	s.out.Success("Source saved to %s", doc.Path)
	return nil
}
