package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	ecpdriver "github.com/devicelab-dev/ecp-runner/pkg/driver/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
)

var pressCommand = &cli.Command{
	Name:      "press",
	Usage:     "Send one key event per button",
	ArgsUsage: "<button>...",
	Description: `Buttons are names such as up, select or "fast forward", or raw key codes.

Examples:
  ecp-runner press home
  ecp-runner press --type keydown right`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Usage: "Key event type (keypress, keydown, keyup)",
			Value: string(ecp.KeyPress),
		},
	},
	Action: withDevice(runPress),
}

var sequenceCommand = &cli.Command{
	Name:      "sequence",
	Usage:     "Send a button sequence, in order",
	ArgsUsage: "[button...]",
	Description: `The sequence comes from the arguments (all keypress) or from a YAML file
listing one key type per entry:

  - keypress: up
  - keydown: fast forward
  - keyup: fast forward

Examples:
  ecp-runner sequence up up down select
  ecp-runner sequence --file keys.yaml`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read the sequence from a YAML `FILE`",
		},
	},
	Action: withDevice(runSequence),
}

var wordCommand = &cli.Command{
	Name:      "word",
	Usage:     "Type text one character at a time",
	ArgsUsage: "<text>",
	Action:    withDevice(runWord),
}

var buttonsCommand = &cli.Command{
	Name:  "buttons",
	Usage: "List supported button names",
	Action: func(c *cli.Context) error {
		for _, b := range ecp.Buttons() {
			fmt.Fprintln(c.App.Writer, b)
		}
		return nil
	},
}

// loadSequence reads a YAML key sequence.
func loadSequence(path string) ([]ecpdriver.KeyEntry, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided sequence file
	if err != nil {
		return nil, err
	}

	var entries []ecpdriver.KeyEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, core.ErrSequenceFormat.WithCause(fmt.Errorf("parse %s: %w", path, err))
	}
	return entries, nil
}

func printStatuses(s *session, statuses []ecpdriver.KeyStatus) error {
	if s.json {
		return s.out.JSON(statuses)
	}
	for _, st := range statuses {
		s.out.Success("%s (%d)", st.Key, st.Status)
	}
	return nil
}

func runPress(ctx context.Context, s *session, c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one button is required")
	}
	keyType, err := ecp.ParseKeyType(c.String("type"))
	if err != nil {
		return err
	}

	entries := make([]ecpdriver.KeyEntry, 0, c.NArg())
	for _, b := range c.Args().Slice() {
		entries = append(entries, ecpdriver.KeyEntry{string(keyType): b})
	}
	statuses, err := s.driver.SendButtonSequence(ctx, entries)
	if perr := printStatuses(s, statuses); perr != nil {
		return perr
	}
	return err
}

func runSequence(ctx context.Context, s *session, c *cli.Context) error {
	var entries []ecpdriver.KeyEntry
	if path := c.String("file"); path != "" {
		loaded, err := loadSequence(path)
		if err != nil {
			return err
		}
		entries = loaded
	}
	for _, b := range c.Args().Slice() {
		entries = append(entries, ecpdriver.Press(b))
	}
	if len(entries) == 0 {
		return fmt.Errorf("sequence is empty: pass buttons or --file")
	}

	statuses, err := s.driver.SendButtonSequence(ctx, entries)
	if perr := printStatuses(s, statuses); perr != nil {
		return perr
	}
	return err
}

func runWord(ctx context.Context, s *session, c *cli.Context) error {
	word := strings.Join(c.Args().Slice(), " ")
	if word == "" {
		return fmt.Errorf("text is required")
	}
	statuses, err := s.driver.SendWord(ctx, word)
	if err != nil {
		return err
	}
	if s.json {
		return s.out.JSON(statuses)
	}
	s.out.Success("Typed %q (%d keys)", word, len(statuses))
	return nil
}
