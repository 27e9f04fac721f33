package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/KirkDiggler/charsheet/internal/dice"
	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/services/tabs"
)

// newCLIApp creates the CLI application with all commands
func newCLIApp(m *tabs.Manager) *cli.App {
	app := &cli.App{
		Name:  "charsheet",
		Usage: "Edit, store and roll for RPG character sheets",
		Commands: []*cli.Command{
			listCmd(m),
			tabsCmd(m),
			openCmd(m),
			closeCmd(m),
			showCmd(m),
			createCmd(m),
			editCmd(m),
			rollCmd(m),
			deleteCmd(m),
			importCmd(m),
			portraitCmd(m),
		},
	}
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// tabView is the JSON shape of one open tab
type tabView struct {
	SlotID      string `json:"slot_id"`
	CharacterID string `json:"character_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Status      string `json:"status"`
	LastError   string `json:"last_error,omitempty"`
}

func viewOf(snap tabs.Snapshot) tabView {
	v := tabView{SlotID: snap.SlotID, Status: snap.Status.String()}
	if snap.Character != nil {
		v.CharacterID = snap.Character.ID()
		v.Name = snap.Character.Name()
	}
	if snap.LastError != nil {
		v.LastError = snap.LastError.Error()
	}
	return v
}

func listCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored characters",
		Action: func(c *cli.Context) error {
			recs, err := m.List(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, recs)
		},
	}
}

func tabsCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:  "tabs",
		Usage: "Show the remembered open tabs",
		Action: func(c *cli.Context) error {
			snaps := m.Restore(c.Context)
			views := make([]tabView, 0, len(snaps))
			for _, snap := range snaps {
				views = append(views, viewOf(snap))
			}
			return outputJSON(c.App.Writer, views)
		},
	}
}

func openCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a character in a remembered tab",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			if slotID, ok := findTab(m.Restore(c.Context), id); ok {
				snap, err := m.Snapshot(slotID)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, viewOf(snap))
			}

			snap, err := m.Open(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, viewOf(snap))
		},
	}
}

func closeCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "Forget the tab of a character",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			slotID, ok := findTab(m.Restore(c.Context), id)
			if !ok {
				return outputError(dnderr.NotFoundf("character '%s' is not open", id))
			}
			if err := m.Close(c.Context, slotID); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]string{"closed": id})
		},
	}
}

func showCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one character",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			return withTab(c.Context, m, id, func(slotID string) error {
				snap, err := m.Snapshot(slotID)
				if err != nil {
					return err
				}
				return outputJSON(c.App.Writer, snap.Character.Record())
			})
		},
	}
}

func createCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a character",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Character name"},
		}, attributeFlags()...),
		Action: func(c *cli.Context) error {
			draft, err := character.NewDraft(m.OwnerID(), c.String("name"))
			if err != nil {
				return outputError(err)
			}
			if patch := attributePatch(c); len(patch) > 0 {
				if err := draft.ApplyAttributes(patch); err != nil {
					return outputError(err)
				}
				// new characters start at full health
				if err := draft.SetCurrentHealth(draft.MaxHealth()); err != nil {
					return outputError(err)
				}
			}

			m.Restore(c.Context)
			snap, err := m.OpenDraft(c.Context, draft)
			if err != nil {
				return outputError(err)
			}
			return saveAndPrint(c, m, snap.SlotID, true)
		},
	}
}

func editCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a character",
		ArgsUsage: "<id>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
			&cli.IntFlag{Name: "health", Usage: "Current health"},
			&cli.IntFlag{Name: "stress", Usage: "Current stress"},
			&cli.IntFlag{Name: "damage", Usage: "Health to remove (negative heals)"},
			&cli.StringSliceFlag{Name: "add-state", Usage: "State to add"},
			&cli.StringSliceFlag{Name: "remove-state", Usage: "State to remove"},
			&cli.StringSliceFlag{Name: "add-effect", Usage: "Effect to add"},
			&cli.StringSliceFlag{Name: "remove-effect", Usage: "Effect to remove"},
		}, attributeFlags()...),
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			return withTab(c.Context, m, id, func(slotID string) error {
				if _, err := m.Edit(slotID, applyEdits(c)); err != nil {
					return err
				}
				return saveAndPrint(c, m, slotID, false)
			})
		},
	}
}

func rollCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "roll",
		Usage:     "Roll a d20 against one attribute",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "attribute", Aliases: []string{"a"}, Required: true, Usage: "strength, agility, perception or willpower"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			attr, err := character.ParseAttributeName(c.String("attribute"))
			if err != nil {
				return outputError(err)
			}
			return withTab(c.Context, m, id, func(slotID string) error {
				outcome, err := m.Roll(c.Context, slotID, attr)
				if err != nil {
					return err
				}
				return outputJSON(c.App.Writer, struct {
					Outcome      dice.Outcome `json:"outcome"`
					Announcement string       `json:"announcement"`
				}{outcome, outcome.Announcement()})
			})
		},
	}
}

func deleteCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a character",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			slotID, ok := findTab(m.Restore(c.Context), id)
			if !ok {
				snap, err := m.Open(c.Context, id)
				if err != nil {
					return outputError(err)
				}
				slotID = snap.SlotID
			}
			if err := m.Delete(c.Context, slotID); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]string{"deleted": id})
		},
	}
}

func importCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Copy a shared character sheet (JSON file) into a new character",
		ArgsUsage: "<file.json>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return outputError(dnderr.Wrapf(err, "failed to read %s", path))
			}
			var shared character.Record
			if err := json.Unmarshal(data, &shared); err != nil {
				return outputError(dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "shared sheet is not valid JSON"))
			}

			m.Restore(c.Context)
			snap, err := m.OpenImport(c.Context, &shared)
			if err != nil {
				return outputError(err)
			}
			return saveAndPrint(c, m, snap.SlotID, true)
		},
	}
}

func portraitCmd(m *tabs.Manager) *cli.Command {
	return &cli.Command{
		Name:      "portrait",
		Usage:     "Set, clear or export a character portrait",
		ArgsUsage: "<id> [image-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content-type", Usage: "Declared image type, e.g. image/png"},
			&cli.BoolFlag{Name: "clear", Usage: "Remove the portrait"},
			&cli.StringFlag{Name: "out", Usage: "Write the current portrait to this file"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "character ID")
			if err != nil {
				return err
			}
			file := c.Args().Get(1)

			return withTab(c.Context, m, id, func(slotID string) error {
				switch {
				case c.Bool("clear"):
					if _, err := m.ClearPortrait(c.Context, slotID); err != nil {
						return err
					}
				case file != "":
					data, err := os.ReadFile(file)
					if err != nil {
						return dnderr.Wrapf(err, "failed to read %s", file)
					}
					if _, err := m.AttachPortrait(c.Context, slotID, c.String("content-type"), data); err != nil {
						return err
					}
				case c.String("out") != "":
					img, err := m.Portrait(c.Context, slotID)
					if err != nil {
						return err
					}
					if err := os.WriteFile(c.String("out"), img.Data, 0o644); err != nil {
						return dnderr.Wrapf(err, "failed to write %s", c.String("out"))
					}
					return outputJSON(c.App.Writer, map[string]any{
						"portrait_ref": img.Ref,
						"content_type": img.ContentType,
						"bytes":        len(img.Data),
					})
				default:
					return dnderr.InvalidArgument("give an image file, --clear or --out")
				}
				return saveAndPrint(c, m, slotID, false)
			})
		},
	}
}

// withTab runs fn against the character's tab. A tab opened only for this
// command is closed again so the remembered tabs stay as they were.
func withTab(ctx context.Context, m *tabs.Manager, characterID string, fn func(slotID string) error) error {
	slotID, ok := findTab(m.Restore(ctx), characterID)
	transient := !ok
	if transient {
		snap, err := m.Open(ctx, characterID)
		if err != nil {
			return outputError(err)
		}
		slotID = snap.SlotID
	}

	err := fn(slotID)
	if transient {
		if closeErr := m.Close(ctx, slotID); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return outputError(err)
	}
	return nil
}

// saveAndPrint flushes the tab and prints the stored character. Drafts opened
// only for this command are closed afterwards.
func saveAndPrint(c *cli.Context, m *tabs.Manager, slotID string, closeAfter bool) error {
	if err := m.Flush(c.Context, slotID); err != nil {
		return outputError(err)
	}
	snap, err := m.Snapshot(slotID)
	if err != nil {
		return outputError(err)
	}
	if closeAfter {
		if err := m.Close(c.Context, slotID); err != nil {
			return outputError(err)
		}
	}
	return outputJSON(c.App.Writer, snap.Character.Record())
}

func findTab(snaps []tabs.Snapshot, characterID string) (string, bool) {
	for _, snap := range snaps {
		if snap.Character != nil && snap.Character.ID() == characterID {
			return snap.SlotID, true
		}
	}
	return "", false
}

func attributeFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(character.AllAttributes))
	for _, attr := range character.AllAttributes {
		flags = append(flags, &cli.StringFlag{
			Name:  string(attr),
			Usage: fmt.Sprintf("%s score (%d-%d)", attr, character.MinScore, character.MaxScore),
		})
	}
	return flags
}

func attributePatch(c *cli.Context) character.AttributePatch {
	patch := character.AttributePatch{}
	for _, attr := range character.AllAttributes {
		if c.IsSet(string(attr)) {
			patch[attr] = c.String(string(attr))
		}
	}
	return patch
}

// applyEdits turns the edit flags into one edit. Attributes go first so health
// and stress are checked against the new ceilings.
func applyEdits(c *cli.Context) func(*character.Character) error {
	return func(ch *character.Character) error {
		if c.IsSet("name") {
			if err := ch.Rename(c.String("name")); err != nil {
				return err
			}
		}
		if patch := attributePatch(c); len(patch) > 0 {
			if err := ch.ApplyAttributes(patch); err != nil {
				return err
			}
		}
		if c.IsSet("health") {
			if err := ch.SetCurrentHealth(c.Int("health")); err != nil {
				return err
			}
		}
		if c.IsSet("damage") {
			if err := ch.AdjustCurrentHealth(-c.Int("damage")); err != nil {
				return err
			}
		}
		if c.IsSet("stress") {
			if err := ch.SetCurrentStress(c.Int("stress")); err != nil {
				return err
			}
		}
		for _, state := range c.StringSlice("add-state") {
			if err := ch.AddState(state); err != nil {
				return err
			}
		}
		for _, state := range c.StringSlice("remove-state") {
			ch.RemoveState(state)
		}
		for _, effect := range c.StringSlice("add-effect") {
			if err := ch.AddEffect(effect); err != nil {
				return err
			}
		}
		for _, effect := range c.StringSlice("remove-effect") {
			ch.RemoveEffect(effect)
		}
		return nil
	}
}

func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() == 0 || c.Args().First() == "" {
		return "", outputError(dnderr.InvalidArgumentf("%s is required", what))
	}
	return c.Args().First(), nil
}

// outputJSON writes v as indented JSON
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats an error for the CLI
func outputError(err error) error {
	if cliErr, ok := err.(cli.ExitCoder); ok {
		return cliErr
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", dnderr.GetCode(err), err.Error()), 1)
}
