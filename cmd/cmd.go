// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Existing Spotify access token; skips the browser login",
			Sources: cli.EnvVars(shared.EnvAccessToken),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error); overrides log.level",
		},
	}
}

func kindFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Media kind: album, artist, playlist or track (defaults to player.default_kind)",
	}
}

func deviceFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "Target device ID (defaults to player.device_id, then the active device)",
	}
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand writes the config file and prepares the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the template and initialize the tag library database",
		Action: r.Setup,
	}
}

// authCommand runs the browser login
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in to Spotify in the browser and print the resulting token summary",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Exercise the refresh token right after logging in",
			},
			&cli.BoolFlag{
				Name:  "url",
				Usage: "Only print the authorization URL",
			},
		},
		Action: r.Auth,
	}
}

// playCommand starts playback
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start playback of an album, artist, playlist or track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", UsageText: "Spotify ID, URI or open.spotify.com link"},
		},
		Flags: []cli.Flag{
			kindFlag(),
			deviceFlag(),
			&cli.StringFlag{
				Name:  "uri",
				Usage: "Spotify URI to play instead of an ID",
			},
		},
		Action: r.Play,
	}
}

// infoCommand fetches metadata
func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show metadata for an album, artist, playlist or track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", UsageText: "Spotify ID, URI or open.spotify.com link"},
		},
		Flags:  []cli.Flag{kindFlag(), jsonFlag()},
		Action: r.Info,
	}
}

// uriCommand converts between IDs and URIs without calling the API
func uriCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "uri",
		Usage: "Convert an ID to a Spotify URI, or a URI back to its ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Spotify ID"},
			kindFlag(),
			&cli.StringFlag{Name: "uri", Usage: "Spotify URI"},
		},
		Action: r.URI,
	}
}

// devicesCommand lists playback devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "devices",
		Usage:  "List available Spotify Connect devices",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Devices,
	}
}

// scanCommand runs the tag reader loop
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Play whatever tag is presented to the reader",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Reader device or file emitting one tag per line (- for stdin)",
				Value:   "-",
			},
			kindFlag(),
			deviceFlag(),
		},
		Action: r.Scan,
	}
}

// writeCommand programs a tag
func writeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "write",
		Usage: "Write a Spotify URI to the next tag presented to the writer",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "payload", UsageText: "Spotify ID, URI or link; prompted for when omitted"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Writer device or file accepting one payload per line (- for stdout)",
				Value:   "-",
			},
			kindFlag(),
			&cli.StringFlag{
				Name:  "tag",
				Usage: "Hardware tag ID; also records the binding in the tag library",
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Label for the library entry",
			},
		},
		Action: r.Write,
	}
}

// tagsCommand manages the tag library
func tagsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Manage the tag library",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List tag bindings",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.TagsList,
			},
			{
				Name:  "add",
				Usage: "Bind a hardware tag ID to a Spotify ID, URI or link",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "tag"},
					&cli.StringArg{Name: "payload"},
				},
				Flags: []cli.Flag{
					kindFlag(),
					&cli.StringFlag{Name: "label", Usage: "Display label"},
				},
				Action: r.TagsAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a tag binding",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "tag"},
				},
				Action: r.TagsRemove,
			},
			{
				Name:  "history",
				Usage: "Show recent scans",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tag", Usage: "Only scans of this hardware tag ID"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of scans", Value: 20},
				},
				Action: r.TagsHistory,
			},
			{
				Name:  "export",
				Usage: "Write the library as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (- for stdout)", Value: "-"},
				},
				Action: r.TagsExport,
			},
			{
				Name:  "import",
				Usage: "Load bindings from a CSV export",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.TagsImport,
			},
		},
	}
}

// menuCommand launches the TUI
func menuCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "menu",
		Aliases: []string{"tui"},
		Usage:   "Browse the tag library and play entries interactively",
		Flags:   []cli.Flag{deviceFlag()},
		Action:  r.Menu,
	}
}
