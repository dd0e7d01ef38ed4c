// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes the config template and prepares the credential store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the credential store",
		Action: r.Setup,
	}
}

// authCommand handles the backend session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the curation backend session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in through the browser and store the returned tokens",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the login URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the login callback",
						Value: loginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "callback",
				Usage: "Store the tokens from a pasted callback URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Action: r.AuthCallback,
			},
			{
				Name:   "logout",
				Usage:  "Forget every stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show which tokens are stored",
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new session",
				Action: r.AuthRefresh,
			},
		},
	}
}

// playerCommand issues one-shot player commands
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Control the active Spotify player",
		Commands: []*cli.Command{
			{
				Name:  "now",
				Usage: "Show the current track",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerNow,
			},
			{
				Name:   "play",
				Usage:  "Resume playback",
				Action: r.PlayerPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.PlayerPause,
			},
			{
				Name:    "toggle",
				Aliases: []string{"tp"},
				Usage:   "Toggle play/pause",
				Action:  r.PlayerToggle,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.PlayerNext,
			},
			{
				Name:    "previous",
				Aliases: []string{"prev"},
				Usage:   "Skip to the previous track",
				Action:  r.PlayerPrevious,
			},
			{
				Name:  "seek",
				Usage: "Seek to a percentage of the track (0-100)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "percent"},
				},
				Action: r.PlayerSeek,
			},
			{
				Name:   "rewind",
				Usage:  "Rewind by the configured seek step",
				Action: r.PlayerRewind,
			},
			{
				Name:    "forward",
				Aliases: []string{"ff"},
				Usage:   "Fast-forward by the configured seek step",
				Action:  r.PlayerForward,
			},
		},
	}
}

// curationCommand handles curation blocks and track filing
func curationCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "curation",
		Aliases: []string{"cur"},
		Usage:   "Browse curation blocks and file the current track",
		Commands: []*cli.Command{
			{
				Name:  "blocks",
				Usage: "List every curation block",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: txt, json, csv or markdown",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.CurationBlocks,
			},
			{
				Name:  "block",
				Usage: "Show one curation block",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CurationBlock,
			},
			{
				Name:  "resolve",
				Usage: "Show the categories for a context URI (defaults to the current context)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "context"},
				},
				Action: r.CurationResolve,
			},
			{
				Name:  "process",
				Usage: "Mark a curation block as processed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CurationProcess,
			},
			{
				Name:    "move",
				Aliases: []string{"mv"},
				Usage:   "Move the current track into a category (name or playlist id)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "category"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stay",
						Usage: "Do not skip to the next track after a full move",
					},
				},
				Action: r.CurationMove,
			},
			{
				Name:  "trash",
				Usage: "Move the current track into the block's trash playlist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stay",
						Usage: "Do not skip to the next track after a full move",
					},
				},
				Action: r.CurationTrash,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the curation backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Launch the now-playing TUI",
		Action:  r.TUI,
	}
}
