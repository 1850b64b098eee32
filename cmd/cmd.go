// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// syncCommand runs a list sync from a CSV dataset
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Add the titles of a CSV dataset to a TMDb list",
		ArgsUsage: "<dataset> [list-name] [api-key]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "dataset"},
			&cli.StringArg{Name: "list-name"},
			&cli.StringArg{Name: "api-key"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Report what would be added without changing anything",
			},
			&cli.StringFlag{
				Name:  "match",
				Usage: "Membership match policy: title or id (default from config)",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Pause after each successful addition (default from config)",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Write per-item results to a .csv, .json, .yaml or .md file",
			},
		},
		Action: r.Sync,
	}
}

// authCommand handles TMDb session authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Approve a TMDb request token in the browser and save the session id",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for approval",
				Value: approvalTimeout,
			},
		},
		Action: r.Auth,
	}
}

// searchCommand queries the catalog the way the resolver does
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search TMDb for a movie title",
		ArgsUsage: "<title>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "title"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "year",
				Aliases: []string{"y"},
				Usage:   "Release year filter",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of matches to print",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// listsCommand prints the account's lists
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lists",
		Usage: "Show the lists of the authenticated account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Lists,
	}
}

// listCommand prints the entries of one list
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "Show the entries of a list by name",
		ArgsUsage: "[name]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.List,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run history database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// historyCommand prints recorded sync runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Show recorded sync runs, or the items of one run",
		ArgsUsage: "[sequence]",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "sequence"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.History,
	}
}
