package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/enthus-golang/epsonconnect"
	"github.com/enthus-golang/epsonconnect/internal/logging"
)

// newApp builds the command tree. Output of every command is written to
// stdout as indented JSON.
func newApp(version string, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "epsonconnect",
		Usage:     "print and manage scan destinations through Epson Connect",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// main maps exit codes; the library must not call os.Exit itself.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Usage:   "printer email address",
				Sources: cli.EnvVars(epsonconnect.EnvPrinterEmail),
			},
			&cli.StringFlag{
				Name:    "client-id",
				Usage:   "API client ID",
				Sources: cli.EnvVars(epsonconnect.EnvClientID),
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Usage:   "API client secret",
				Sources: cli.EnvVars(epsonconnect.EnvClientSecret),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "API base URL",
				Sources: cli.EnvVars(epsonconnect.EnvBaseURL),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				Sources: cli.EnvVars("EPSON_CONNECT_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "text or json",
				Value:   "text",
				Sources: cli.EnvVars("EPSON_CONNECT_LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "show printer information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					info, err := client.Printer().Info(ctx)
					if err != nil {
						return err
					}
					return writeJSON(stdout, info)
				},
			},
			{
				Name:      "print",
				Usage:     "print a file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "job-name", Usage: "job name, generated when empty"},
					&cli.StringFlag{Name: "mode", Usage: "document or photo", Value: epsonconnect.PrintModeDocument},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return cli.Exit("print requires exactly one file argument", 2)
					}
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					jobID, err := client.Printer().Print(ctx, cmd.Args().First(), &epsonconnect.PrintSettings{
						JobName:   cmd.String("job-name"),
						PrintMode: cmd.String("mode"),
					})
					if err != nil {
						return err
					}
					return writeJSON(stdout, map[string]string{"job_id": jobID})
				},
			},
			{
				Name:      "job",
				Usage:     "show print job status",
				ArgsUsage: "<job-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return cli.Exit("job requires a job ID", 2)
					}
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					job, err := client.Printer().JobInfo(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					return writeJSON(stdout, job)
				},
			},
			{
				Name:      "cancel",
				Usage:     "cancel a pending print job",
				ArgsUsage: "<job-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return cli.Exit("cancel requires a job ID", 2)
					}
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					return client.Printer().CancelJob(ctx, cmd.Args().First())
				},
			},
			scanCommand(stdout, stderr),
			{
				Name:  "deauth",
				Usage: "remove the device registration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					// Revoke needs a subject ID, which only exists after a token exchange.
					if err := client.Credential().EnsureValid(ctx); err != nil {
						return err
					}
					return client.Deauthenticate(ctx)
				},
			},
		},
	}
}

func scanCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "manage scan destinations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list scan destinations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					dests, err := client.Scanner().List(ctx)
					if err != nil {
						return err
					}
					return writeJSON(stdout, dests)
				},
			},
			{
				Name:      "add",
				Usage:     "add a scan destination",
				ArgsUsage: "<name> <destination>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "mail or url", Value: epsonconnect.DestinationTypeMail},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 2 {
						return cli.Exit("add requires a name and a destination", 2)
					}
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					dest, err := client.Scanner().Add(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.String("type"))
					if err != nil {
						return err
					}
					return writeJSON(stdout, dest)
				},
			},
			{
				Name:      "update",
				Usage:     "update a scan destination",
				ArgsUsage: "<id> <name> <destination>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "mail or url", Value: epsonconnect.DestinationTypeMail},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 3 {
						return cli.Exit("update requires an ID, a name and a destination", 2)
					}
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					args := cmd.Args()
					return client.Scanner().Update(ctx, args.Get(0), args.Get(1), args.Get(2), cmd.String("type"))
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a scan destination",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return cli.Exit("remove requires a destination ID", 2)
					}
					client, err := newClient(cmd, stderr)
					if err != nil {
						return err
					}
					return client.Scanner().Remove(ctx, cmd.Args().First())
				},
			},
		},
	}
}

func newClient(cmd *cli.Command, stderr io.Writer) (*epsonconnect.Client, error) {
	logger := logging.NewLogger(logging.Config{
		Format: cmd.String("log-format"),
		Level:  logging.ParseLevel(cmd.String("log-level")),
		Output: stderr,
	})

	opts := []epsonconnect.Option{epsonconnect.WithLogger(logger)}
	if baseURL := cmd.String("base-url"); baseURL != "" {
		opts = append(opts, epsonconnect.WithBaseURL(baseURL))
	}

	client, err := epsonconnect.New(cmd.String("email"), cmd.String("client-id"), cmd.String("client-secret"), opts...)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	return client, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
