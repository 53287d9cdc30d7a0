// Package main is the entry point for the Kanva admin CLI. It manages
// access keys directly against the configured database, for operators
// working outside the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/config"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/lock"
	"github.com/kanva-ao/kanva-server/internal/repository/factory"
	"github.com/kanva-ao/kanva-server/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Kanva Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "list", "create", "revoke", "activate", "reset", "delete":
		if err := runKeyCommand(command, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runKeyCommand opens the database and dispatches one key operation.
func runKeyCommand(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	id := fs.String("id", "", "key id (revoke, activate, reset, delete)")
	label := fs.String("label", "", "key label (create)")
	role := fs.String("role", "USER", "key role: USER or ADMIN (create)")
	email := fs.String("email", "", "customer email (create)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_ = godotenv.Load()
	cfg := config.MustLoad(*configPath)

	// Quiet logger: CLI output goes to stdout, not the log stream.
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx := context.Background()
	dbResult, err := factory.New(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer dbResult.Database.Close()

	keys := service.NewKeyService(dbResult.Repos.AccessKey, lock.NewMemoryLocker(), cfg.Auth, logger)

	switch command {
	case "list":
		return listKeys(ctx, keys)
	case "create":
		key, err := keys.IssueKey(ctx, *label, domain.Role(*role), *email)
		if err != nil {
			return err
		}
		fmt.Printf("Created key %s\n", key.ID)
		fmt.Printf("Password: %s\n", key.Password)
		return nil
	case "revoke":
		return requireID(*id, func() error { return keys.SetKeyStatus(ctx, *id, false) })
	case "activate":
		return requireID(*id, func() error { return keys.SetKeyStatus(ctx, *id, true) })
	case "reset":
		return requireID(*id, func() error { return keys.ResetUsage(ctx, *id) })
	case "delete":
		return requireID(*id, func() error { return keys.DeleteKey(ctx, *id) })
	}
	return nil
}

func requireID(id string, op func() error) error {
	if id == "" {
		return fmt.Errorf("--id is required")
	}
	if err := op(); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func listKeys(ctx context.Context, keys *service.KeyService) error {
	list, err := keys.ListKeys(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tROLE\tACTIVE\tUSAGE\tPASSWORD")
	for _, key := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d/%d\t%s\n",
			key.ID, key.Label, key.Role, key.IsActive, key.UsageCount, key.UsageLimit, key.Password)
	}
	return w.Flush()
}

func printUsage() {
	fmt.Println(`Kanva Admin CLI

Usage:
  kanva-admin <command> [arguments]

Commands:
  list        List every access key, passwords included
  create      Issue a new access key
  revoke      Deactivate a key
  activate    Reactivate a key
  reset       Zero a key's usage counter
  delete      Remove a key (the default key is protected)
  version     Print version information
  help        Show this help message

Examples:
  kanva-admin list
  kanva-admin create --label "Cliente: Maria" --role USER --email maria@example.com
  kanva-admin revoke --id <uuid>
  kanva-admin reset --id <uuid>

Use "kanva-admin <command> --help" for more information about a command.`)
}
