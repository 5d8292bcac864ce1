// todoctl is a command line client for the tasklist API. Credentials are kept in a
// JSON file so the access token can be refreshed across invocations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tasklist/backend/internal/client"
	"github.com/tasklist/backend/internal/logger"
	"github.com/tasklist/backend/internal/model"
)

const usage = `usage: todoctl [flags] <command> [args]

commands:
  signup <email> <password>
  login <email> <password>
  logout
  me
  lists
  list-create <title>
  list-rename <listId> <title>
  list-delete <listId>
  tasks <listId>
  task-add <listId> <title>
  task-done <listId> <taskId> [true|false]
  task-rename <listId> <taskId> <title>
  task-delete <listId> <taskId>
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "todoctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todoctl", flag.ContinueOnError)
	server := fs.String("server", getenv("TODOCTL_SERVER", "http://localhost:3000"), "API base URL")
	credsPath := fs.String("creds", defaultCredentialsPath(), "credentials file")
	logLevel := fs.String("log-level", getenv("LOG_LEVEL", "warn"), "log level")
	timeout := fs.Duration("timeout", 30*time.Second, "overall command timeout")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	creds, err := loadCredentials(*credsPath)
	if err != nil {
		return err
	}

	tokens := client.NewTokenStore(creds)
	c := client.New(*server,
		client.WithTokenStore(tokens),
		client.WithLogger(logger.NewWithWriter(os.Stderr, *logLevel)),
		client.WithLogoutHandler(func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmdErr := dispatch(ctx, c, fs.Arg(0), fs.Args()[1:], out)
	if err := saveCredentials(*credsPath, tokens.Get()); err != nil {
		return errors.Join(cmdErr, err)
	}
	return cmdErr
}

func dispatch(ctx context.Context, c *client.Client, cmd string, args []string, out io.Writer) error {
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d argument(s)\n\n%s", cmd, n, usage)
		}
		return nil
	}

	switch cmd {
	case "signup", "login":
		if err := need(2); err != nil {
			return err
		}
		auth := c.Login
		if cmd == "signup" {
			auth = c.Signup
		}
		user, err := auth(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(out, user)
	case "logout":
		c.Logout()
		return nil
	case "me":
		user, err := c.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, user)
	case "lists":
		lists, err := c.GetLists(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, lists)
	case "list-create":
		if err := need(1); err != nil {
			return err
		}
		list, err := c.CreateList(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, list)
	case "list-rename":
		if err := need(2); err != nil {
			return err
		}
		return c.UpdateList(ctx, args[0], args[1])
	case "list-delete":
		if err := need(1); err != nil {
			return err
		}
		list, err := c.DeleteList(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, list)
	case "tasks":
		if err := need(1); err != nil {
			return err
		}
		tasks, err := c.GetTasks(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, tasks)
	case "task-add":
		if err := need(2); err != nil {
			return err
		}
		task, err := c.CreateTask(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(out, task)
	case "task-done":
		if err := need(2); err != nil {
			return err
		}
		completed := true
		if len(args) > 2 {
			v, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("task-done: %w", err)
			}
			completed = v
		}
		task, err := c.UpdateTask(ctx, args[0], args[1], model.TaskPatch{Completed: &completed})
		if err != nil {
			return err
		}
		return printJSON(out, task)
	case "task-rename":
		if err := need(3); err != nil {
			return err
		}
		title := args[2]
		task, err := c.UpdateTask(ctx, args[0], args[1], model.TaskPatch{Title: &title})
		if err != nil {
			return err
		}
		return printJSON(out, task)
	case "task-delete":
		if err := need(2); err != nil {
			return err
		}
		task, err := c.DeleteTask(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(out, task)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func loadCredentials(path string) (client.Credentials, error) {
	var creds client.Credentials
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return creds, nil
}

// saveCredentials writes creds with owner-only permissions, or removes the file
// once the client is logged out.
func saveCredentials(path string, creds client.Credentials) error {
	if creds.RefreshToken == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func defaultCredentialsPath() string {
	if v := os.Getenv("TODOCTL_CREDENTIALS"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".todoctl.json"
	}
	return filepath.Join(dir, "todoctl", "credentials.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
