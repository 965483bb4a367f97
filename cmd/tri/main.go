// Command tri is the VCS shell: a cobra-driven CLI for one-shot
// invocations plus an interactive REPL, grounded on the teacher's
// cmd/tig command registration style and the original source's
// interactive_shell/run_demo.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alpdik/tri/internal/config"
	"github.com/alpdik/tri/internal/export"
	"github.com/alpdik/tri/internal/logging"
	"github.com/alpdik/tri/internal/object"
	"github.com/alpdik/tri/internal/repo"
	"github.com/alpdik/tri/internal/snapshot"
	"github.com/alpdik/tri/internal/vault"
	"github.com/alpdik/tri/internal/watch"
)

const stateDir = ".tri"

var (
	logger *logging.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tri",
	Short: "tri is an in-memory version control engine",
	Long:  "tri tracks content-addressed file snapshots through an append-only commit DAG, with branches, staging, and three-way merges.",
}

func main() {
	var err error
	cfg, err = config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}

	logger, err = logging.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "initializing logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) == 1 {
		runShell()
		return
	}

	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

// openRepository loads persisted state from root/.tri/db, if any, into a
// fresh in-memory Repository. Callers must call save to persist changes
// back and close the returned db when done.
func openRepository(root string, opLogger *zap.Logger) (*repo.Repository, *badger.DB, error) {
	dbPath := filepath.Join(root, stateDir, "db")
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating state directory: %w", err)
	}

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	r, err := repo.New(repo.Options{
		Vault:  vault.Options{CacheSize: cfg.Vault.CacheSize, CompressAfter: cfg.Vault.CompressAfter},
		Root:   root,
		Logger: opLogger,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	if err := snapshot.Restore(db, r.Store(), r.Vault(), r.Refs()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("restoring repository state: %w", err)
	}

	return r, db, nil
}

func save(r *repo.Repository, db *badger.DB) error {
	return snapshot.Save(db, r.Store(), r.Vault(), r.Refs())
}

func registerCommands() {
	rootCmd.AddCommand(
		addCmd(), commitCmd(), branchCmd(), checkoutCmd(), mergeCmd(),
		logCmd(), statusCmd(), diffCmd(), snapshotCmd(), restoreCmd(),
		watchCmd(), demoCmd(), shellCmd(),
	)
}

func withRepository(fn func(r *repo.Repository) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	ctx := logging.WithOperationID(context.Background())
	r, db, err := openRepository(cwd, logger.WithOperationID(ctx))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := fn(r); err != nil {
		return err
	}
	return save(r, db)
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path> <content>",
		Short: "Stage a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				r.Add(args[0], []byte(args[1]))
				fmt.Println("File staged:", args[0])
				return nil
			})
		},
	}
}

func commitCmd() *cobra.Command {
	var author string
	c := &cobra.Command{
		Use:   "commit <message>",
		Short: "Commit the staging area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				id, err := r.Commit(args[0], author)
				if err != nil {
					return err
				}
				fmt.Printf("[%s %s] %s\n", r.CurrentBranchName(), id[:7], args[0])
				return nil
			})
		},
	}
	c.Flags().StringVar(&author, "author", cfg.Author.DefaultName, "commit author")
	return c
}

func branchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a branch at the current HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				if err := r.CreateBranch(args[0]); err != nil {
					return err
				}
				fmt.Println("Branch created:", args[0])
				return nil
			})
		},
	}
}

func checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <name>",
		Short: "Switch branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				if err := r.Checkout(args[0]); err != nil {
					return err
				}
				fmt.Printf("Switched to branch '%s'\n", args[0])
				return nil
			})
		},
	}
}

func mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				outcome, err := r.Merge(args[0])
				if err != nil {
					return err
				}
				printMergeOutcome(outcome)
				return nil
			})
		},
	}
}

func printMergeOutcome(outcome repo.MergeOutcome) {
	switch {
	case outcome.NoOp:
		fmt.Println(outcome.Message)
	case len(outcome.Conflicts) > 0:
		color.Red("%s", outcome.Message)
		for _, c := range outcome.Conflicts {
			fmt.Println(c)
		}
	default:
		color.Green("%s", outcome.Message)
	}
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				printLog(r)
				return nil
			})
		},
	}
}

func printLog(r *repo.Repository) {
	history := r.Log()
	if len(history) == 0 {
		fmt.Println("No history yet")
		return
	}

	fmt.Printf("\n===== Commit History for '%s' =====\n", r.CurrentBranchName())
	for _, c := range history {
		fmt.Println("Commit:", c.ID)
		fmt.Println("Author:", c.Author)
		fmt.Println("Date:  ", c.Time.Format(time.RFC1123))
		fmt.Printf("Tree:   %s...\n", c.TreeHash[:min(10, len(c.TreeHash))])
		if c.IsMergeCommit() {
			fmt.Printf("Merge:  %s %s\n", c.Parent1[:7], c.Parent2[:7])
		}
		fmt.Printf("\n    %s\n", c.Message)
		fmt.Println("------------------------------------------")
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged and committed paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				entries := r.Status()
				if len(entries) == 0 {
					fmt.Println("No changes detected")
					return nil
				}
				green := color.New(color.FgGreen).SprintFunc()
				for _, e := range entries {
					fmt.Printf("  %s %s\n", green(e.State), e.Path)
				}
				return nil
			})
		},
	}
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <path>",
		Short: "Diff a working-tree file against its last committed blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				result, err := r.Diff(args[0])
				if err != nil {
					return err
				}
				fmt.Print(result.Format())
				return nil
			})
		},
	}
}

func snapshotCmd() *cobra.Command {
	var commitOnly bool
	c := &cobra.Command{
		Use:   "snapshot <dir>",
		Short: "Export blobs to a flat content-addressed directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(func(r *repo.Repository) error {
				if commitOnly {
					branch := r.Refs().CurrentBranch()
					if branch == nil || branch.LastCommit == "" {
						return fmt.Errorf("no commits on current branch to export")
					}
					commit, _ := r.Store().GetCommit(branch.LastCommit)
					if err := export.Commit(args[0], r.Store(), commit); err != nil {
						return err
					}
					fmt.Printf("Exported commit %s to %s\n", object.ShortID(branch.LastCommit), args[0])
					return nil
				}
				if err := export.Mirror(args[0], r.Vault()); err != nil {
					return err
				}
				fmt.Println("Snapshot exported to", args[0])
				return nil
			})
		},
	}
	c.Flags().BoolVar(&commitOnly, "commit-only", false, "export only HEAD's referenced blobs, not the whole vault")
	return c
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-dir>/<hash> <dest>",
		Short: "Restore a single exported blob from a snapshot directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := export.Load(filepath.Dir(args[0]), filepath.Base(args[0]))
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], content, 0o644)
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Auto-stage filesystem changes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			ctx := logging.WithOperationID(context.Background())
			opLogger := logger.WithOperationID(ctx)
			r, db, err := openRepository(cwd, opLogger)
			if err != nil {
				return err
			}
			defer db.Close()

			w, err := watch.New(cwd, r.StagingArea(), opLogger)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Println("Watching", cwd, "- press Ctrl+C to stop")
			select {}
		},
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the automated branch/merge-conflict demo scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			runDemo()
			return nil
		},
	}
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			runShell()
			return nil
		},
	}
}

// runDemo reproduces the original demo scenario end to end against a
// fresh, unpersisted repository: a clean commit, a feature branch, a
// conflicting edit on master, and the resulting merge conflict.
func runDemo() {
	color.Green("=== AUTOMATED DEMO SCENARIO STARTED ===")

	r, err := repo.New(repo.Options{Vault: vault.Options{CacheSize: 100}, Root: os.TempDir(), Logger: logger.WithOperationID(logging.WithOperationID(context.Background()))})
	if err != nil {
		color.Red("Demo Error: %v", err)
		return
	}

	color.Cyan("\n[STEP 1] Initial Commit on Master")
	r.Add("main.go", []byte("func main() {}"))
	r.Add("readme.txt", []byte("This is a VCS project."))
	if _, err := r.Commit("Initial commit", "Umut"); err != nil {
		color.Red("Demo Error: %v", err)
		return
	}

	color.Cyan("\n[STEP 2] Create and Switch to 'feature-login'")
	if err := r.CreateBranch("feature-login"); err != nil {
		color.Red("Demo Error: %v", err)
		return
	}
	if err := r.Checkout("feature-login"); err != nil {
		color.Red("Demo Error: %v", err)
		return
	}

	color.Cyan("\n[STEP 3] Work on Feature Branch")
	r.Add("login.go", []byte("func login() {}"))
	r.Add("main.go", []byte("func main() { login() }"))
	if _, err := r.Commit("Added login feature", "Alp"); err != nil {
		color.Red("Demo Error: %v", err)
		return
	}

	color.Cyan("\n[STEP 4] Switch back to Master and Create Conflict")
	if err := r.Checkout("master"); err != nil {
		color.Red("Demo Error: %v", err)
		return
	}
	r.Add("main.go", []byte("func main() { println(\"Hello\") }"))
	if _, err := r.Commit("Changed main on master", "Umut"); err != nil {
		color.Red("Demo Error: %v", err)
		return
	}

	color.Cyan("\n[STEP 5] Merge 'feature-login' into 'master' (Expect Conflict)")
	outcome, err := r.Merge("feature-login")
	if err != nil {
		color.Red("Demo Error: %v", err)
		return
	}
	printMergeOutcome(outcome)

	color.Cyan("\n[STEP 6] Show History")
	printLog(r)

	color.Green("\n=== DEMO FINISHED ===")
}

// runShell drives the interactive REPL, keeping one repository and
// database connection open for the life of the session.
func runShell() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	ctx := logging.WithOperationID(context.Background())
	r, db, err := openRepository(cwd, logger.WithOperationID(ctx))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer db.Close()
	defer save(r, db)

	color.Green("=== VCS INTERACTIVE SHELL ===")
	fmt.Println("Type 'help' for commands.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	yellow := color.New(color.FgYellow).SprintFunc()

	for {
		fmt.Print(yellow(r.CurrentBranchName() + "> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		if err := dispatch(r, args, scanner); err != nil {
			if err == errExit {
				break
			}
			color.Red("Error: %v", err)
		}
	}
}

var errExit = fmt.Errorf("exit")

func dispatch(r *repo.Repository, args []string, scanner *bufio.Scanner) error {
	switch args[0] {
	case "exit", "quit":
		return errExit
	case "clear":
		fmt.Print("\033[H\033[2J")
	case "help":
		printHelp()
	case "add":
		return shellAdd(r, args, scanner)
	case "commit":
		return shellCommit(r, scanner)
	case "branch":
		if len(args) < 2 {
			fmt.Println("Usage: branch <name>")
			return nil
		}
		if err := r.CreateBranch(args[1]); err != nil {
			return err
		}
		fmt.Println("Branch created:", args[1])
	case "checkout":
		if len(args) < 2 {
			fmt.Println("Usage: checkout <name>")
			return nil
		}
		if err := r.Checkout(args[1]); err != nil {
			return err
		}
		fmt.Printf("Switched to branch '%s'\n", args[1])
	case "merge":
		if len(args) < 2 {
			fmt.Println("Usage: merge <branch_name>")
			return nil
		}
		outcome, err := r.Merge(args[1])
		if err != nil {
			return err
		}
		printMergeOutcome(outcome)
	case "log":
		printLog(r)
	case "status":
		for _, e := range r.Status() {
			fmt.Printf("  %s %s\n", e.State, e.Path)
		}
	case "demo":
		runDemo()
	default:
		fmt.Println("Unknown command. Type 'help'.")
	}
	return nil
}

func shellAdd(r *repo.Repository, args []string, scanner *bufio.Scanner) error {
	if len(args) < 2 {
		fmt.Println("Usage: add <filename>")
		return nil
	}
	fmt.Print("Enter content for " + args[1] + ": ")
	scanner.Scan()
	content := scanner.Text()
	r.Add(args[1], []byte(content))
	return nil
}

func shellCommit(r *repo.Repository, scanner *bufio.Scanner) error {
	fmt.Print("Enter commit message: ")
	scanner.Scan()
	msg := scanner.Text()
	fmt.Print("Enter author: ")
	scanner.Scan()
	author := scanner.Text()
	id, err := r.Commit(msg, author)
	if err != nil {
		return err
	}
	fmt.Printf("[%s %s] %s\n", r.CurrentBranchName(), id[:7], msg)
	return nil
}

func printHelp() {
	fmt.Println(`Commands:
  add <file>              : Stage a file, prompting for content
  commit                  : Commit changes, prompting for message and author
  log                     : Show history
  status                  : Show staged and committed paths
  branch <name>           : Create new branch
  checkout <name>         : Switch branch
  merge <branch>          : Merge branch into current
  demo                    : Run automated demo
  clear                   : Clear the screen
  exit                    : Exit program`)
}
