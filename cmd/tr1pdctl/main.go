// Command tr1pdctl is the read/write control tool: it resolves spec
// expressions against a data directory for read-only commands, and talks
// to a running tr1pd daemon over its control socket for writes.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/tr1pd/tr1pd"
)

func main() {
	app := &cli.App{
		Name:  "tr1pdctl",
		Usage: "read, write, and verify a tr1pd ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "socket",
				EnvVars: []string{"TR1PD_SOCKET"},
				Value:   tr1pd.DefaultSocketPath,
			},
			&cli.StringFlag{
				Name:    "data-dir",
				EnvVars: []string{"TR1PD_DATADIR"},
				Value:   tr1pd.DefaultDataDir,
			},
		},
		Commands: []*cli.Command{
			cmdInit,
			cmdGet,
			cmdHead,
			cmdLs,
			cmdWrite,
			cmdFrom,
			cmdRekey,
			cmdFsck,
			cmdPing,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tr1pdctl:", err)
		os.Exit(1)
	}
}

func keyPaths(c *cli.Context) (string, string) {
	return tr1pd.KeyPaths(filepath.Join(c.String("data-dir"), "keys"))
}

var cmdInit = &cli.Command{
	Name:  "init",
	Usage: "generate a long-term keypair into the key files",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing keypair"},
	},
	Action: func(c *cli.Context) error {
		pkPath, skPath := keyPaths(c)
		if !c.Bool("force") {
			if _, err := os.Stat(pkPath); err == nil {
				return fmt.Errorf("key file %s already exists (use --force to overwrite)", pkPath)
			}
		}
		if err := os.MkdirAll(filepath.Dir(pkPath), 0750); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
		pk, sk, err := tr1pd.GenerateKeypair()
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}
		if err := tr1pd.WriteLongtermKeys(pkPath, skPath, pk, sk); err != nil {
			return err
		}
		fmt.Printf("long-term public key: %x\n", pk)
		return nil
	},
}

func openStore(c *cli.Context) (tr1pd.Store, error) {
	return tr1pd.OpenDiskStore(c.String("data-dir"))
}

var cmdGet = &cli.Command{
	Name:      "get",
	Usage:     "read a single block",
	ArgsUsage: "SPEC",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "all", Usage: "print the full canonical encoding as hex"},
		&cli.BoolFlag{Name: "parent", Usage: "print SPEC's parent pointer instead of its message"},
	},
	Action: func(c *cli.Context) error {
		spec := c.Args().First()
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		r := tr1pd.NewResolver(store)
		_, ptr, _, err := r.Resolve(spec)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", spec, err)
		}
		b, err := store.Get(ptr)
		if err != nil {
			return fmt.Errorf("get %s: %w", ptr, err)
		}

		if c.Bool("parent") {
			fmt.Println(b.Prev())
			return nil
		}
		if c.Bool("all") {
			fmt.Printf("%x\n", b.Canonical())
			return nil
		}
		msg, ok := b.Message()
		if !ok {
			return fmt.Errorf("block %s (%s) carries no message payload", ptr, b.Identifier())
		}
		os.Stdout.Write(msg)
		fmt.Println()
		return nil
	},
}

var cmdHead = &cli.Command{
	Name:  "head",
	Usage: "print the HEAD pointer",
	Action: func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()
		head, err := store.GetHead()
		if err != nil {
			return err
		}
		fmt.Println(head)
		return nil
	},
}

var cmdLs = &cli.Command{
	Name:      "ls",
	Usage:     "print messages of blocks in a range",
	ArgsUsage: "[SPEC=..]",
	Action: func(c *cli.Context) error {
		spec := c.Args().First()
		if spec == "" {
			spec = ".."
		}
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		r := tr1pd.NewResolver(store)
		pointers, err := r.ResolveAndExpand(spec)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", spec, err)
		}
		for _, p := range pointers {
			b, err := store.Get(p)
			if err != nil {
				return fmt.Errorf("get %s: %w", p, err)
			}
			if msg, ok := b.Message(); ok {
				fmt.Printf("%s %-5s %s\n", p, b.Identifier(), msg)
			} else {
				fmt.Printf("%s %-5s\n", p, b.Identifier())
			}
		}
		return nil
	},
}

func dial(c *cli.Context) (*tr1pd.Client, error) {
	return tr1pd.Dial(c.String("socket"))
}

var cmdWrite = &cli.Command{
	Name:  "write",
	Usage: "read stdin and append each chunk as an Info block",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "size", Usage: "fixed chunk size in bytes (default: one block per line)"},
	},
	Action: func(c *cli.Context) error {
		client, err := dial(c)
		if err != nil {
			return err
		}
		defer client.Close()
		return writeChunks(client, os.Stdin, c.Int("size"))
	},
}

var cmdFrom = &cli.Command{
	Name:      "from",
	Usage:     "append a child process's stdout as Info blocks",
	ArgsUsage: "PROG [ARGS...]",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "size", Usage: "fixed chunk size in bytes (default: one block per line)"},
	},
	Action: func(c *cli.Context) error {
		args := c.Args().Slice()
		if len(args) == 0 {
			return fmt.Errorf("from requires a program to run")
		}
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Stderr = os.Stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("pipe child stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s: %w", args[0], err)
		}

		client, err := dial(c)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := writeChunks(client, stdout, c.Int("size")); err != nil {
			return err
		}
		return cmd.Wait()
	},
}

// writeChunks sends each chunk of r to the daemon as an Info recipe. With
// size <= 0 each newline-terminated line is its own block; otherwise
// fixed-size byte chunks are used, with a final short chunk if any remains.
func writeChunks(client *tr1pd.Client, r io.Reader, size int) error {
	if size <= 0 {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			if _, err := client.Write(tr1pd.RecipeInfo{Bytes: scanner.Bytes()}); err != nil {
				return fmt.Errorf("write block: %w", err)
			}
		}
		return scanner.Err()
	}

	buf := make([]byte, size)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if _, werr := client.Write(tr1pd.RecipeInfo{Bytes: buf[:n]}); werr != nil {
				return fmt.Errorf("write block: %w", werr)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
}

var cmdRekey = &cli.Command{
	Name:  "rekey",
	Usage: "force a session key rotation",
	Action: func(c *cli.Context) error {
		client, err := dial(c)
		if err != nil {
			return err
		}
		defer client.Close()
		ptr, err := client.Write(tr1pd.RecipeRekey{})
		if err != nil {
			return err
		}
		fmt.Println(ptr)
		return nil
	},
}

var cmdFsck = &cli.Command{
	Name:      "fsck",
	Usage:     "walk and verify a range of blocks",
	ArgsUsage: "[SPEC=..]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "paranoid", Usage: "treat a second Init inside the range as fatal"},
		&cli.BoolFlag{Name: "quiet"},
		&cli.BoolFlag{Name: "verbose"},
	},
	Action: func(c *cli.Context) error {
		spec := c.Args().First()
		if spec == "" {
			spec = ".."
		}
		pkPath, _ := keyPaths(c)
		pkBytes, err := os.ReadFile(pkPath)
		if err != nil {
			return fmt.Errorf("read long-term public key: %w", err)
		}
		var ltPK tr1pd.PublicKey
		if len(pkBytes) != tr1pd.KeySize {
			return fmt.Errorf("%s is %d bytes, want %d", pkPath, len(pkBytes), tr1pd.KeySize)
		}
		copy(ltPK[:], pkBytes)

		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()

		r := tr1pd.NewResolver(store)
		pointers, err := r.ResolveAndExpand(spec)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", spec, err)
		}

		flags := tr1pd.FsckFlags{
			Verbose:  c.Bool("verbose"),
			Quiet:    c.Bool("quiet"),
			Paranoid: c.Bool("paranoid"),
		}
		if err := tr1pd.Walk(store, pointers, ltPK, flags, os.Stdout); err != nil {
			return fmt.Errorf("fsck failed: %w", err)
		}
		if !flags.Quiet {
			fmt.Printf("%d blocks verified\n", len(pointers))
		}
		return nil
	},
}

var cmdPing = &cli.Command{
	Name:  "ping",
	Usage: "check that the daemon is responding",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "quiet"},
	},
	Action: func(c *cli.Context) error {
		client, err := dial(c)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(); err != nil {
			return err
		}
		if !c.Bool("quiet") {
			fmt.Println("pong")
		}
		return nil
	},
}
