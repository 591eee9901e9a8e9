package s3fs

import (
	"fmt"
	"io"

	"github.com/urfave/cli"
)

var (
	parallel int
	quiet    bool
)

// Main runs the s3fs command line tool. A nil client means real connections
// are established from the URI and flags; tests inject a MockS3 and capture
// output.
func Main(client S3API, args []string, output io.Writer) int {
	out = output
	exitCode := 0

	fail := func(err error) {
		fmt.Fprintf(output, "error: %s\n", err)
		exitCode = 1
	}

	defaults := func(c *cli.Context) (*Config, error) {
		cfg := &Config{}
		if path := c.GlobalString("config"); path != "" {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
		if region := c.GlobalString("region"); region != "" {
			cfg.Region = region
		}
		if endpoint := c.GlobalString("endpoint"); endpoint != "" {
			cfg.EndpointOverride = endpoint
		}
		return cfg, nil
	}

	resolve := func(c *cli.Context, url string) (*target, error) {
		cfg, err := defaults(c)
		if err != nil {
			return nil, err
		}
		return resolveTarget(client, url, cfg)
	}

	app := cli.NewApp()
	app.Name = "s3fs"
	app.Usage = "filesystem operations on S3-compatible storage"
	app.Version = "1.0.0"
	app.Writer = output
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:        "p",
			Value:       32,
			Usage:       "number of parallel operations to run",
			Destination: &parallel,
		},
		cli.BoolFlag{
			Name:        "q",
			Usage:       "quieter (less verbose) output",
			Destination: &quiet,
		},
		cli.StringFlag{
			Name:   "region",
			Usage:  "bucket region, auto-detected when unset",
			EnvVar: "AWS_REGION",
		},
		cli.StringFlag{
			Name:  "endpoint",
			Usage: "custom S3-compatible endpoint",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML file with connection defaults",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "ls",
			Usage:     "List buckets or keys",
			ArgsUsage: "[uri]",
			Action: func(c *cli.Context) {
				if len(c.Args()) < 1 {
					if err := listBuckets(client); err != nil {
						fail(err)
					}
					return
				}
				t, err := resolve(c, c.Args().First())
				if err == nil {
					err = lsCommand(t)
				}
				if err != nil {
					fail(err)
				}
			},
		},
		{
			Name:      "cat",
			Usage:     "Cat key contents",
			ArgsUsage: "uri ...",
			Action: func(c *cli.Context) {
				if len(c.Args()) == 0 {
					cli.ShowCommandHelp(c, "cat")
					exitCode = 1
					return
				}
				for _, url := range c.Args() {
					t, err := resolve(c, url)
					if err == nil {
						err = catCommand(t)
					}
					if err != nil {
						fail(err)
						return
					}
				}
			},
		},
		{
			Name:      "get",
			Usage:     "Download keys",
			ArgsUsage: "uri [dest-dir]",
			Action: func(c *cli.Context) {
				if len(c.Args()) == 0 {
					cli.ShowCommandHelp(c, "get")
					exitCode = 1
					return
				}
				destDir := "."
				if len(c.Args()) > 1 {
					destDir = c.Args().Get(1)
				}
				t, err := resolve(c, c.Args().First())
				if err == nil {
					err = getCommand(t, destDir)
				}
				if err != nil {
					fail(err)
				}
			},
		},
		{
			Name:      "put",
			Usage:     "Upload files",
			ArgsUsage: "source [source ...] dest-uri",
			Action: func(c *cli.Context) {
				if len(c.Args()) < 2 {
					cli.ShowCommandHelp(c, "put")
					exitCode = 1
					return
				}
				args := c.Args()
				dest, err := resolve(c, args[len(args)-1])
				if err == nil {
					err = putCommand(args[:len(args)-1], dest)
				}
				if err != nil {
					fail(err)
				}
			},
		},
		{
			Name:      "rm",
			Usage:     "Remove keys",
			ArgsUsage: "uri ...",
			Action: func(c *cli.Context) {
				if len(c.Args()) == 0 {
					cli.ShowCommandHelp(c, "rm")
					exitCode = 1
					return
				}
				for _, url := range c.Args() {
					t, err := resolve(c, url)
					if err == nil {
						err = rmCommand(t)
					}
					if err != nil {
						fail(err)
						return
					}
				}
			},
		},
		{
			Name:      "mb",
			Usage:     "Create bucket",
			ArgsUsage: "bucket",
			Action: func(c *cli.Context) {
				if len(c.Args()) != 1 {
					cli.ShowCommandHelp(c, "mb")
					exitCode = 1
					return
				}
				cfg, err := defaults(c)
				if err == nil {
					err = mbCommand(client, c.Args().First(), cfg)
				}
				if err != nil {
					fail(err)
				}
			},
		},
		{
			Name:      "rb",
			Usage:     "Remove bucket",
			ArgsUsage: "bucket",
			Action: func(c *cli.Context) {
				if len(c.Args()) != 1 {
					cli.ShowCommandHelp(c, "rb")
					exitCode = 1
					return
				}
				cfg, err := defaults(c)
				if err == nil {
					err = rbCommand(client, c.Args().First(), cfg)
				}
				if err != nil {
					fail(err)
				}
			},
		},
	}
	app.Run(args)
	return exitCode
}
